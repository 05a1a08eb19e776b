package service

import (
	"context"
	"errors"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/repository"
)

// RatingService одна оценка на доставленный заказ плюс публичный агрегат
type RatingService struct {
	ratings repository.RatingRepository
	orders  repository.OrderRepository
}

func NewRatingService(ratings repository.RatingRepository, orders repository.OrderRepository) *RatingService {
	return &RatingService{ratings: ratings, orders: orders}
}

// Create регистрирует оценку: только покупатель заказа, только после
// delivered, повторная оценка отклоняется хранилищем
func (s *RatingService) Create(ctx context.Context, actor auth.Identity, orderID string, score int, comment string) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, Validationf("Score debe estar entre 1 y 5")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Validationf("Pedido no válido para calificación")
		}
		return nil, err
	}
	if o.ConsumerID != actor.UserID {
		return nil, ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusDelivered {
		return nil, Validationf("Pedido no válido para calificación")
	}

	r := domain.Rating{
		OrderID:    orderID,
		ProducerID: o.ProducerID,
		ConsumerID: o.ConsumerID,
		Score:      score,
		Comment:    comment,
	}
	if err := s.ratings.Create(ctx, &r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Validationf("El pedido ya fue calificado")
		}
		return nil, err
	}
	return &r, nil
}

// RatingSummary агрегат продавца; Average nil при отсутствии оценок
type RatingSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// ProducerSummary средний балл и число оценок продавца; пустой набор —
// не ошибка
func (s *RatingService) ProducerSummary(ctx context.Context, producerID string) (*RatingSummary, error) {
	ratings, err := s.ratings.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return &RatingSummary{Average: nil, Count: 0}, nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	avg := float64(sum) / float64(len(ratings))
	return &RatingSummary{Average: &avg, Count: len(ratings)}, nil
}
