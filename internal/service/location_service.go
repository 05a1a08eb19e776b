package service

import (
	"context"
	"errors"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/repository"
)

// LocationService адрес пользователя: set-if-authenticated-self семантика
type LocationService struct {
	locations repository.LocationRepository
}

func NewLocationService(locations repository.LocationRepository) *LocationService {
	return &LocationService{locations: locations}
}

// My возвращает адрес вызывающего, nil если не задан
func (s *LocationService) My(ctx context.Context, actor auth.Identity) (*domain.Location, error) {
	loc, err := s.locations.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return loc, nil
}

// LocationInput upsert-поля адреса
type LocationInput struct {
	Address   string
	Commune   string
	Region    string
	Latitude  float64
	Longitude float64
}

// Upsert создаёт либо обновляет адрес вызывающего
func (s *LocationService) Upsert(ctx context.Context, actor auth.Identity, in LocationInput) (*domain.Location, error) {
	if in.Address == "" || in.Commune == "" || in.Region == "" {
		return nil, Validationf("address, commune y region son obligatorios")
	}
	loc := domain.Location{
		UserID:    actor.UserID,
		Address:   in.Address,
		Commune:   in.Commune,
		Region:    in.Region,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
	if err := s.locations.Upsert(ctx, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Delete удаляет адрес вызывающего; отсутствие адреса не ошибка
func (s *LocationService) Delete(ctx context.Context, actor auth.Identity) error {
	return s.locations.DeleteByUserID(ctx, actor.UserID)
}
