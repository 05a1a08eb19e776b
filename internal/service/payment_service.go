package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/notify"
	"agrolink/internal/repository"
)

// PaymentService журнал платежей: ровно одно подтверждение на заказ,
// сумма строго равна total, успех двигает заказ в paid через Order Engine
type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	engine   *OrderService
	users    repository.UserRepository
	tx       repository.TxManager
	notifier notify.Notifier
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	engine *OrderService,
	users repository.UserRepository,
	tx repository.TxManager,
	notifier notify.Notifier,
) *PaymentService {
	return &PaymentService{payments: payments, orders: orders, engine: engine, users: users, tx: tx, notifier: notifier}
}

// Record регистрирует подтверждение оплаты. Гварды по порядку: заказ
// существует и принадлежит actor как покупателю; статус строго pending;
// сумма равна total; нет другого confirmed-платежа (уникальность на
// уровне хранилища авторитетна). Любой отказ — без мутаций.
func (s *PaymentService) Record(ctx context.Context, actor auth.Identity, orderID string, amount float64, method string) (*domain.Payment, error) {
	if orderID == "" {
		return nil, Validationf("orderId requerido")
	}
	if method == "" {
		return nil, Validationf("method requerido")
	}

	var created *domain.Payment
	var order *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if o.ConsumerID != actor.UserID {
			return ErrOrderNotFound
		}
		switch o.Status {
		case domain.OrderStatusPending:
			// payable
		case domain.OrderStatusPaid:
			return Validationf("El pedido ya está pagado")
		default:
			return Validationf("El pedido no admite pago")
		}
		if amount != o.Total {
			return Validationf("Monto no coincide con el total")
		}

		p := domain.Payment{
			OrderID: orderID,
			Amount:  amount,
			Method:  method,
			Status:  domain.PaymentStatusConfirmed,
		}
		if err := s.payments.Create(ctx, &p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return Validationf("El pedido ya está pagado")
			}
			return err
		}
		if err := s.engine.markPaid(ctx, o); err != nil {
			return err
		}
		created = &p
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if producer, err := s.users.GetByID(ctx, order.ProducerID); err == nil && producer.Email != "" {
			go func(email, orderID string, amount float64) {
				body := fmt.Sprintf("El pedido %s fue pagado ($%.2f).", orderID, amount)
				if err := s.notifier.Send(email, "Pago confirmado", body); err != nil {
					log.Printf("[notify] error enviando mail: %v", err)
				}
			}(producer.Email, order.ID, created.Amount)
		}
	}
	return created, nil
}

// ListForOrder платежи заказа, видимы его сторонам и админу
func (s *PaymentService) ListForOrder(ctx context.Context, actor auth.Identity, orderID string) ([]domain.Payment, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.ConsumerID != actor.UserID && o.ProducerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrOrderNotFound
	}
	return s.payments.ListByOrder(ctx, orderID)
}
