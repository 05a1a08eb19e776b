package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/notify"
	"agrolink/internal/repository"
)

// OrderService машина состояний заказа: создание с резервированием
// запаса, переходы ship/deliver/cancel и чтение с обогащением.
// Переходы: pending → paid → in_transit → delivered; cancelled достижим
// только из pending и paid.
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	locs     repository.LocationRepository
	tx       repository.TxManager
	notifier notify.Notifier
}

func NewOrderService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	locs repository.LocationRepository,
	tx repository.TxManager,
	notifier notify.Notifier,
) *OrderService {
	return &OrderService{products: products, orders: orders, users: users, locs: locs, tx: tx, notifier: notifier}
}

// ItemInput позиция из запроса: только товар и количество,
// name/price снимаются сервером с текущего товара
type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// notifyAsync отправляет письмо после коммита; ошибки только логируются
func (s *OrderService) notifyAsync(to, subject, body string) {
	if s.notifier == nil || to == "" {
		return
	}
	go func() {
		if err := s.notifier.Send(to, subject, body); err != nil {
			log.Printf("[notify] error enviando mail: %v", err)
		}
	}()
}

// Create проверяет все позиции, затем резервирует запас и создаёт заказ.
// Проверка и декременты идут внутри одной транзакции, частичное
// списание при отказе невозможно. Total считается на сервере.
func (s *OrderService) Create(ctx context.Context, actor auth.Identity, producerID string, items []ItemInput) (*domain.Order, error) {
	if producerID == "" {
		return nil, Validationf("producerId requerido")
	}
	if len(items) == 0 {
		return nil, Validationf("Items requeridos")
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, Validationf("Items inválidos")
		}
	}

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// phase 1: validate every line before touching stock
		snapshots := make([]domain.OrderItem, 0, len(items))
		total := 0.0
		for _, it := range items {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return Validationf("Producto no existe: %s", it.ProductID)
				}
				return err
			}
			if p.ProducerID != producerID {
				return Validationf("Todos los items deben ser del mismo productor")
			}
			if p.Stock < it.Quantity {
				return Validationf("Stock insuficiente para %s", p.Name)
			}
			snapshots = append(snapshots, domain.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  it.Quantity,
			})
			total += p.Price * float64(it.Quantity)
		}

		// phase 2: reserve stock, conditional decrement is authoritative
		for i, it := range items {
			if err := s.products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return Validationf("Stock insuficiente para %s", snapshots[i].Name)
				}
				return err
			}
		}

		o := domain.Order{
			ConsumerID: actor.UserID,
			ProducerID: producerID,
			Items:      snapshots,
			Total:      total,
			Status:     domain.OrderStatusPending,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if producer, err := s.users.GetByID(ctx, producerID); err == nil {
		s.notifyAsync(producer.Email, "Nuevo pedido recibido",
			fmt.Sprintf("Tienes un nuevo pedido por $%.2f (pedido %s).", created.Total, created.ID))
	}
	return created, nil
}

// getOwned возвращает заказ, только если actor его продавец
func (s *OrderService) getOwned(ctx context.Context, actor auth.Identity, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.ProducerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Ship переводит pending или paid в in_transit
func (s *OrderService) Ship(ctx context.Context, actor auth.Identity, id string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.getOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusPending && o.Status != domain.OrderStatusPaid {
			return Validationf("El pedido no admite envío")
		}
		o.Status = domain.OrderStatusInTransit
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if consumer, err := s.users.GetByID(ctx, updated.ConsumerID); err == nil {
		s.notifyAsync(consumer.Email, "Pedido en camino",
			fmt.Sprintf("Tu pedido %s está en tránsito.", updated.ID))
	}
	return updated, nil
}

// Deliver переводит in_transit в терминальный delivered
func (s *OrderService) Deliver(ctx context.Context, actor auth.Identity, id string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.getOwned(ctx, actor, id)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusInTransit {
			return Validationf("El pedido debe estar en tránsito para entregar")
		}
		o.Status = domain.OrderStatusDelivered
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if consumer, err := s.users.GetByID(ctx, updated.ConsumerID); err == nil {
		s.notifyAsync(consumer.Email, "Pedido entregado",
			fmt.Sprintf("Tu pedido %s fue entregado. Ya puedes calificarlo.", updated.ID))
	}
	return updated, nil
}

// Cancel отменяет pending или paid заказ и возвращает запас по снимку
// позиций. Оплаченный заказ может отменить только продавец или админ;
// in_transit и delivered не отменяются. Защита от двойной отмены —
// проверка статуса под транзакцией.
func (s *OrderService) Cancel(ctx context.Context, actor auth.Identity, id string) (*domain.Order, error) {
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		isConsumer := o.ConsumerID == actor.UserID
		isProducer := o.ProducerID == actor.UserID
		if !isConsumer && !isProducer && !actor.IsAdmin() {
			return ErrOrderNotFound
		}
		switch o.Status {
		case domain.OrderStatusPending:
			// any party or admin
		case domain.OrderStatusPaid:
			if !isProducer && !actor.IsAdmin() {
				return Validationf("Un pedido pagado solo puede cancelarlo el productor")
			}
		default:
			return Validationf("El pedido no admite cancelación")
		}

		// compensation: restore exactly the snapshot quantities
		for _, it := range o.Items {
			if err := s.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil &&
				!errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		o.Status = domain.OrderStatusCancelled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// notify the counterpart of whoever cancelled
	to := updated.ConsumerID
	if actor.UserID == updated.ConsumerID {
		to = updated.ProducerID
	}
	if u, err := s.users.GetByID(ctx, to); err == nil {
		s.notifyAsync(u.Email, "Pedido cancelado",
			fmt.Sprintf("El pedido %s fue cancelado.", updated.ID))
	}
	return updated, nil
}

// Contact публичные контакты второй стороны заказа
type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Region  string `json:"region,omitempty"`
	Commune string `json:"commune,omitempty"`
}

// OrderView заказ, обогащённый контактами сторон
type OrderView struct {
	domain.Order
	Producer *Contact `json:"producer,omitempty"`
	Consumer *Contact `json:"consumer,omitempty"`
}

// ListMine заказы вызывающего: consumer видит свои покупки с контактом
// продавца, producer — свои продажи с контактом покупателя, админ — всё.
// Регион/коммуна покупателя подтягиваются одним батч-запросом по
// множеству его id — ручной джойн вместо N+1.
func (s *OrderService) ListMine(ctx context.Context, actor auth.Identity) ([]OrderView, error) {
	var f repository.OrderFilter
	switch actor.Role {
	case domain.RoleConsumer:
		f.ConsumerID = actor.UserID
	case domain.RoleProducer:
		f.ProducerID = actor.UserID
	case domain.RoleAdmin:
		// no filter
	default:
		return nil, ErrForbidden
	}
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, actor, orders, false)
}

// Get деталь заказа для его стороны или админа
func (s *OrderService) Get(ctx context.Context, actor auth.Identity, id string) (*OrderView, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if o.ConsumerID != actor.UserID && o.ProducerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrOrderNotFound
	}
	views, err := s.enrich(ctx, actor, []domain.Order{*o}, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// enrich джойнит контакты сторон; withEmail добавляет email (деталь)
func (s *OrderService) enrich(ctx context.Context, actor auth.Identity, orders []domain.Order, withEmail bool) ([]OrderView, error) {
	producerView := actor.Role == domain.RoleProducer || actor.IsAdmin()
	consumerView := actor.Role == domain.RoleConsumer || actor.IsAdmin()

	idSet := make(map[string]struct{})
	consumerIDs := make(map[string]struct{})
	for _, o := range orders {
		if producerView {
			idSet[o.ConsumerID] = struct{}{}
			consumerIDs[o.ConsumerID] = struct{}{}
		}
		if consumerView {
			idSet[o.ProducerID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	cids := make([]string, 0, len(consumerIDs))
	for id := range consumerIDs {
		cids = append(cids, id)
	}
	sort.Strings(cids)
	locs, err := s.locs.ListByUserIDs(ctx, cids)
	if err != nil {
		return nil, err
	}

	contact := func(id string, withLoc bool) *Contact {
		u, ok := users[id]
		if !ok {
			return nil
		}
		c := &Contact{ID: u.ID, Name: u.Name, Phone: u.Phone}
		if withEmail {
			c.Email = u.Email
		}
		if withLoc {
			if l, ok := locs[id]; ok {
				c.Region = l.Region
				c.Commune = l.Commune
			}
		}
		return c
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{Order: o}
		if producerView {
			v.Consumer = contact(o.ConsumerID, true)
		}
		if consumerView {
			v.Producer = contact(o.ProducerID, false)
		}
		views = append(views, v)
	}
	return views, nil
}

// markPaid переход pending → paid; вызывается журналом платежей
// внутри его транзакции
func (s *OrderService) markPaid(ctx context.Context, o *domain.Order) error {
	o.Status = domain.OrderStatusPaid
	return s.orders.Update(ctx, o)
}
