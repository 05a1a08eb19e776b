package repository

import (
	"context"
	"sync"
	"testing"

	"agrolink/internal/domain"
)

func TestDecrementStock_Conditional(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := NewMemoryProducts(store)

	p := domain.Product{Name: "Tomates", Price: 10, Stock: 5, ProducerID: "prod-1"}
	if err := products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := products.DecrementStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	// condition fails: no mutation at all
	if err := products.DecrementStock(ctx, p.ID, 3); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	got, _ := products.GetByID(ctx, p.ID)
	if got.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", got.Stock)
	}

	// round-trip: increment returns stock to the original value
	if err := products.IncrementStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, _ = products.GetByID(ctx, p.ID)
	if got.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", got.Stock)
	}
}

func TestDecrementStock_NeverNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := NewMemoryProducts(store)

	p := domain.Product{Name: "Miel", Price: 12, Stock: 10, ProducerID: "prod-1"}
	if err := products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = products.DecrementStock(ctx, p.ID, 1)
		}()
	}
	wg.Wait()

	got, _ := products.GetByID(ctx, p.ID)
	if got.Stock != 0 {
		t.Fatalf("expected stock drained to exactly 0, got %d", got.Stock)
	}
}

func TestUserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := NewMemoryUsers(store)

	a := domain.User{Name: "Ana", Email: "ana@agrolink.cl", Role: domain.RoleConsumer}
	if err := users.Create(ctx, &a); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := domain.User{Name: "Ana 2", Email: "ANA@agrolink.cl", Role: domain.RoleConsumer}
	if err := users.Create(ctx, &b); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	c := domain.User{Name: "Clara", Email: "clara@agrolink.cl", Role: domain.RoleConsumer}
	if err := users.Create(ctx, &c); err != nil {
		t.Fatalf("create: %v", err)
	}
	// update may not steal an existing email
	c.Email = "ana@agrolink.cl"
	if err := users.Update(ctx, &c); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
}

func TestPaymentConfirmedUniquePerOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	payments := NewMemoryPayments(store)

	first := domain.Payment{OrderID: "o-1", Amount: 35, Method: "transferencia", Status: domain.PaymentStatusConfirmed}
	if err := payments.Create(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := domain.Payment{OrderID: "o-1", Amount: 35, Method: "efectivo", Status: domain.PaymentStatusConfirmed}
	if err := payments.Create(ctx, &second); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	other := domain.Payment{OrderID: "o-2", Amount: 10, Method: "efectivo", Status: domain.PaymentStatusConfirmed}
	if err := payments.Create(ctx, &other); err != nil {
		t.Fatalf("create other order: %v", err)
	}
}

func TestRatingUniquePerOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ratings := NewMemoryRatings(store)

	r := domain.Rating{OrderID: "o-1", ProducerID: "p", ConsumerID: "c", Score: 5}
	if err := ratings.Create(ctx, &r); err != nil {
		t.Fatalf("create: %v", err)
	}
	again := domain.Rating{OrderID: "o-1", ProducerID: "p", ConsumerID: "c", Score: 1}
	if err := ratings.Create(ctx, &again); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLocationUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	locations := NewMemoryLocations(store)

	l := domain.Location{UserID: "u-1", Address: "Calle 1", Commune: "Osorno", Region: "Los Lagos"}
	if err := locations.Upsert(ctx, &l); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	firstID := l.ID

	l2 := domain.Location{UserID: "u-1", Address: "Calle 2", Commune: "Osorno", Region: "Los Lagos"}
	if err := locations.Upsert(ctx, &l2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if l2.ID != firstID {
		t.Fatalf("upsert must keep the document id: %s vs %s", l2.ID, firstID)
	}
	got, err := locations.GetByUserID(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != "Calle 2" {
		t.Fatalf("upsert not applied: %+v", got)
	}
}

func TestOrderListFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)

	for _, o := range []domain.Order{
		{ConsumerID: "c-1", ProducerID: "p-1", Status: domain.OrderStatusPending},
		{ConsumerID: "c-1", ProducerID: "p-2", Status: domain.OrderStatusPending},
		{ConsumerID: "c-2", ProducerID: "p-1", Status: domain.OrderStatusPending},
	} {
		cp := o
		if err := orders.Create(ctx, &cp); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byConsumer, _ := orders.List(ctx, OrderFilter{ConsumerID: "c-1"})
	if len(byConsumer) != 2 {
		t.Fatalf("expected 2 orders for c-1, got %d", len(byConsumer))
	}
	byProducer, _ := orders.List(ctx, OrderFilter{ProducerID: "p-1"})
	if len(byProducer) != 2 {
		t.Fatalf("expected 2 orders for p-1, got %d", len(byProducer))
	}
	all, _ := orders.List(ctx, OrderFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
}

func TestTransactionSkipsInnerLocks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := NewMemoryProducts(store)
	tx := NewMemoryTx(store)

	p := domain.Product{Name: "Nueces", Price: 20, Stock: 4, ProducerID: "prod-1"}
	if err := products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}

	// reads and writes inside the transaction must not deadlock
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := products.GetByID(ctx, p.ID); err != nil {
			return err
		}
		return products.DecrementStock(ctx, p.ID, 2)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	got, _ := products.GetByID(ctx, p.ID)
	if got.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", got.Stock)
	}
}
