package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agrolink/internal/domain"
)

// MemoryStore объединённое in-memory хранилище документов.
// Каждая операция — атомарное обновление одного документа; составные
// сценарии (резервирование запаса + создание заказа) идут через MemoryTx.
type MemoryStore struct {
	mu                sync.RWMutex
	usersByID         map[string]domain.User
	productsByID      map[string]domain.Product
	locationsByUserID map[string]domain.Location
	ordersByID        map[string]domain.Order
	paymentsByID      map[string]domain.Payment
	ratingsByOrderID  map[string]domain.Rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByID:         make(map[string]domain.User),
		productsByID:      make(map[string]domain.Product),
		locationsByUserID: make(map[string]domain.Location),
		ordersByID:        make(map[string]domain.Order),
		paymentsByID:      make(map[string]domain.Payment),
		ratingsByOrderID:  make(map[string]domain.Rating),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

func newID() string { return uuid.NewString() }

// Ensure interfaces
var (
	_ UserRepository     = (*MemoryUsers)(nil)
	_ ProductRepository  = (*MemoryProducts)(nil)
	_ LocationRepository = (*MemoryLocations)(nil)
	_ OrderRepository    = (*MemoryOrders)(nil)
	_ PaymentRepository  = (*MemoryPayments)(nil)
	_ RatingRepository   = (*MemoryRatings)(nil)
	_ TxManager          = (*MemoryTx)(nil)
)

// MemoryUsers реализация UserRepository поверх MemoryStore
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	for _, existing := range mu.store.usersByID {
		if equalFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.ID = newID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	mu.store.usersByID[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	for _, u := range mu.store.usersByID {
		if equalFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	if _, ok := mu.store.usersByID[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range mu.store.usersByID {
		if id != u.ID && equalFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now().UTC()
	mu.store.usersByID[u.ID] = *u
	return nil
}

func (mu *MemoryUsers) ListByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	out := make(map[string]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := mu.store.usersByID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// MemoryProducts реализация ProductRepository поверх MemoryStore
type MemoryProducts struct{ store *MemoryStore }

func NewMemoryProducts(store *MemoryStore) *MemoryProducts { return &MemoryProducts{store: store} }

func (mp *MemoryProducts) Create(ctx context.Context, p *domain.Product) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p.ID = newID()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	mp.store.productsByID[p.ID] = *p
	return nil
}

func (mp *MemoryProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	p, ok := mp.store.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (mp *MemoryProducts) Update(ctx context.Context, p *domain.Product) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	old, ok := mp.store.productsByID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	mp.store.productsByID[p.ID] = *p
	return nil
}

func (mp *MemoryProducts) Delete(ctx context.Context, id string) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if _, ok := mp.store.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(mp.store.productsByID, id)
	return nil
}

func (mp *MemoryProducts) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := make([]domain.Product, 0)
	for _, p := range mp.store.productsByID {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.ProducerID != "" && p.ProducerID != f.ProducerID {
			continue
		}
		out = append(out, p)
	}
	// newest first, id as tie-breaker for stable output
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (mp *MemoryProducts) Categories(ctx context.Context) ([]string, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	seen := make(map[string]struct{})
	for _, p := range mp.store.productsByID {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (mp *MemoryProducts) DecrementStock(ctx context.Context, id string, qty int64) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p, ok := mp.store.productsByID[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	mp.store.productsByID[id] = p
	return nil
}

func (mp *MemoryProducts) IncrementStock(ctx context.Context, id string, qty int64) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	p, ok := mp.store.productsByID[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	mp.store.productsByID[id] = p
	return nil
}

// MemoryLocations реализация LocationRepository поверх MemoryStore
type MemoryLocations struct{ store *MemoryStore }

func NewMemoryLocations(store *MemoryStore) *MemoryLocations { return &MemoryLocations{store: store} }

func (ml *MemoryLocations) Upsert(ctx context.Context, l *domain.Location) error {
	ml.store.wlock(ctx)
	defer ml.store.wunlock(ctx)
	now := time.Now().UTC()
	if existing, ok := ml.store.locationsByUserID[l.UserID]; ok {
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
	} else {
		l.ID = newID()
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	ml.store.locationsByUserID[l.UserID] = *l
	return nil
}

func (ml *MemoryLocations) GetByUserID(ctx context.Context, userID string) (*domain.Location, error) {
	ml.store.rlock(ctx)
	defer ml.store.runlock(ctx)
	l, ok := ml.store.locationsByUserID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := l
	return &cp, nil
}

func (ml *MemoryLocations) DeleteByUserID(ctx context.Context, userID string) error {
	ml.store.wlock(ctx)
	defer ml.store.wunlock(ctx)
	delete(ml.store.locationsByUserID, userID)
	return nil
}

func (ml *MemoryLocations) ListByUserIDs(ctx context.Context, ids []string) (map[string]domain.Location, error) {
	ml.store.rlock(ctx)
	defer ml.store.runlock(ctx)
	out := make(map[string]domain.Location, len(ids))
	for _, id := range ids {
		if l, ok := ml.store.locationsByUserID[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

// MemoryOrders реализация OrderRepository поверх MemoryStore
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	o.ID = newID()
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	mo.store.ordersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	mo.store.ordersByID[o.ID] = *o
	return nil
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.ordersByID {
		if f.ConsumerID != "" && o.ConsumerID != f.ConsumerID {
			continue
		}
		if f.ProducerID != "" && o.ProducerID != f.ProducerID {
			continue
		}
		cp := o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MemoryPayments реализация PaymentRepository поверх MemoryStore.
// Уникальность confirmed-платежа на заказ проверяется под блокировкой
// хранилища — это авторитетный сигнал дубликата, а не pre-check сервиса.
type MemoryPayments struct{ store *MemoryStore }

func NewMemoryPayments(store *MemoryStore) *MemoryPayments { return &MemoryPayments{store: store} }

func (mp *MemoryPayments) Create(ctx context.Context, p *domain.Payment) error {
	mp.store.wlock(ctx)
	defer mp.store.wunlock(ctx)
	if p.Status == domain.PaymentStatusConfirmed {
		for _, existing := range mp.store.paymentsByID {
			if existing.OrderID == p.OrderID && existing.Status == domain.PaymentStatusConfirmed {
				return ErrDuplicate
			}
		}
	}
	p.ID = newID()
	p.CreatedAt = time.Now().UTC()
	mp.store.paymentsByID[p.ID] = *p
	return nil
}

func (mp *MemoryPayments) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	mp.store.rlock(ctx)
	defer mp.store.runlock(ctx)
	out := make([]domain.Payment, 0)
	for _, p := range mp.store.paymentsByID {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryRatings реализация RatingRepository поверх MemoryStore.
// Ключ по orderId даёт уникальность оценки на уровне хранилища.
type MemoryRatings struct{ store *MemoryStore }

func NewMemoryRatings(store *MemoryStore) *MemoryRatings { return &MemoryRatings{store: store} }

func (mr *MemoryRatings) Create(ctx context.Context, r *domain.Rating) error {
	mr.store.wlock(ctx)
	defer mr.store.wunlock(ctx)
	if _, ok := mr.store.ratingsByOrderID[r.OrderID]; ok {
		return ErrDuplicate
	}
	r.ID = newID()
	r.CreatedAt = time.Now().UTC()
	mr.store.ratingsByOrderID[r.OrderID] = *r
	return nil
}

func (mr *MemoryRatings) GetByOrder(ctx context.Context, orderID string) (*domain.Rating, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	r, ok := mr.store.ratingsByOrderID[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r
	return &cp, nil
}

func (mr *MemoryRatings) ListByProducer(ctx context.Context, producerID string) ([]domain.Rating, error) {
	mr.store.rlock(ctx)
	defer mr.store.runlock(ctx)
	out := make([]domain.Rating, 0)
	for _, r := range mr.store.ratingsByOrderID {
		if r.ProducerID == producerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryTx транзакция через блокировку записи хранилища
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Для in-memory используем блокировку записи и помечаем контекст,
	// чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
