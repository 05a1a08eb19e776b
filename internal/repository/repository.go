package repository

import (
	"context"
	"errors"
	"strings"

	"agrolink/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrDuplicate возвращается при нарушении уникальности на уровне хранилища
// (email пользователя, confirmed-платёж и рейтинг по одному заказу)
var ErrDuplicate = errors.New("duplicate")

// ErrInsufficientStock возвращает условный декремент, когда запаса не хватает
var ErrInsufficientStock = errors.New("insufficient stock")

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// ListByIDs батч-выборка для обогащения списков заказов
	ListByIDs(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// ProductFilter параметры фильтрации каталога
type ProductFilter struct {
	Category   string
	ProducerID string
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// DecrementStock атомарный условный декремент: уменьшает запас на qty
	// только если stock >= qty, иначе ErrInsufficientStock без мутации
	DecrementStock(ctx context.Context, id string, qty int64) error
	// IncrementStock восстанавливает запас (компенсация отмены)
	IncrementStock(ctx context.Context, id string, qty int64) error
}

// LocationRepository интерфейс репозитория адресов (один на пользователя)
type LocationRepository interface {
	Upsert(ctx context.Context, l *domain.Location) error
	GetByUserID(ctx context.Context, userID string) (*domain.Location, error)
	DeleteByUserID(ctx context.Context, userID string) error
	ListByUserIDs(ctx context.Context, ids []string) (map[string]domain.Location, error)
}

// OrderFilter параметры выборки заказов; пустой фильтр — все заказы
type OrderFilter struct {
	ConsumerID string
	ProducerID string
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

// PaymentRepository интерфейс журнала платежей.
// Create возвращает ErrDuplicate, если для заказа уже есть confirmed-платёж.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
}

// RatingRepository интерфейс репозитория оценок.
// Create возвращает ErrDuplicate при повторной оценке того же заказа.
type RatingRepository interface {
	Create(ctx context.Context, r *domain.Rating) error
	GetByOrder(ctx context.Context, orderID string) (*domain.Rating, error)
	ListByProducer(ctx context.Context, producerID string) ([]domain.Rating, error)
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive equality for emails
func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
