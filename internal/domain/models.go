package domain

import "time"

// Role роль пользователя в маркетплейсе
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
	RoleAdmin    Role = "admin"
)

// User учётная запись; Password хранит bcrypt-хеш и не сериализуется
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product товар, принадлежит ровно одному производителю
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int64     `json:"stock"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ProducerID  string    `json:"producerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Location адрес пользователя, один-к-одному с User
type Location struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Address   string    `json:"address"`
	Commune   string    `json:"commune"`
	Region    string    `json:"region"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem позиция заказа: снимок name/price на момент создания,
// последующие правки товара его не меняют
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
}

// Order сущность заказа; после создания мутирует только Status
type Order struct {
	ID         string      `json:"id"`
	ConsumerID string      `json:"consumerId"`
	ProducerID string      `json:"producerId"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// PaymentStatus статус платежа
type PaymentStatus string

const PaymentStatusConfirmed PaymentStatus = "confirmed"

// Payment подтверждение оплаты; не более одного confirmed на заказ
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"orderId"`
	Amount    float64       `json:"amount"`
	Method    string        `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Rating оценка доставленного заказа, ровно одна на заказ
type Rating struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	ProducerID string    `json:"producerId"`
	ConsumerID string    `json:"consumerId"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
