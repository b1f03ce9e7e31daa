package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// Role returns the user's effective role, defaulting to buyer when the store
// carries no user_type.
func (u User) Role() string {
	if u.UserType == "" {
		return RoleBuyer
	}
	return u.UserType
}

func (u User) IsSeller() bool {
	return u.UserType == RoleSeller
}

type Product struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"documentId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	SellerID    string          `json:"sellerId"`
	SellerName  string          `json:"sellerName,omitempty"`
}

// CartItem is a product snapshot plus the buyer's chosen size and quantity.
type CartItem struct {
	Product      Product `json:"product"`
	SelectedSize string  `json:"selectedSize,omitempty"`
	Quantity     int     `json:"quantity"`
}

// OrderItem is a frozen copy of a cart item taken at checkout. Later product
// edits do not retroactively alter it.
type OrderItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl"`
	Quantity     int             `json:"quantity"`
	SelectedSize string          `json:"selectedSize"`
}

type Order struct {
	ID              string            `json:"id"`
	DocumentID      string            `json:"documentId"`
	OrderNumber     string            `json:"orderNumber,omitempty"`
	UserID          string            `json:"userId"`
	SellerID        string            `json:"sellerId"`
	Items           []OrderItem       `json:"items"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Status          string            `json:"status"`
	PaymentMethod   string            `json:"paymentMethod"`
	ShippingAddress map[string]string `json:"shippingAddress,omitempty"`
	Date            string            `json:"date,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type Notification struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"documentId"`
	UserID         string    `json:"userId"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	Read           bool      `json:"read"`
	RelatedOrderID string    `json:"relatedOrderId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Order fulfillment states. An order starts as paid at checkout and only ever
// advances: paid -> accepted -> delivered.
const (
	OrderStatusPaid      = "paid"
	OrderStatusAccepted  = "accepted"
	OrderStatusDelivered = "delivered"
)

const NotificationTypeOrderStatus = "order_status"
