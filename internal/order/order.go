package order

import (
	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront/internal/address"
)

// Status follows the fulfilment progression Placed, Packed, Shipped, Delivered,
// or Cancelled. Transitions are owned by the commerce API and not checked here.
type Status string

const (
	StatusPlaced    Status = "Placed"
	StatusPacked    Status = "Packed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Terminal reports whether no further progression is expected.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Line is a product snapshot at the time the order was placed.
type Line struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order represents a purchase made by a user.
type Order struct {
	ID            string           `json:"id"`
	Status        Status           `json:"order_status"`
	OrderDate     string           `json:"order_date"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	PaymentMethod string           `json:"payment_method"`
	OrderLines    []Line           `json:"orderLines"`
	Address       *address.Address `json:"address,omitempty"`
}

// Input is the createOrder mutation payload.
type Input struct {
	AddressID     string `json:"address_id"`
	CartID        string `json:"cart_id"`
	PaymentMethod string `json:"payment_method"`
}
