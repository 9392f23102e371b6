package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/storefront/internal/pricing"
	"github.com/wichananm65/storefront/internal/product"
)

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrNoOwner         = errors.New("cart has no owner")
)

// Line is one product-and-quantity entry. It is the whole guest cart record
// and the request shape of the addToCart mutation.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ServerLine is a line of a persisted cart with the product snapshot and the
// line price the server computed.
type ServerLine struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Product   *product.Product `json:"product,omitempty"`
}

// Cart is the server-side cart of one user.
type Cart struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Products   []ServerLine    `json:"products"`
	SubTotal   decimal.Decimal `json:"sub_total"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CouponID   *string         `json:"coupon_id"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// Lines returns the product/quantity pairs of the cart.
func (c *Cart) Lines() []Line {
	if c == nil {
		return []Line{}
	}
	out := make([]Line, 0, len(c.Products))
	for _, p := range c.Products {
		out = append(out, Line{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return out
}

// Owner identifies whose cart a request targets. A request is authenticated
// when UserID is set; GuestID names the guest store entry either way.
type Owner struct {
	UserID  string
	GuestID string
}

func (o Owner) Authenticated() bool { return o.UserID != "" }

// Item is a line hydrated with product details and a display image.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock"`
}

// View is the resolved cart handed to the storefront: hydrated items plus
// totals derived from exactly those items.
type View struct {
	CartID string         `json:"cart_id,omitempty"`
	Guest  bool           `json:"guest"`
	Items  []Item         `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

func pricedLines(items []Item) []pricing.Line {
	out := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return out
}
