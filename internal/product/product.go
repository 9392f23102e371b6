package product

import "github.com/shopspring/decimal"

// Product is the catalog snapshot embedded into hydrated cart lines.
// JSON tags follow the snake_case used by the GraphQL API.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageID     string          `json:"image_id,omitempty"`
	BrandID     string          `json:"brand_id,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
}

// Attachment is a stored file (product image) resolved by id.
type Attachment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
