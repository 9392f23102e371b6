package product

import (
	"context"

	"github.com/wichananm65/storefront/internal/graphql"
)

const (
	productQuery = `
        query Product($id: ID!) {
            product(id: $id) {
                id name slug description price stock image_id brand_id category_id
            }
        }
    `
	attachmentQuery = `
        query Attachment($id: ID!) {
            attachment(id: $id) { id url }
        }
    `
)

// GraphQLCatalog reads products and attachments from the remote API.
type GraphQLCatalog struct {
	api graphql.Runner
}

func NewGraphQLCatalog(api graphql.Runner) *GraphQLCatalog {
	return &GraphQLCatalog{api: api}
}

func (r *GraphQLCatalog) Product(ctx context.Context, id string) (Product, error) {
	var resp struct {
		Product *Product `json:"product"`
	}
	if err := r.api.Run(ctx, "product", productQuery, map[string]any{"id": id}, &resp); err != nil {
		return Product{}, err
	}
	if resp.Product == nil {
		return Product{}, ErrNotFound
	}
	return *resp.Product, nil
}

func (r *GraphQLCatalog) ImageURL(ctx context.Context, attachmentID string) (string, error) {
	if attachmentID == "" {
		return "", ErrNotFound
	}
	var resp struct {
		Attachment *Attachment `json:"attachment"`
	}
	if err := r.api.Run(ctx, "attachment", attachmentQuery, map[string]any{"id": attachmentID}, &resp); err != nil {
		return "", err
	}
	if resp.Attachment == nil || resp.Attachment.URL == "" {
		return "", ErrNotFound
	}
	return resp.Attachment.URL, nil
}
