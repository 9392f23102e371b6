package product

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("product not found")
)

// Catalog resolves product details and image URLs for cart hydration.
type Catalog interface {
	Product(ctx context.Context, id string) (Product, error)
	ImageURL(ctx context.Context, attachmentID string) (string, error)
}

// InMemoryCatalog is a simple in-memory implementation useful for tests and
// local scenarios.
type InMemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
	images   map[string]string
}

func NewInMemoryCatalog(seed []Product, images map[string]string) *InMemoryCatalog {
	c := &InMemoryCatalog{
		products: make(map[string]Product, len(seed)),
		images:   make(map[string]string, len(images)),
	}
	for _, p := range seed {
		c.products[p.ID] = p
	}
	for id, url := range images {
		c.images[id] = url
	}
	return c
}

func (c *InMemoryCatalog) Product(ctx context.Context, id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (c *InMemoryCatalog) ImageURL(ctx context.Context, attachmentID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.images[attachmentID]
	if !ok {
		return "", ErrNotFound
	}
	return url, nil
}

// Put adds or replaces a product.
func (c *InMemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}
