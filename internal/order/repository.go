package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("order not found")
)

// Repository is the order side of the commerce API.
type Repository interface {
	Create(ctx context.Context, in Input, idempotencyKey string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
}

// InMemoryRepository for tests. It counts Create calls so duplicate-order
// behaviour can be asserted.
type InMemoryRepository struct {
	mu      sync.Mutex
	orders  []Order
	Creates int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(ctx context.Context, in Input, idempotencyKey string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Creates++
	ord := Order{
		ID:            fmt.Sprintf("ord-%d", len(r.orders)+1),
		Status:        StatusPlaced,
		OrderDate:     time.Now().UTC().Format(time.RFC3339),
		PaymentMethod: in.PaymentMethod,
		OrderLines:    []Line{},
	}
	r.orders = append(r.orders, ord)
	return ord, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Order{}, r.orders...), nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}
