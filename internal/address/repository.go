package address

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("address not found")
)

// Repository lists the addresses of the user the request is authenticated as.
type Repository interface {
	GetAddresses(ctx context.Context) ([]Address, error)
}

// InMemoryRepository for tests
type InMemoryRepository struct {
	mu   sync.RWMutex
	data []Address
}

func NewInMemoryRepository(seed []Address) *InMemoryRepository {
	return &InMemoryRepository{data: append([]Address(nil), seed...)}
}

func (r *InMemoryRepository) GetAddresses(ctx context.Context) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Address{}, r.data...), nil
}
