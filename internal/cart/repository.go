package cart

import (
	"context"
	"sync"
)

// Repository is the cart of one owner. The guest and remote backends both
// satisfy it; Service picks one per request from the authentication state.
type Repository interface {
	Get(ctx context.Context) (*Cart, error)
	Add(ctx context.Context, lines ...Line) (*Cart, error)
	Reduce(ctx context.Context, productID string, n int) (*Cart, error)
	Remove(ctx context.Context, productID string) (*Cart, error)
}

// GuestStore holds one JSON list of lines per guest. There is no schema
// version; readers normalize what they load.
//
// Every Save of a non-empty list bumps the guest's revision and Clear keeps
// it, so two guest cart states with identical lines still differ by revision.
type GuestStore interface {
	Load(ctx context.Context, guestID string) ([]Line, error)
	Snapshot(ctx context.Context, guestID string) ([]Line, int64, error)
	Save(ctx context.Context, guestID string, lines []Line) error
	Clear(ctx context.Context, guestIDs ...string) error
}

// MemoryGuestStore is used for tests and local scenarios.
type MemoryGuestStore struct {
	mu    sync.RWMutex
	carts map[string][]Line
	revs  map[string]int64
}

func NewMemoryGuestStore(seed map[string][]Line) *MemoryGuestStore {
	s := &MemoryGuestStore{
		carts: make(map[string][]Line, len(seed)),
		revs:  make(map[string]int64, len(seed)),
	}
	for id, lines := range seed {
		s.carts[id] = cloneLines(lines)
		s.revs[id] = 1
	}
	return s
}

func (s *MemoryGuestStore) Load(ctx context.Context, guestID string) ([]Line, error) {
	lines, _, err := s.Snapshot(ctx, guestID)
	return lines, err
}

func (s *MemoryGuestStore) Snapshot(ctx context.Context, guestID string) ([]Line, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Normalize(s.carts[guestID]), s.revs[guestID], nil
}

func (s *MemoryGuestStore) Save(ctx context.Context, guestID string, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(lines) == 0 {
		delete(s.carts, guestID)
		return nil
	}
	s.carts[guestID] = cloneLines(lines)
	s.revs[guestID]++
	return nil
}

func (s *MemoryGuestStore) Clear(ctx context.Context, guestIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range guestIDs {
		delete(s.carts, id)
	}
	return nil
}

// guestRepository applies line operations with read-modify-write over the
// guest store. Concurrent writers to the same guest id race; last write wins.
type guestRepository struct {
	store   GuestStore
	guestID string
}

func (r *guestRepository) Get(ctx context.Context) (*Cart, error) {
	lines, err := r.store.Load(ctx, r.guestID)
	if err != nil {
		return nil, err
	}
	return guestCart(lines), nil
}

func (r *guestRepository) Add(ctx context.Context, adds ...Line) (*Cart, error) {
	return r.mutate(ctx, func(lines []Line) ([]Line, error) { return AddLines(lines, adds...) })
}

func (r *guestRepository) Reduce(ctx context.Context, productID string, n int) (*Cart, error) {
	return r.mutate(ctx, func(lines []Line) ([]Line, error) { return ReduceLine(lines, productID, n) })
}

func (r *guestRepository) Remove(ctx context.Context, productID string) (*Cart, error) {
	return r.mutate(ctx, func(lines []Line) ([]Line, error) { return RemoveLine(lines, productID) })
}

func (r *guestRepository) mutate(ctx context.Context, fn func([]Line) ([]Line, error)) (*Cart, error) {
	lines, err := r.store.Load(ctx, r.guestID)
	if err != nil {
		return nil, err
	}
	next, err := fn(lines)
	if err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, r.guestID, next); err != nil {
		return nil, err
	}
	return guestCart(next), nil
}

func guestCart(lines []Line) *Cart {
	c := &Cart{Products: make([]ServerLine, 0, len(lines)), IsActive: true}
	for _, l := range lines {
		c.Products = append(c.Products, ServerLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return c
}
