package cart

import (
	"context"
	"io"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/pricing"
	"github.com/wichananm65/storefront/internal/product"
)

// fakeRemote is a single-user server cart.
type fakeRemote struct {
	mu       sync.Mutex
	lines    []Line
	addCalls int
	keys     []string
	err      error
}

func (f *fakeRemote) cart() *Cart {
	c := &Cart{ID: "cart-1", UserID: "u1", Products: []ServerLine{}, IsActive: true}
	for _, l := range f.lines {
		c.Products = append(c.Products, ServerLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return c
}

func (f *fakeRemote) Cart(ctx context.Context) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.cart(), nil
}

func (f *fakeRemote) AddToCart(ctx context.Context, userID string, lines []Line, key string) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.addCalls++
	f.keys = append(f.keys, key)
	next, err := AddLines(f.lines, lines...)
	if err != nil {
		return nil, err
	}
	f.lines = next
	return f.cart(), nil
}

func (f *fakeRemote) ReduceCartItemQuantity(ctx context.Context, userID, productID string, n int) (*Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	next, err := ReduceLine(f.lines, productID, n)
	if err != nil {
		return nil, err
	}
	f.lines = next
	return f.cart(), nil
}

func (f *fakeRemote) RemoveCartItem(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	next, err := RemoveLine(f.lines, productID)
	if err != nil {
		return err
	}
	f.lines = next
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCatalog() *product.InMemoryCatalog {
	return product.NewInMemoryCatalog([]product.Product{
		{ID: "p1", Name: "Cat Sweater", Price: decimal.RequireFromString("10.00"), Stock: 5, ImageID: "img-1"},
		{ID: "p2", Name: "Dog Bowl", Price: decimal.RequireFromString("5.50"), Stock: 9},
	}, map[string]string{"img-1": "https://cdn.example/img-1.png"})
}

func newTestService(guests GuestStore, remote RemoteStore) *Service {
	log := quietLogger()
	h := NewHydrator(testCatalog(), "/static/placeholder.png", 4, log)
	calc := pricing.NewCalculator(decimal.RequireFromString("0.13"), decimal.Zero)
	return NewService(guests, remote, h, calc, idempotency.NewMemoryStore(), log)
}
