package cart

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront/internal/graphql"
)

// RemoteStore is the server cart API: read, add (create-or-merge), reduce by
// n, remove. Calls are not retried and local state is not rolled back on failure.
type RemoteStore interface {
	Cart(ctx context.Context) (*Cart, error)
	AddToCart(ctx context.Context, userID string, lines []Line, idempotencyKey string) (*Cart, error)
	ReduceCartItemQuantity(ctx context.Context, userID, productID string, n int) (*Cart, error)
	RemoveCartItem(ctx context.Context, userID, productID string) error
}

const cartFields = `
    id user_id sub_total discount tax total_price coupon_id is_active created_at updated_at
    products {
        product_id quantity price
        product { id name price stock image_id }
    }
`

var (
	cartQuery = `
        query Cart {
            cart { status message data { ` + cartFields + ` } }
        }
    `
	addToCartMutation = `
        mutation AddToCart($input: AddToCartInput!, $idempotency_key: String) {
            addToCart(input: $input, idempotency_key: $idempotency_key) { ` + cartFields + ` }
        }
    `
	reduceCartItemMutation = `
        mutation ReduceCartItemQuantity($user_id: ID!, $product_id: ID!, $quantity: Int!) {
            reduceCartItemQuantity(user_id: $user_id, product_id: $product_id, quantity: $quantity) { ` + cartFields + ` }
        }
    `
	removeCartItemMutation = `
        mutation RemoveCartItem($user_id: ID!, $product_id: ID!) {
            removeCartItem(user_id: $user_id, product_id: $product_id) { status message }
        }
    `
)

// GraphQLStore talks to the cart operations of the remote API.
type GraphQLStore struct {
	api graphql.Runner
}

func NewGraphQLStore(api graphql.Runner) *GraphQLStore {
	return &GraphQLStore{api: api}
}

func (s *GraphQLStore) Cart(ctx context.Context) (*Cart, error) {
	var resp struct {
		Cart graphql.Envelope[*Cart] `json:"cart"`
	}
	if err := s.api.Run(ctx, "cart", cartQuery, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Cart.Data == nil {
		return &Cart{Products: []ServerLine{}}, nil
	}
	return resp.Cart.Data, nil
}

func (s *GraphQLStore) AddToCart(ctx context.Context, userID string, lines []Line, idempotencyKey string) (*Cart, error) {
	vars := map[string]any{
		"input": map[string]any{"user_id": userID, "products": lines},
	}
	if idempotencyKey != "" {
		vars["idempotency_key"] = idempotencyKey
	}
	var resp struct {
		AddToCart *Cart `json:"addToCart"`
	}
	if err := s.api.Run(ctx, "addToCart", addToCartMutation, vars, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.AddToCart), nil
}

func (s *GraphQLStore) ReduceCartItemQuantity(ctx context.Context, userID, productID string, n int) (*Cart, error) {
	vars := map[string]any{"user_id": userID, "product_id": productID, "quantity": n}
	var resp struct {
		ReduceCartItemQuantity *Cart `json:"reduceCartItemQuantity"`
	}
	if err := s.api.Run(ctx, "reduceCartItemQuantity", reduceCartItemMutation, vars, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.ReduceCartItemQuantity), nil
}

func (s *GraphQLStore) RemoveCartItem(ctx context.Context, userID, productID string) error {
	vars := map[string]any{"user_id": userID, "product_id": productID}
	var resp struct {
		RemoveCartItem graphql.Envelope[any] `json:"removeCartItem"`
	}
	if err := s.api.Run(ctx, "removeCartItem", removeCartItemMutation, vars, &resp); err != nil {
		return err
	}
	if isFailureStatus(resp.RemoveCartItem.Status) {
		return &graphql.RemoteError{Op: "removeCartItem", Err: errors.New(resp.RemoveCartItem.Message)}
	}
	return nil
}

// isFailureStatus interprets the loosely typed status field: false, "error"
// or an HTTP-style code of 400 and above mean failure.
func isFailureStatus(status any) bool {
	switch v := status.(type) {
	case bool:
		return !v
	case float64:
		return v >= 400
	case string:
		return v == "error" || v == "failed" || v == "false"
	}
	return false
}

func orEmpty(c *Cart) *Cart {
	if c == nil {
		return &Cart{Products: []ServerLine{}}
	}
	return c
}

// remoteRepository binds the remote store to one signed-in user.
type remoteRepository struct {
	store  RemoteStore
	userID string
}

func (r *remoteRepository) Get(ctx context.Context) (*Cart, error) {
	return r.store.Cart(ctx)
}

func (r *remoteRepository) Add(ctx context.Context, lines ...Line) (*Cart, error) {
	adds, err := AddLines(nil, lines...)
	if err != nil {
		return nil, err
	}
	if len(adds) == 0 {
		return r.store.Cart(ctx)
	}
	return r.store.AddToCart(ctx, r.userID, adds, "")
}

func (r *remoteRepository) Reduce(ctx context.Context, productID string, n int) (*Cart, error) {
	if err := validate(productID, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return r.store.Cart(ctx)
	}
	return r.store.ReduceCartItemQuantity(ctx, r.userID, productID, n)
}

func (r *remoteRepository) Remove(ctx context.Context, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if err := r.store.RemoveCartItem(ctx, r.userID, productID); err != nil {
		return nil, err
	}
	return r.store.Cart(ctx)
}
