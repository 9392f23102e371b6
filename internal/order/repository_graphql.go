package order

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront/internal/graphql"
)

const orderFields = `
    id order_status order_date total_amount payment_method
    orderLines { product_id quantity price }
    address { id userId name street apartment city province postalCode country phone isDefault }
`

var (
	createOrderMutation = `
        mutation CreateOrder($input: CreateOrderInput!, $idempotency_key: String) {
            createOrder(input: $input, idempotency_key: $idempotency_key) { ` + orderFields + ` }
        }
    `
	ordersQuery = `
        query Orders {
            orders { data { ` + orderFields + ` } }
        }
    `
	orderQuery = `
        query Order($id: ID!) {
            order(id: $id) { ` + orderFields + ` }
        }
    `
)

type GraphQLRepository struct {
	api graphql.Runner
}

func NewGraphQLRepository(api graphql.Runner) *GraphQLRepository {
	return &GraphQLRepository{api: api}
}

func (r *GraphQLRepository) Create(ctx context.Context, in Input, idempotencyKey string) (Order, error) {
	vars := map[string]any{"input": in}
	if idempotencyKey != "" {
		vars["idempotency_key"] = idempotencyKey
	}
	var resp struct {
		CreateOrder *Order `json:"createOrder"`
	}
	if err := r.api.Run(ctx, "createOrder", createOrderMutation, vars, &resp); err != nil {
		return Order{}, err
	}
	if resp.CreateOrder == nil {
		return Order{}, &graphql.RemoteError{Op: "createOrder", Err: errors.New("empty createOrder response")}
	}
	return *resp.CreateOrder, nil
}

func (r *GraphQLRepository) List(ctx context.Context) ([]Order, error) {
	var resp struct {
		Orders struct {
			Data []Order `json:"data"`
		} `json:"orders"`
	}
	if err := r.api.Run(ctx, "orders", ordersQuery, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Orders.Data == nil {
		return []Order{}, nil
	}
	return resp.Orders.Data, nil
}

func (r *GraphQLRepository) Get(ctx context.Context, id string) (Order, error) {
	var resp struct {
		Order *Order `json:"order"`
	}
	if err := r.api.Run(ctx, "order", orderQuery, map[string]any{"id": id}, &resp); err != nil {
		return Order{}, err
	}
	if resp.Order == nil {
		return Order{}, ErrNotFound
	}
	return *resp.Order, nil
}
