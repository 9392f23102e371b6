package address

import (
	"context"

	"github.com/wichananm65/storefront/internal/graphql"
)

const addressesQuery = `
    query Addresses {
        addresses {
            data {
                id userId name street apartment city province postalCode country phone isDefault
            }
        }
    }
`

type GraphQLRepository struct {
	api graphql.Runner
}

func NewGraphQLRepository(api graphql.Runner) *GraphQLRepository {
	return &GraphQLRepository{api: api}
}

func (r *GraphQLRepository) GetAddresses(ctx context.Context) ([]Address, error) {
	var resp struct {
		Addresses struct {
			Data []Address `json:"data"`
		} `json:"addresses"`
	}
	if err := r.api.Run(ctx, "addresses", addressesQuery, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Addresses.Data == nil {
		return []Address{}, nil
	}
	return resp.Addresses.Data, nil
}
