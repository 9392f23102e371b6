// Package payment creates payment intents through the commerce API and tracks
// their settlement as reported by the gateway webhook.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/wichananm65/storefront/internal/graphql"
)

// Intent is what the storefront needs to collect a payment with the gateway SDK.
type Intent struct {
	ID             string `json:"id"`
	ClientSecret   string `json:"clientSecret"`
	DpmCheckerLink string `json:"dpmCheckerLink"`
}

// Error is a payment the gateway declined or could not confirm. It is shown to
// the shopper on the review step as is.
type Error struct {
	IntentID string
	Message  string
}

func (e *Error) Error() string {
	if e.IntentID == "" {
		return "payment: " + e.Message
	}
	return fmt.Sprintf("payment %s: %s", e.IntentID, e.Message)
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, cartID string) (Intent, error)
}

const createPaymentIntentMutation = `
    mutation CreatePaymentIntent($items: [PaymentIntentItemInput!]!) {
        createPaymentIntent(items: $items) { clientSecret dpmCheckerLink }
    }
`

// GraphQLGateway asks the commerce API to open an intent for a cart.
type GraphQLGateway struct {
	api graphql.Runner
}

func NewGraphQLGateway(api graphql.Runner) *GraphQLGateway {
	return &GraphQLGateway{api: api}
}

func (g *GraphQLGateway) CreatePaymentIntent(ctx context.Context, cartID string) (Intent, error) {
	vars := map[string]any{"items": []map[string]string{{"cart_id": cartID}}}
	var resp struct {
		CreatePaymentIntent *Intent `json:"createPaymentIntent"`
	}
	if err := g.api.Run(ctx, "createPaymentIntent", createPaymentIntentMutation, vars, &resp); err != nil {
		return Intent{}, err
	}
	if resp.CreatePaymentIntent == nil || resp.CreatePaymentIntent.ClientSecret == "" {
		return Intent{}, &graphql.RemoteError{Op: "createPaymentIntent", Err: fmt.Errorf("no client secret for cart %s", cartID)}
	}
	in := *resp.CreatePaymentIntent
	if in.ID == "" {
		in.ID = IntentIDFromSecret(in.ClientSecret)
	}
	return in, nil
}

// IntentIDFromSecret recovers the intent id from a client secret of the form
// "pi_123_secret_abc".
func IntentIDFromSecret(secret string) string {
	if i := strings.Index(secret, "_secret_"); i > 0 {
		return secret[:i]
	}
	return ""
}
