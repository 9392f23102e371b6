package user

import "context"

// Identity is the authenticated principal as asserted by the identity provider's token.
type Identity struct {
	ID            string `json:"userId"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

type tokenKey struct{}

// WithToken stores the raw bearer token in ctx so remote calls can forward it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token of the current session, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}
