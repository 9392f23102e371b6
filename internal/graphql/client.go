// Package graphql is the adapter over the remote commerce GraphQL API. Every
// cart, order, product and address operation in this service goes through it.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/machinebox/graphql"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/user"
)

// Runner executes a single GraphQL operation. Domain repositories depend on
// this instead of *Client so tests can swap the transport.
type Runner interface {
	Run(ctx context.Context, op, query string, vars map[string]any, resp any) error
}

// Client sends operations to the GraphQL endpoint with the caller's bearer token.
type Client struct {
	gql *graphql.Client
	log *logrus.Logger
}

func NewClient(endpoint string, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		gql: graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		log: log,
	}
}

// Run executes query and decodes the data object into resp. Guest traffic has
// no session token; the call still goes out and authorization is left to the
// server.
func (c *Client) Run(ctx context.Context, op, query string, vars map[string]any, resp any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	if tok, ok := user.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	} else {
		c.log.WithField("op", op).Debug("no session token, sending unauthenticated request")
	}

	if err := c.gql.Run(ctx, req, resp); err != nil {
		c.log.WithError(err).WithField("op", op).Error("graphql operation failed")
		return &RemoteError{Op: op, Err: err}
	}
	return nil
}

// RemoteError is a network or GraphQL failure of a remote operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRemote reports whether err came from the remote API.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Envelope is the {status, data, message} wrapper some queries return.
type Envelope[T any] struct {
	Status  any    `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}
