package graphql

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/storefront/internal/user"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func TestClient_ForwardsTokenAndDecodes(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"product":{"id":"p1","name":"Bowl"}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), quietLogger())
	var resp struct {
		Product struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"product"`
	}
	ctx := user.WithToken(context.Background(), "tok-1")
	err := c.Run(ctx, "product", `query($id: ID!) { product(id: $id) { id name } }`, map[string]any{"id": "p1"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "Bowl", resp.Product.Name)
	vars, _ := gotBody["variables"].(map[string]any)
	assert.Equal(t, "p1", vars["id"])
}

func TestClient_NoTokenStillCalls(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), quietLogger())
	var resp map[string]any
	require.NoError(t, c.Run(context.Background(), "cart", `{ cart { status } }`, nil, &resp))
	assert.True(t, called)
}

func TestClient_AnonymousCallsStayQuiet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	}))
	defer srv.Close()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.InfoLevel)
	c := NewClient(srv.URL, srv.Client(), log)
	for i := 0; i < 3; i++ {
		var resp map[string]any
		require.NoError(t, c.Run(context.Background(), "product", `{ product { id } }`, nil, &resp))
	}
	assert.Empty(t, hook.AllEntries())
}

func TestClient_GraphQLErrorIsRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null,"errors":[{"message":"cart not found"}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), quietLogger())
	var resp map[string]any
	err := c.Run(context.Background(), "cart", `{ cart { status } }`, nil, &resp)
	require.Error(t, err)
	assert.True(t, IsRemote(err))
	assert.Contains(t, err.Error(), "cart not found")
	assert.Contains(t, err.Error(), "remote cart")
}
