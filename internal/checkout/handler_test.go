package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/address"
	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
)

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, cartID string) (payment.Intent, error) {
	g.calls++
	if g.err != nil {
		return payment.Intent{}, g.err
	}
	return payment.Intent{ID: "pi_" + cartID, ClientSecret: "pi_" + cartID + "_secret_x"}, nil
}

type fixture struct {
	app     *fiber.App
	gateway *fakeGateway
	orders  *order.InMemoryRepository
}

func newFixture(addrs []address.Address) *fixture {
	return newSettlingFixture(addrs, nil)
}

func newSettlingFixture(addrs []address.Address, settlements order.Settlement) *fixture {
	log := logrus.New()
	log.SetOutput(io.Discard)
	gw := &fakeGateway{}
	repo := order.NewInMemoryRepository()
	creator := order.NewCreator(repo, settlements, idempotency.NewMemoryStore(), log)
	svc := NewService(NewMemorySessionStore(), address.NewService(address.NewInMemoryRepository(addrs)), gw, creator, log)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": v}})
		}
		return c.Next()
	})
	NewHandler(svc, "/cart").RegisterProtectedRoutes(app)
	return &fixture{app: app, gateway: gw, orders: repo}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", "u1")
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out := map[string]any{}
	b, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(b, &out)
	return res, out
}

func TestCheckout_AddressGuard(t *testing.T) {
	f := newFixture(nil)
	res, body := f.do(t, "POST", "/api/v1/checkout", `{"cart_id":"c1"}`)
	if res.StatusCode != fiber.StatusOK || body["step"] != "checkout" {
		t.Fatalf("unexpected start %d %v", res.StatusCode, body)
	}

	res, body = f.do(t, "POST", "/api/v1/checkout/continue", "")
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without address, got %d", res.StatusCode)
	}
	if f.gateway.calls != 0 {
		t.Fatalf("no intent should be created without an address")
	}
	_, body = f.do(t, "GET", "/api/v1/checkout", "")
	if body["step"] != "checkout" {
		t.Fatalf("step must not change, got %v", body["step"])
	}
}

func TestCheckout_FullFlow(t *testing.T) {
	f := newFixture([]address.Address{{ID: "a1"}, {ID: "a2", IsDefault: true}})

	_, body := f.do(t, "POST", "/api/v1/checkout", `{"cart_id":"c1"}`)
	if body["selected_address_id"] != "a2" {
		t.Fatalf("expected default address preselected, got %v", body)
	}

	res, _ := f.do(t, "PUT", "/api/v1/checkout/address", `{"address_id":"zzz"}`)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a foreign address, got %d", res.StatusCode)
	}
	_, body = f.do(t, "PUT", "/api/v1/checkout/address", `{"address_id":"a1"}`)
	if body["selected_address_id"] != "a1" {
		t.Fatalf("address not selected: %v", body)
	}

	_, body = f.do(t, "POST", "/api/v1/checkout/continue", "")
	if body["step"] != "review" || body["client_secret"] != "pi_c1_secret_x" {
		t.Fatalf("expected review with intent, got %v", body)
	}

	_, body = f.do(t, "POST", "/api/v1/checkout/back", "")
	if body["step"] != "checkout" {
		t.Fatalf("expected back to checkout, got %v", body)
	}
	f.do(t, "POST", "/api/v1/checkout/continue", "")

	res, body = f.do(t, "POST", "/api/v1/checkout/payment", `{"error":"Your card was declined."}`)
	if res.StatusCode != fiber.StatusPaymentRequired || body["message"] != "Your card was declined." {
		t.Fatalf("expected 402 with gateway message, got %d %v", res.StatusCode, body)
	}
	_, body = f.do(t, "GET", "/api/v1/checkout", "")
	if body["step"] != "review" || body["payment_error"] != "Your card was declined." {
		t.Fatalf("expected to stay on review, got %v", body)
	}

	_, body = f.do(t, "POST", "/api/v1/checkout/payment", `{"payment_intent_id":"pi_c1"}`)
	if body["step"] != "confirmation" {
		t.Fatalf("expected confirmation, got %v", body)
	}

	res, body = f.do(t, "GET", "/api/v1/checkout/confirmation?cart_id=c1&address_id=a1&payment_intent=pi_c1", "")
	if res.StatusCode != fiber.StatusOK || body["step"] != "confirmation" {
		t.Fatalf("expected order confirmation, got %d %v", res.StatusCode, body)
	}
	// refreshing the page replays the same order
	f.do(t, "GET", "/api/v1/checkout/confirmation?cart_id=c1&address_id=a1&payment_intent=pi_c1", "")
	if f.orders.Creates != 1 {
		t.Fatalf("expected exactly one createOrder, got %d", f.orders.Creates)
	}

	res, _ = f.do(t, "GET", "/api/v1/checkout", "")
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("session should be gone after completion, got %d", res.StatusCode)
	}
}

func TestCheckout_ConfirmationRedirectsWithoutParams(t *testing.T) {
	f := newFixture(nil)
	for _, q := range []string{"", "?cart_id=c1", "?address_id=a1", "?cart_id=&address_id=a1"} {
		res, _ := f.do(t, "GET", "/api/v1/checkout/confirmation"+q, "")
		if res.StatusCode != fiber.StatusSeeOther || res.Header.Get("Location") != "/cart" {
			t.Fatalf("%q: expected redirect to cart, got %d %s", q, res.StatusCode, res.Header.Get("Location"))
		}
	}
	if f.orders.Creates != 0 {
		t.Fatalf("no order should be attempted")
	}
}

func TestCheckout_ConfirmationNeedsIntentWhenSettling(t *testing.T) {
	settlements := payment.NewSettlements(50 * time.Millisecond)
	f := newSettlingFixture(nil, settlements)

	res, _ := f.do(t, "GET", "/api/v1/checkout/confirmation?cart_id=x&address_id=y", "")
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without a payment intent, got %d", res.StatusCode)
	}
	if f.orders.Creates != 0 {
		t.Fatalf("no order may be placed without a settled payment")
	}

	settlements.Signal("pi_x", payment.StatusSucceeded)
	res, _ = f.do(t, "GET", "/api/v1/checkout/confirmation?cart_id=x&address_id=y&payment_intent=pi_x", "")
	if res.StatusCode != fiber.StatusOK || f.orders.Creates != 1 {
		t.Fatalf("expected the settled order to be placed, got %d creates=%d", res.StatusCode, f.orders.Creates)
	}
}

func TestCheckout_IntentFailureKeepsStep(t *testing.T) {
	f := newFixture([]address.Address{{ID: "a1", IsDefault: true}})
	f.gateway.err = &graphql.RemoteError{Op: "createPaymentIntent", Err: errors.New("down")}
	f.do(t, "POST", "/api/v1/checkout", `{"cart_id":"c1"}`)

	res, _ := f.do(t, "POST", "/api/v1/checkout/continue", "")
	if res.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.StatusCode)
	}
	_, body := f.do(t, "GET", "/api/v1/checkout", "")
	if body["step"] != "checkout" {
		t.Fatalf("expected to stay on checkout, got %v", body)
	}
}

func TestCheckout_RequiresCartAndSession(t *testing.T) {
	f := newFixture(nil)
	res, _ := f.do(t, "POST", "/api/v1/checkout", `{}`)
	if res.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without cart_id, got %d", res.StatusCode)
	}
	res, _ = f.do(t, "POST", "/api/v1/checkout/back", "")
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 without a session, got %d", res.StatusCode)
	}
	res, _ = f.do(t, "POST", "/api/v1/checkout", `{"cart_id":"c1"}`)
	res, _ = f.do(t, "POST", "/api/v1/checkout/back", "")
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for back from checkout, got %d", res.StatusCode)
	}
}
