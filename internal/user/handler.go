package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Handler exposes the identity of the current session.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/v1/profile", h.getProfile)
}

// getProfile returns the identity asserted by the JWT. Profiles themselves live
// with the identity provider; this only echoes the verified claims.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	id, err := IdentityFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.JSON(id)
}

// OptionalAuth verifies a bearer token when one is sent and lets anonymous
// requests through untouched. Cart routes use it so guests and signed-in users
// share the same endpoints.
func OptionalAuth(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
		SuccessHandler: forwardToken,
		ErrorHandler:   unauthorized,
	})
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(secret),
		SuccessHandler: forwardToken,
		ErrorHandler:   unauthorized,
	})
}

func forwardToken(c *fiber.Ctx) error {
	if tok, ok := c.Locals("user").(*jwt.Token); ok && tok.Raw != "" {
		c.SetUserContext(WithToken(c.UserContext(), tok.Raw))
	}
	return c.Next()
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
}

// IsAuthenticated reports whether the request carries verified claims.
func IsAuthenticated(c *fiber.Ctx) bool {
	_, err := GetUserIDFromCtx(c)
	return err == nil
}

// GetUserIDFromCtx reads the user id from the verified JWT claims. The identity
// provider puts it in "sub"; older tokens carry "user_id".
func GetUserIDFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"sub", "user_id"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		}
	}
	return "", fiber.ErrUnauthorized
}

// IdentityFromCtx builds the Identity for the current request.
func IdentityFromCtx(c *fiber.Ctx) (Identity, error) {
	id, err := GetUserIDFromCtx(c)
	if err != nil {
		return Identity{}, err
	}
	claims, _ := claimsFromCtx(c)
	out := Identity{ID: id}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if v, ok := claims["email_verified"].(bool); ok {
		out.EmailVerified = v
	}
	return out, nil
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}
