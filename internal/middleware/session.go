package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/auth"
	"github.com/congo-pay/simple_bank/internal/httpx"
)

// SessionAuth resolves the bearer token to a live account and stores it on the request.
func SessionAuth(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		acct, err := sessions.Resolve(c.UserContext(), token)
		if errors.Is(err, auth.ErrInvalidToken) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return err
		}

		httpx.SetSession(c, acct, token)
		return c.Next()
	}
}
