package httpx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/account"
)

const (
	localsAccount = "account"
	localsToken   = "session_token"
)

// SetSession records the authenticated account and its bearer token.
func SetSession(c *fiber.Ctx, acct account.Account, token string) {
	c.Locals(localsAccount, acct)
	c.Locals(localsToken, token)
}

// CurrentAccount returns the account resolved for the request.
func CurrentAccount(c *fiber.Ctx) (account.Account, bool) {
	acct, ok := c.Locals(localsAccount).(account.Account)
	return acct, ok
}

// SessionToken returns the bearer token the request authenticated with.
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(localsToken).(string)
	return token
}
