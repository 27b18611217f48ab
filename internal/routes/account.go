package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/ledger"
)

// RegisterAccountRoutes wires the operations on the authenticated account.
// Money-moving routes go through the idempotency middleware.
func RegisterAccountRoutes(r fiber.Router, h *ledger.Handler, sessionAuth, idempotent fiber.Handler) {
	r.Post("/accounts", h.Create)

	group := r.Group("/account")
	group.Get("", sessionAuth, h.Balance)
	group.Post("/deposit", sessionAuth, idempotent, h.Deposit)
	group.Post("/transfer", sessionAuth, idempotent, h.Transfer)
	group.Delete("", sessionAuth, h.Close)
}
