package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/httpx"
	"github.com/congo-pay/simple_bank/internal/notification"
)

// SessionRevoker drops the bearer tokens of a closed card.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, number string) error
}

// Handler exposes the ledger over HTTP. It relies on the session middleware
// for the current account and never recomputes checksums or balances itself.
type Handler struct {
	svc      *Service
	sessions SessionRevoker
	logger   *slog.Logger
}

func NewHandler(svc *Service, sessions SessionRevoker, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

type createResponse struct {
	CardNumber string `json:"card_number"`
	PIN        string `json:"pin"`
	Balance    int64  `json:"balance"`
}

type balanceResponse struct {
	CardNumber string `json:"card_number"`
	Balance    int64  `json:"balance"`
}

type depositRequest struct {
	Amount *int64 `json:"amount" validate:"required"`
}

type transferRequest struct {
	CardNumber string `json:"card_number" validate:"required"`
	Amount     *int64 `json:"amount" validate:"required"`
}

type transferResponse struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	FromBalance int64  `json:"from_balance"`
	ToBalance   int64  `json:"to_balance"`
	CompletedAt string `json:"completed_at"`
}

// Create issues a new card. The PIN is only ever returned here.
func (h *Handler) Create(c *fiber.Ctx) error {
	acct, err := h.svc.Create(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(createResponse{CardNumber: acct.Number, PIN: acct.PIN, Balance: acct.Balance})
}

// Balance returns the stored balance of the current account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	acct, err := current(c)
	if err != nil {
		return err
	}
	balance, err := h.svc.Balance(c.UserContext(), acct)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(balanceResponse{CardNumber: acct.Number, Balance: balance})
}

// Deposit adds income to the current account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	acct, err := current(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	balance, err := h.svc.Deposit(c.UserContext(), acct, *req.Amount)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(balanceResponse{CardNumber: acct.Number, Balance: balance})
}

// Transfer moves money from the current account to another card.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	acct, err := current(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Transfer(c.UserContext(), acct, req.CardNumber, *req.Amount)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(transferResponse{
		From:        res.From,
		To:          res.To,
		Amount:      res.Amount,
		FromBalance: res.FromBalance,
		ToBalance:   res.ToBalance,
		CompletedAt: res.CompletedAt.Format(time.RFC3339Nano),
	})
}

// Close deletes the current account and revokes its sessions.
func (h *Handler) Close(c *fiber.Ctx) error {
	acct, err := current(c)
	if err != nil {
		return err
	}
	if err := h.svc.Close(c.UserContext(), acct); err != nil {
		return asHTTPError(err)
	}
	if h.sessions != nil {
		if err := h.sessions.RevokeAll(c.UserContext(), acct.Number); err != nil {
			// the account is gone, so its tokens stop resolving anyway
			h.logger.WarnContext(c.UserContext(), "revoke sessions failed",
				slog.String("card", notification.Mask(acct.Number)),
				slog.Any("error", err),
			)
		}
	}
	return c.JSON(fiber.Map{"status": "closed"})
}

func current(c *fiber.Ctx) (account.Account, error) {
	acct, ok := httpx.CurrentAccount(c)
	if !ok {
		return account.Account{}, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return acct, nil
}

// asHTTPError gives every ledger rejection its own status. Anything else is a
// storage failure and surfaces as a 500.
func asHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, "account no longer exists")
	case errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrInvalidCardNumber),
		errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnknownRecipient):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrBalanceLimit):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
