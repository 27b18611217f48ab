package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/httpx"
	"github.com/congo-pay/simple_bank/internal/ledger"
)

// Handler exposes login and logout.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	CardNumber string `json:"card_number" validate:"required,len=16,numeric"`
	PIN        string `json:"pin" validate:"required,len=4,numeric"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login validates credentials and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	sess, err := h.svc.Login(c.UserContext(), req.CardNumber, req.PIN)
	if errors.Is(err, ledger.ErrInvalidCredentials) {
		return fiber.NewError(http.StatusUnauthorized, "wrong card number or PIN")
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loginResponse{Token: sess.Token, ExpiresIn: int64(sess.ExpiresIn.Seconds())})
}

// Logout revokes the bearer token used for the request.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext(), httpx.SessionToken(c)); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
