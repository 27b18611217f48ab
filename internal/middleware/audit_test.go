package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/httpx"
	"github.com/congo-pay/simple_bank/internal/logging"
)

func TestAuditLogsMaskedCard(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logging.NewWriter(&buf, "info")))
	app.Get("/account", func(c *fiber.Ctx) error {
		httpx.SetSession(c, account.Account{Number: "4000008449433403"}, "token")
		return c.SendStatus(fiber.StatusOK)
	})

	if _, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/account", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["card"] != "************3403" {
		t.Fatalf("expected masked card, got %v", entry["card"])
	}
	if entry["status"] != float64(fiber.StatusOK) || entry["request_id"] == "" {
		t.Fatalf("unexpected audit entry: %v", entry)
	}
}
