package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/simple_bank/internal/logging"
)

func TestLoginRateLimitPerCard(t *testing.T) {
	mr, cache := newRedis(t)
	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	login := func(number string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"card_number":"`+number+`","pin":"1234"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if status := login("4000008449433403"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, status)
		}
	}
	if status := login("4000008449433403"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", status)
	}
	if status := login("4000001234567899"); status != fiber.StatusOK {
		t.Fatalf("other card should not be limited, got %d", status)
	}

	if ttl := mr.TTL(loginRatePrefix + "4000008449433403"); ttl <= 0 {
		t.Fatalf("expected counter to expire, ttl %s", ttl)
	}
	mr.FastForward(mr.TTL(loginRatePrefix + "4000008449433403"))
	if status := login("4000008449433403"); status != fiber.StatusOK {
		t.Fatalf("expected limit to reset after a minute, got %d", status)
	}
}

func TestLoginRateLimitWithoutCache(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected pass-through without redis, got %d", resp.StatusCode)
		}
	}
}
