package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/simple_bank/internal/auth"
	"github.com/congo-pay/simple_bank/internal/card"
	"github.com/congo-pay/simple_bank/internal/config"
	"github.com/congo-pay/simple_bank/internal/infra"
	"github.com/congo-pay/simple_bank/internal/ledger"
	"github.com/congo-pay/simple_bank/internal/middleware"
	"github.com/congo-pay/simple_bank/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Store  *infra.Store
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("account store is required")
	}
	// sessions, idempotency and rate limiting all live in Redis
	if d.Cache == nil {
		return fmt.Errorf("redis is required to serve HTTP (APP_ENV=%s)", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	cards, err := card.NewGenerator(d.Store.Accounts, card.Options{MaxAttempts: d.Cfg.IdentifierMaxAttempts})
	if err != nil {
		return fmt.Errorf("card generator: %w", err)
	}
	ledgerSvc := ledger.NewService(d.Store.Accounts, cards, notification.NewLoggerNotifier(d.Logger), d.Logger)
	sessions := auth.NewService(ledgerSvc, d.Store.Accounts, d.Cache, d.Cfg.SessionTTL, d.Logger)

	authHandler := auth.NewHandler(sessions)
	ledgerHandler := ledger.NewHandler(ledgerSvc, sessions, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Logger)
	sessionAuth := middleware.SessionAuth(sessions)
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterAuthRoutes(api, authHandler, rateLimiter, sessionAuth)
	RegisterAccountRoutes(api, ledgerHandler, sessionAuth, idempotent)

	return nil
}
