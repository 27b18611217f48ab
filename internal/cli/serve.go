package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/simple_bank/internal/infra"
	"github.com/congo-pay/simple_bank/internal/server"
)

type serveCmd struct {
	migrate bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the banking HTTP API" }
func (*serveCmd) Usage() string {
	return `bank serve [-migrate]

  Serves the JSON API under /api/v1 on PORT until SIGINT or SIGTERM.
  Sessions, idempotency keys and login throttling live in REDIS_URL. In a
  development environment without REDIS_URL an in-process Redis is used.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.migrate, "migrate", true, "create the accounts table before serving")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return fail("%v", err)
	}
	defer e.store.Close()
	logger := e.logger

	if err := e.migrateIf(ctx, c.migrate); err != nil {
		logger.Error("migrate", "error", err)
		return subcommands.ExitFailure
	}

	cache, closeCache, err := c.redis(ctx, e)
	if err != nil {
		logger.Error("connect redis", "error", err)
		return subcommands.ExitFailure
	}
	defer closeCache()

	srv, err := server.New(e.cfg, e.store, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		return subcommands.ExitFailure
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return subcommands.ExitFailure
	}

	logger.Info("server exited cleanly")
	return subcommands.ExitSuccess
}

// redis connects to REDIS_URL, or starts an in-process server when running
// in development without one.
func (c *serveCmd) redis(ctx context.Context, e *env) (*redis.Client, func(), error) {
	if e.cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, e.cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() {
			if err := cache.Close(); err != nil {
				e.logger.Warn("close redis", "error", err)
			}
		}, nil
	}
	if !e.cfg.IsDev() {
		return nil, nil, fmt.Errorf("REDIS_URL is required when APP_ENV=%s", e.cfg.AppEnv)
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start embedded redis: %w", err)
	}
	e.logger.Warn("REDIS_URL not set, using in-process redis", slog.String("addr", mr.Addr()))
	cache, err := infra.NewRedisClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		mr.Close()
		return nil, nil, err
	}
	return cache, func() {
		cache.Close()
		mr.Close()
	}, nil
}
