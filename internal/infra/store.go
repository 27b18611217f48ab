package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/config"
)

// Store is the account repository selected by STORE_DRIVER together with
// the handles needed to check and release its backing connection.
type Store struct {
	Driver   string
	Accounts account.Repository

	migrate func(ctx context.Context) error
	ping    func(ctx context.Context) error
	close   func()
}

// OpenStore connects the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory account store; balances are lost on exit")
		return &Store{Driver: config.DriverMemory, Accounts: account.NewMemoryRepository()}, nil

	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := account.NewPostgresRepository(pool)
		return &Store{
			Driver:   config.DriverPostgres,
			Accounts: repo,
			migrate:  repo.Migrate,
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil

	case config.DriverMySQL:
		db, err := NewMySQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("mysql handle: %w", err)
		}
		repo := account.NewGormRepository(db)
		return &Store{
			Driver:   config.DriverMySQL,
			Accounts: repo,
			migrate:  repo.Migrate,
			ping:     sqlDB.PingContext,
			close: func() {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("close mysql", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Migrate creates the accounts table when the backend needs one.
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", s.Driver, err)
	}
	return nil
}

// Ping reports whether the backend is reachable. The memory store always is.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
