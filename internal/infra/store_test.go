package infra

import (
	"context"
	"testing"

	"github.com/congo-pay/simple_bank/internal/config"
	"github.com/congo-pay/simple_bank/internal/logging"
)

func TestOpenStoreMemory(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, config.Config{StoreDriver: config.DriverMemory}, logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if store.Driver != config.DriverMemory || store.Accounts == nil {
		t.Fatalf("unexpected store: %+v", store)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate memory store: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping memory store: %v", err)
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.Config{StoreDriver: "sqlite"}, logging.Discard()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenStoreRequiresURL(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverMySQL} {
		if _, err := OpenStore(context.Background(), config.Config{StoreDriver: driver}, logging.Discard()); err == nil {
			t.Fatalf("expected error for %s without url", driver)
		}
	}
}

func TestNewRedisClient(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
