// Package cli holds the subcommands of the bank binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"github.com/congo-pay/simple_bank/internal/card"
	"github.com/congo-pay/simple_bank/internal/config"
	"github.com/congo-pay/simple_bank/internal/infra"
	"github.com/congo-pay/simple_bank/internal/ledger"
	"github.com/congo-pay/simple_bank/internal/logging"
	"github.com/congo-pay/simple_bank/internal/notification"
)

// Commands lists every subcommand of the bank binary.
var Commands = []subcommands.Command{
	&serveCmd{},
	&sessionCmd{in: os.Stdin, out: os.Stdout},
	&migrateCmd{},
}

// env is what every subcommand needs before doing its own work.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  *infra.Store
}

// bootstrap loads configuration and opens the account store. Logs go to
// logOut so an interactive session keeps stdout for the menu.
func bootstrap(ctx context.Context, logOut io.Writer) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewWriter(logOut, cfg.LogLevel)

	store, err := infra.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return &env{cfg: cfg, logger: logger, store: store}, nil
}

// migrateIf creates the schema when asked to.
func (e *env) migrateIf(ctx context.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	return e.store.Migrate(ctx)
}

func (e *env) ledger() (*ledger.Service, error) {
	cards, err := card.NewGenerator(e.store.Accounts, card.Options{MaxAttempts: e.cfg.IdentifierMaxAttempts})
	if err != nil {
		return nil, fmt.Errorf("card generator: %w", err)
	}
	return ledger.NewService(e.store.Accounts, cards, notification.NewLoggerNotifier(e.logger), e.logger), nil
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
