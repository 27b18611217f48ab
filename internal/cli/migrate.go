package cli

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the accounts table in the configured store" }
func (*migrateCmd) Usage() string {
	return `bank migrate

  Creates the accounts table for STORE_DRIVER=postgres or mysql. The memory
  store needs no schema and the command is a no-op for it.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return fail("%v", err)
	}
	defer e.store.Close()

	if err := e.store.Migrate(ctx); err != nil {
		return fail("%v", err)
	}
	e.logger.InfoContext(ctx, "schema ready", "driver", e.store.Driver)
	return subcommands.ExitSuccess
}
