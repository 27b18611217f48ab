package cli

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/congo-pay/simple_bank/internal/session"
)

type sessionCmd struct {
	in      io.Reader
	out     io.Writer
	migrate bool
}

func (*sessionCmd) Name() string     { return "session" }
func (*sessionCmd) Synopsis() string { return "run the interactive banking menu on stdin/stdout" }
func (*sessionCmd) Usage() string {
	return `bank session [-migrate]

  Starts the text menu: create a card, log in, check the balance, add
  income, transfer to another card, close the account. Logs go to stderr.
`
}

func (c *sessionCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.migrate, "migrate", true, "create the accounts table before starting")
}

func (c *sessionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	e, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return fail("%v", err)
	}
	defer e.store.Close()

	if err := e.migrateIf(ctx, c.migrate); err != nil {
		return fail("%v", err)
	}
	l, err := e.ledger()
	if err != nil {
		return fail("%v", err)
	}

	if err := session.New(l, c.in, c.out, e.logger).Run(ctx); err != nil {
		return fail("session: %v", err)
	}
	return subcommands.ExitSuccess
}
