package cli

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

func TestSessionCommandRunsMenu(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := &sessionCmd{in: strings.NewReader("1\n0\n"), out: &out}
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	cmd.SetFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if status := cmd.Execute(context.Background(), fs); status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out.String(), "Your card has been created") || !strings.HasSuffix(out.String(), "Bye!\n") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestCommandsFailOnBadConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	for _, cmd := range []subcommands.Command{&migrateCmd{}, &sessionCmd{in: strings.NewReader(""), out: &bytes.Buffer{}}} {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		if status := cmd.Execute(context.Background(), fs); status != subcommands.ExitFailure {
			t.Fatalf("%s: expected failure, got %v", cmd.Name(), status)
		}
	}
}

func TestServeRequiresRedisOutsideDevelopment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "")

	cmd := &serveCmd{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetFlags(fs)
	if status := cmd.Execute(context.Background(), fs); status != subcommands.ExitFailure {
		t.Fatalf("expected failure without redis, got %v", status)
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Commands {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "session", "migrate"} {
		if !names[want] {
			t.Fatalf("missing %s command", want)
		}
	}
}
