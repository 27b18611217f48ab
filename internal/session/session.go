// Package session drives the interactive banking menu as a state machine over
// a reader and a writer. It never terminates the process; Run returns once the
// user exits or the input ends.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/ledger"
	"github.com/congo-pay/simple_bank/internal/logging"
)

// State is the position of a session in its lifecycle.
type State int

const (
	LoggedOut State = iota
	LoggedIn
	Exited
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case LoggedIn:
		return "logged_in"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ledger is the subset of ledger.Service a session drives.
type Ledger interface {
	Create(ctx context.Context) (account.Account, error)
	Authenticate(ctx context.Context, number, pin string) (account.Account, error)
	Balance(ctx context.Context, acct account.Account) (int64, error)
	Deposit(ctx context.Context, acct account.Account, amount int64) (int64, error)
	ValidateRecipient(ctx context.Context, sender account.Account, to string) error
	Transfer(ctx context.Context, sender account.Account, to string, amount int64) (ledger.TransferResult, error)
	Close(ctx context.Context, acct account.Account) error
}

const (
	mainMenu = "1. Create an account\n" +
		"2. Log into account\n" +
		"0. Exit\n"
	accountMenu = "1. Balance\n" +
		"2. Add income\n" +
		"3. Do transfer\n" +
		"4. Close account\n" +
		"5. Log out\n" +
		"0. Exit\n"
)

// Session is one interactive actor. It is not safe for concurrent use.
type Session struct {
	ledger  Ledger
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
	state   State
	current account.Account
}

// New builds a session reading commands from in and writing prompts to out.
func New(l Ledger, in io.Reader, out io.Writer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{ledger: l, in: bufio.NewScanner(in), out: out, logger: logger, state: LoggedOut}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Run processes input until the user exits or the input is exhausted. Only
// storage failures are returned; every rejection is rendered to the user.
func (s *Session) Run(ctx context.Context) error {
	for s.state != Exited {
		var err error
		switch s.state {
		case LoggedOut:
			err = s.loggedOut(ctx)
		case LoggedIn:
			err = s.loggedIn(ctx)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "session aborted", slog.String("state", s.state.String()), slog.Any("error", err))
			return err
		}
	}
	return nil
}

func (s *Session) loggedOut(ctx context.Context) error {
	choice, err := s.prompt(mainMenu)
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		acct, err := s.ledger.Create(ctx)
		if err != nil {
			return err
		}
		s.printf("\nYour card has been created\nYour card number:\n%s\nYour card PIN:\n%s\n\n", acct.Number, acct.PIN)
	case "2":
		number, err := s.prompt("\nEnter your card number:\n")
		if err != nil {
			return err
		}
		pin, err := s.prompt("Enter your PIN:\n")
		if err != nil {
			return err
		}
		acct, err := s.ledger.Authenticate(ctx, number, pin)
		if errors.Is(err, ledger.ErrInvalidCredentials) {
			s.printf("\nWrong card number or PIN!\n\n")
			return nil
		}
		if err != nil {
			return err
		}
		s.current = acct
		s.transition(ctx, LoggedIn)
		s.printf("\nYou have successfully logged in!\n\n")
	case "0":
		s.exit(ctx)
	}
	return nil
}

func (s *Session) loggedIn(ctx context.Context) error {
	choice, err := s.prompt(accountMenu)
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		balance, err := s.ledger.Balance(ctx, s.current)
		if err != nil {
			return s.fail(ctx, err)
		}
		s.printf("\nBalance: %d\n\n", balance)
	case "2":
		return s.addIncome(ctx)
	case "3":
		return s.transfer(ctx)
	case "4":
		if err := s.ledger.Close(ctx, s.current); err != nil {
			return s.fail(ctx, err)
		}
		s.printf("\nThe account has been closed!\n\n")
		s.logout(ctx)
	case "5":
		s.printf("\nYou have successfully logged out!\n\n")
		s.logout(ctx)
	case "0":
		s.exit(ctx)
	}
	return nil
}

func (s *Session) addIncome(ctx context.Context) error {
	input, err := s.prompt("\nEnter income:\n")
	if err != nil {
		return err
	}
	amount, err := ledger.ParseAmount(input)
	if err != nil {
		return s.fail(ctx, err)
	}
	if _, err := s.ledger.Deposit(ctx, s.current, amount); err != nil {
		return s.fail(ctx, err)
	}
	s.printf("Income was added!\n\n")
	return nil
}

func (s *Session) transfer(ctx context.Context) error {
	to, err := s.prompt("\nTransfer\nEnter card number:\n")
	if err != nil {
		return err
	}
	if err := s.ledger.ValidateRecipient(ctx, s.current, to); err != nil {
		return s.fail(ctx, err)
	}
	input, err := s.prompt("Enter how much money you want to transfer:\n")
	if err != nil {
		return err
	}
	amount, err := ledger.ParseAmount(input)
	if err != nil {
		return s.fail(ctx, err)
	}
	if _, err := s.ledger.Transfer(ctx, s.current, to, amount); err != nil {
		return s.fail(ctx, err)
	}
	s.printf("Success!\n\n")
	return nil
}

// fail renders a ledger rejection and keeps the session going. Anything that
// is not a known rejection is returned to Run.
func (s *Session) fail(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidCredentials):
		// the account vanished underneath the session
		s.printf("\nWrong card number or PIN!\n\n")
		s.logout(ctx)
	case errors.Is(err, ledger.ErrInvalidAmount):
		s.printf("Amount must be a positive whole number!\n\n")
	case errors.Is(err, ledger.ErrSameAccount):
		s.printf("You can't transfer money to the same account!\n\n")
	case errors.Is(err, ledger.ErrInvalidCardNumber):
		s.printf("Probably you made a mistake in the card number. Please try again!\n\n")
	case errors.Is(err, ledger.ErrUnknownRecipient):
		s.printf("Such a card does not exist.\n\n")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		s.printf("Not enough money!\n\n")
	case errors.Is(err, ledger.ErrBalanceLimit):
		s.printf("The balance limit would be exceeded!\n\n")
	default:
		return err
	}
	return nil
}

func (s *Session) logout(ctx context.Context) {
	s.current = account.Account{}
	s.transition(ctx, LoggedOut)
}

func (s *Session) exit(ctx context.Context) {
	s.printf("\nBye!\n")
	s.current = account.Account{}
	s.transition(ctx, Exited)
}

func (s *Session) transition(ctx context.Context, next State) {
	s.logger.DebugContext(ctx, "session transition", slog.String("from", s.state.String()), slog.String("to", next.String()))
	s.state = next
}

func (s *Session) prompt(text string) (string, error) {
	s.printf("%s", text)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
