package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/card"
	"github.com/congo-pay/simple_bank/internal/logging"
	"github.com/congo-pay/simple_bank/internal/notification"
)

// createAttempts bounds retries when a concurrent creator wins the race for
// the same identifier between generation and insert.
const createAttempts = 3

// TransferResult describes a committed transfer.
type TransferResult struct {
	From        string
	To          string
	Amount      int64
	FromBalance int64
	ToBalance   int64
	CompletedAt time.Time
}

// Service owns the account records and enforces the balance invariants.
type Service struct {
	repo     account.Repository
	cards    *card.Generator
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a ledger over repo. notifier may be nil.
func NewService(repo account.Repository, cards *card.Generator, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, cards: cards, notifier: notifier, logger: logger}
}

// Create issues a new card with a random PIN and a zero balance.
func (s *Service) Create(ctx context.Context) (account.Account, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		id, err := s.cards.GenerateIdentifier(ctx)
		if err != nil {
			return account.Account{}, fmt.Errorf("generate identifier: %w", err)
		}
		number, err := card.Number(id)
		if err != nil {
			return account.Account{}, fmt.Errorf("assemble card number: %w", err)
		}
		acct := account.Account{ID: id, Number: number, PIN: s.cards.GeneratePIN()}

		err = s.repo.Create(ctx, acct)
		if errors.Is(err, account.ErrDuplicate) {
			s.logger.WarnContext(ctx, "identifier taken concurrently, retrying", slog.String("id", id))
			continue
		}
		if err != nil {
			return account.Account{}, fmt.Errorf("store account: %w", err)
		}

		s.logger.InfoContext(ctx, "account created", slog.String("card", notification.Mask(number)))
		return acct, nil
	}
	return account.Account{}, fmt.Errorf("store account: %w", account.ErrDuplicate)
}

// Authenticate returns the account matching both number and pin.
func (s *Service) Authenticate(ctx context.Context, number, pin string) (account.Account, error) {
	acct, err := s.repo.FindByCredentials(ctx, number, pin)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.logger.InfoContext(ctx, "authentication rejected", slog.String("card", notification.Mask(number)))
			return account.Account{}, ErrInvalidCredentials
		}
		return account.Account{}, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

// Balance returns the stored balance of acct.
func (s *Service) Balance(ctx context.Context, acct account.Account) (int64, error) {
	balance, err := s.repo.Balance(ctx, acct.Number)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Deposit adds amount to acct and returns the new balance. A deposit that
// would overflow the balance is rejected with ErrBalanceLimit.
func (s *Service) Deposit(ctx context.Context, acct account.Account, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.repo.Deposit(ctx, acct.Number, amount)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return 0, ErrInvalidCredentials
		}
		if errors.Is(err, account.ErrBalanceOverflow) {
			s.logger.InfoContext(ctx, "deposit rejected",
				slog.String("card", notification.Mask(acct.Number)),
				slog.String("reason", ErrBalanceLimit.Error()),
			)
			return 0, ErrBalanceLimit
		}
		return 0, fmt.Errorf("deposit: %w", err)
	}
	s.logger.InfoContext(ctx, "deposit completed",
		slog.String("card", notification.Mask(acct.Number)),
		slog.Int64("amount", amount),
	)
	return balance, nil
}

// Transfer moves amount from sender to the account holding to. Checks run in
// a fixed order and the first failure is returned: same account, checksum,
// recipient existence, amount, funds. The checksum is validated before the
// store is consulted.
func (s *Service) Transfer(ctx context.Context, sender account.Account, to string, amount int64) (TransferResult, error) {
	if err := s.ValidateRecipient(ctx, sender, to); err != nil {
		if isRejection(err) {
			return s.reject(ctx, sender, err)
		}
		return TransferResult{}, err
	}
	if amount <= 0 {
		return s.reject(ctx, sender, ErrInvalidAmount)
	}

	res, err := s.repo.Transfer(ctx, sender.Number, to, amount)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInsufficientFunds):
			return s.reject(ctx, sender, ErrInsufficientFunds)
		case errors.Is(err, account.ErrBalanceOverflow):
			return s.reject(ctx, sender, ErrBalanceLimit)
		case errors.Is(err, account.ErrNotFound):
			// one side was closed after the lookups above
			if _, lookupErr := s.repo.FindByNumber(ctx, sender.Number); errors.Is(lookupErr, account.ErrNotFound) {
				return TransferResult{}, ErrInvalidCredentials
			}
			return s.reject(ctx, sender, ErrUnknownRecipient)
		default:
			return TransferResult{}, fmt.Errorf("transfer: %w", err)
		}
	}

	outcome := TransferResult{
		From:        sender.Number,
		To:          to,
		Amount:      amount,
		FromBalance: res.FromBalance,
		ToBalance:   res.ToBalance,
		CompletedAt: time.Now().UTC(),
	}
	s.logger.InfoContext(ctx, "transfer completed",
		slog.String("from", notification.Mask(sender.Number)),
		slog.String("to", notification.Mask(to)),
		slog.Int64("amount", amount),
	)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindTransferReceived,
		Destination: to,
		Body:        fmt.Sprintf("You received %d from card %s", amount, notification.Mask(sender.Number)),
	})
	return outcome, nil
}

// ValidateRecipient runs the recipient checks of Transfer without moving
// money, so an interactive caller can reject a card before asking for an
// amount.
func (s *Service) ValidateRecipient(ctx context.Context, sender account.Account, to string) error {
	if to == sender.Number {
		return ErrSameAccount
	}
	if !card.Verify(to) {
		return ErrInvalidCardNumber
	}
	if _, err := s.repo.FindByNumber(ctx, to); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrUnknownRecipient
		}
		return fmt.Errorf("find recipient: %w", err)
	}
	return nil
}

// Close deletes acct permanently. Any remaining balance is discarded.
func (s *Service) Close(ctx context.Context, acct account.Account) error {
	if err := s.repo.Delete(ctx, acct.Number); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "account closed", slog.String("card", notification.Mask(acct.Number)))
	s.notify(ctx, notification.Message{
		Kind:        notification.KindAccountClosed,
		Destination: acct.Number,
		Body:        "Your account has been closed",
	})
	return nil
}

func (s *Service) reject(ctx context.Context, sender account.Account, reason error) (TransferResult, error) {
	s.logger.InfoContext(ctx, "transfer rejected",
		slog.String("from", notification.Mask(sender.Number)),
		slog.String("reason", reason.Error()),
	)
	return TransferResult{}, reason
}

func isRejection(err error) bool {
	for _, target := range []error{ErrSameAccount, ErrInvalidCardNumber, ErrUnknownRecipient} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
