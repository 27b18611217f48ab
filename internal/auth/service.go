package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/simple_bank/internal/account"
	"github.com/congo-pay/simple_bank/internal/logging"
	"github.com/congo-pay/simple_bank/internal/notification"
)

const (
	sessionPrefix = "session:v1:"
	indexPrefix   = "session-index:v1:"
)

// ErrInvalidToken is returned for unknown, expired or revoked tokens.
var ErrInvalidToken = errors.New("invalid or expired session token")

// Authenticator checks card credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, number, pin string) (account.Account, error)
}

// AccountFinder loads the live record behind a token.
type AccountFinder interface {
	FindByNumber(ctx context.Context, number string) (account.Account, error)
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	Account   account.Account
}

// Service issues Redis-backed session tokens.
type Service struct {
	creds    Authenticator
	accounts AccountFinder
	cache    *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
}

func NewService(creds Authenticator, accounts AccountFinder, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{creds: creds, accounts: accounts, cache: cache, ttl: ttl, logger: logger}
}

// Login authenticates the card and stores a fresh token for it. Credential
// failures are returned unchanged.
func (s *Service) Login(ctx context.Context, number, pin string) (Session, error) {
	acct, err := s.creds.Authenticate(ctx, number, pin)
	if err != nil {
		return Session{}, err
	}

	token := uuid.NewString()
	_, err = s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionPrefix+token, acct.Number, s.ttl)
		pipe.SAdd(ctx, indexPrefix+acct.Number, token)
		pipe.Expire(ctx, indexPrefix+acct.Number, s.ttl)
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}

	s.logger.InfoContext(ctx, "session opened", slog.String("card", notification.Mask(acct.Number)))
	return Session{Token: token, ExpiresIn: s.ttl, Account: acct}, nil
}

// Resolve returns the account behind token, re-read from the store so that a
// closed account no longer resolves.
func (s *Service) Resolve(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return account.Account{}, ErrInvalidToken
	}
	number, err := s.cache.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return account.Account{}, ErrInvalidToken
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("load session: %w", err)
	}

	acct, err := s.accounts.FindByNumber(ctx, number)
	if errors.Is(err, account.ErrNotFound) {
		if err := s.drop(ctx, token, number); err != nil {
			// the token stays until its TTL, and keeps failing to resolve
			s.logger.WarnContext(ctx, "drop stale session failed",
				slog.String("card", notification.Mask(number)),
				slog.Any("error", err),
			)
		}
		return account.Account{}, ErrInvalidToken
	}
	if err != nil {
		return account.Account{}, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}

// Logout revokes a single token.
func (s *Service) Logout(ctx context.Context, token string) error {
	number, err := s.cache.Get(ctx, sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.drop(ctx, token, number); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.InfoContext(ctx, "session closed", slog.String("card", notification.Mask(number)))
	return nil
}

// RevokeAll removes every token issued for number.
func (s *Service) RevokeAll(ctx context.Context, number string) error {
	index := indexPrefix + number
	tokens, err := s.cache.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionPrefix+token)
	}
	keys = append(keys, index)
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.InfoContext(ctx, "sessions revoked", slog.String("card", notification.Mask(number)), slog.Int("count", len(tokens)))
	return nil
}

func (s *Service) drop(ctx context.Context, token, number string) error {
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionPrefix+token)
		pipe.SRem(ctx, indexPrefix+number, token)
		return nil
	})
	return err
}
