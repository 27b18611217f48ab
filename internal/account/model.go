package account

import (
	"errors"
	"math"
)

var (
	// ErrNotFound is returned when no live record matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when an identifier or card number is already stored.
	ErrDuplicate = errors.New("account already exists")
	// ErrInsufficientFunds is returned when a transfer would make the source balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceOverflow is returned when a credit would push a balance past the int64 range.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// canCredit reports whether amount can be added to balance without overflowing.
func canCredit(balance, amount int64) bool {
	return balance <= math.MaxInt64-amount
}

// Account is a single issued card and its balance.
type Account struct {
	ID      string
	Number  string
	PIN     string
	Balance int64
}

// TransferResult holds both balances after a committed transfer.
type TransferResult struct {
	FromBalance int64
	ToBalance   int64
}
