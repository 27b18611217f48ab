package ledger

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when no account matches both card number and PIN.
	// It deliberately does not say which of the two was wrong.
	ErrInvalidCredentials = errors.New("wrong card number or PIN")
	// ErrInvalidAmount is returned for non-numeric, zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	// ErrSameAccount is returned when a transfer targets the sender's own card.
	ErrSameAccount = errors.New("cannot transfer money to the same account")
	// ErrInvalidCardNumber is returned when the receiving card number fails the checksum.
	ErrInvalidCardNumber = errors.New("card number failed checksum validation")
	// ErrUnknownRecipient is returned when no account holds the receiving card number.
	ErrUnknownRecipient = errors.New("such a card does not exist")
	// ErrInsufficientFunds is returned when the sender balance is below the transfer amount.
	ErrInsufficientFunds = errors.New("not enough money")
	// ErrBalanceLimit is returned when a credit would exceed the largest storable balance.
	ErrBalanceLimit = errors.New("balance limit exceeded")
)

// ParseAmount converts user input into a positive amount.
func ParseAmount(input string) (int64, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}
