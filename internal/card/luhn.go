package card

import (
	"errors"
	"fmt"
)

const (
	// IssuerPrefix leads every card number issued by this system.
	IssuerPrefix = "400000"
	// NumberLength is the length of an issued card number.
	NumberLength = 16
	// IdentifierLength is the length of the account identifier embedded in a card number.
	IdentifierLength = 9
)

var (
	// ErrNotNumeric is returned when a payload contains anything other than ASCII digits.
	ErrNotNumeric = errors.New("payload must contain only digits")
	// ErrInvalidIdentifier is returned by Number for identifiers of the wrong length.
	ErrInvalidIdentifier = errors.New("invalid account identifier")
)

// CheckDigit computes the Luhn check digit for payload. Positions are counted
// from the left starting at 1 and every odd position is doubled.
func CheckDigit(payload string) (int, error) {
	if payload == "" {
		return 0, ErrNotNumeric
	}
	sum, ok := controlSum(payload)
	if !ok {
		return 0, ErrNotNumeric
	}
	return (10 - sum%10) % 10, nil
}

// Verify reports whether cardNumber is a 16 digit number whose last digit is
// the check digit of the first 15.
func Verify(cardNumber string) bool {
	if len(cardNumber) != NumberLength {
		return false
	}
	sum, ok := controlSum(cardNumber[:NumberLength-1])
	if !ok {
		return false
	}
	last := cardNumber[NumberLength-1]
	if last < '0' || last > '9' {
		return false
	}
	return int(last-'0') == (10-sum%10)%10
}

// Number assembles the card number for identifier under the issuer prefix.
// The identifier must be exactly IdentifierLength digits.
func Number(identifier string) (string, error) {
	if len(identifier) != IdentifierLength {
		return "", fmt.Errorf("%w: identifier %q must have %d digits", ErrInvalidIdentifier, identifier, IdentifierLength)
	}
	payload := IssuerPrefix + identifier
	digit, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return payload + string(rune('0'+digit)), nil
}

func controlSum(payload string) (int, bool) {
	sum := 0
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		// i is zero based, so even i is an odd position.
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum, true
}
