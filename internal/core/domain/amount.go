package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Storage shape of every amount and balance: numeric(30,18).
const (
	MaxDigits         = 30
	MaxFractionDigits = 18
	MaxIntegerDigits  = MaxDigits - MaxFractionDigits
)

var (
	ErrTooManyFractionDigits = errors.New("amount cannot have more than 18 decimal places")
	ErrTooManyIntegerDigits  = errors.New("amount cannot have more than 12 digits before the decimal point")
)

// maxMagnitude is the smallest absolute value that no longer fits.
var maxMagnitude = decimal.New(1, MaxIntegerDigits)

// CheckAmountPrecision rejects amounts the store cannot hold exactly. The
// fractional digit count is taken as written, so trailing zeros count.
func CheckAmountPrecision(amount decimal.Decimal) error {
	if amount.Exponent() < -MaxFractionDigits {
		return ErrTooManyFractionDigits
	}
	if amount.Abs().Cmp(maxMagnitude) >= 0 {
		return ErrTooManyIntegerDigits
	}
	return nil
}
