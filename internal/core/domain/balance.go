package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeProspective is returned when a mutation would leave the
	// wallet balance below zero.
	ErrNegativeProspective = errors.New("prospective balance is negative")
	// ErrBalanceOutOfRange is returned when the prospective balance no longer
	// fits numeric(30,18).
	ErrBalanceOutOfRange = errors.New("prospective balance cannot have more than 12 digits before the decimal point")
)

// The functions below must be fed the balance read under the wallet's
// exclusive lock. Each returns the prospective balance.

// ProspectiveCreate is balance + amount.
func ProspectiveCreate(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	return checkProspective(balance.Add(amount))
}

// ProspectiveUpdate is balance + (newAmount - oldAmount).
func ProspectiveUpdate(balance, oldAmount, newAmount decimal.Decimal) (decimal.Decimal, error) {
	return checkProspective(balance.Add(newAmount.Sub(oldAmount)))
}

// ProspectiveDelete is balance - amount.
func ProspectiveDelete(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	return checkProspective(balance.Sub(amount))
}

func checkProspective(prospective decimal.Decimal) (decimal.Decimal, error) {
	if prospective.IsNegative() {
		return prospective, ErrNegativeProspective
	}
	if prospective.Cmp(maxMagnitude) >= 0 {
		return prospective, ErrBalanceOutOfRange
	}
	return prospective, nil
}

// BalanceReport compares a wallet's stored balance with the sum of its
// transactions, both read from the same snapshot.
type BalanceReport struct {
	WalletID         uuid.UUID       `json:"wallet_id"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	TransactionSum   decimal.Decimal `json:"transaction_sum"`
	TransactionCount int64           `json:"transaction_count"`
}

// Consistent reports whether the stored balance equals the transaction sum.
func (r BalanceReport) Consistent() bool {
	return r.StoredBalance.Equal(r.TransactionSum)
}
