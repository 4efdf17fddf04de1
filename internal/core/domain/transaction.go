package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTxIDLength matches the txid column width.
const MaxTxIDLength = 255

var (
	ErrEmptyTxID   = errors.New("txid must not be empty")
	ErrTxIDTooLong = errors.New("txid must be at most 255 characters")
)

// Transaction is a signed amount applied to exactly one wallet. Positive
// amounts are deposits, negative amounts withdrawals. The timestamp is set
// once at creation.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	TxID      string          `json:"txid"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTransaction returns a transaction stamped with the current time.
func NewTransaction(walletID uuid.UUID, txid string, amount decimal.Decimal) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		TxID:      txid,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// IsDeposit reports whether the transaction adds funds.
func (t *Transaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}

// IsWithdrawal reports whether the transaction removes funds.
func (t *Transaction) IsWithdrawal() bool {
	return t.Amount.IsNegative()
}

// NormalizeTxID trims surrounding whitespace and enforces the txid bounds.
func NormalizeTxID(txid string) (string, error) {
	txid = strings.TrimSpace(txid)
	if txid == "" {
		return "", ErrEmptyTxID
	}
	if utf8.RuneCountInString(txid) > MaxTxIDLength {
		return "", ErrTxIDTooLong
	}
	return txid, nil
}
