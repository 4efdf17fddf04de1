package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLabelLength matches the label column width.
const MaxLabelLength = 255

var (
	ErrEmptyLabel   = errors.New("wallet label must not be empty")
	ErrLabelTooLong = errors.New("wallet label must be at most 255 characters")
)

// Wallet holds a non-negative running balance equal to the sum of the
// amounts of all transactions that reference it.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	Label     string          `json:"label"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWallet returns a wallet with a fresh id and a zero balance.
func NewWallet(label string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		Label:     label,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeLabel trims surrounding whitespace and enforces the label bounds.
func NormalizeLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyLabel
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return "", ErrLabelTooLong
	}
	return label, nil
}
