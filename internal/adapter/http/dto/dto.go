package dto

import (
	"time"

	"b2b-wallet/internal/core/domain"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Label string `json:"label" binding:"required,max=255,printable"`
}

// RenameWalletRequest is the request body for a label change.
type RenameWalletRequest struct {
	Label string `json:"label" binding:"required,max=255,printable"`
}

// CreateTransactionRequest is the request body for a new transaction.
// Amount is a decimal string; JSON numbers lose precision.
type CreateTransactionRequest struct {
	WalletID string `json:"wallet" binding:"required,uuid"`
	TxID     string `json:"txid" binding:"required,max=255,printable"`
	Amount   string `json:"amount" binding:"required,decimal"`
}

// UpdateTransactionRequest is the request body for an amount change.
type UpdateTransactionRequest struct {
	Amount string `json:"amount" binding:"required,decimal"`
}

// WalletResponse is the response body for a wallet.
type WalletResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse is the response body for a transaction.
type TransactionResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet"`
	TxID      string `json:"txid"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// BalanceReportResponse is the response body for a wallet consistency check.
type BalanceReportResponse struct {
	WalletID         string `json:"wallet"`
	StoredBalance    string `json:"stored_balance"`
	TransactionSum   string `json:"transaction_sum"`
	TransactionCount int64  `json:"transaction_count"`
	Consistent       bool   `json:"consistent"`
}

// NewWalletResponse renders a wallet. Balances keep all 18 fractional digits.
func NewWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		Label:     w.Label,
		Balance:   w.Balance.StringFixed(domain.MaxFractionDigits),
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: w.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewTransactionResponse renders a transaction.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID.String(),
		WalletID:  t.WalletID.String(),
		TxID:      t.TxID,
		Amount:    t.Amount.StringFixed(domain.MaxFractionDigits),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewBalanceReportResponse renders a consistency report.
func NewBalanceReportResponse(r *domain.BalanceReport) BalanceReportResponse {
	return BalanceReportResponse{
		WalletID:         r.WalletID.String(),
		StoredBalance:    r.StoredBalance.StringFixed(domain.MaxFractionDigits),
		TransactionSum:   r.TransactionSum.StringFixed(domain.MaxFractionDigits),
		TransactionCount: r.TransactionCount,
		Consistent:       r.Consistent(),
	}
}
