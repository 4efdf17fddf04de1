package postgres

import (
	"time"

	"b2b-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalArg matches a decimal.Decimal argument by value.
type decimalArg struct {
	want decimal.Decimal
}

func (a decimalArg) Match(v interface{}) bool {
	got, ok := v.(decimal.Decimal)
	return ok && got.Equal(a.want)
}

func decEq(s string) pgxmock.Argument {
	return decimalArg{want: dec(s)}
}

func newTestWallet(label, balance string) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:        uuid.New(),
		Label:     label,
		Balance:   dec(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestTransaction(walletID uuid.UUID, txid, amount string) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		WalletID:  walletID,
		TxID:      txid,
		Amount:    dec(amount),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletCols() []string {
	return []string{"id", "label", "balance", "created_at", "updated_at"}
}

func walletRow(ws ...*domain.Wallet) *pgxmock.Rows {
	rows := pgxmock.NewRows(walletCols())
	for _, w := range ws {
		rows.AddRow(w.ID, w.Label, w.Balance, w.CreatedAt, w.UpdatedAt)
	}
	return rows
}

func txCols() []string {
	return []string{"id", "wallet_id", "txid", "amount", "created_at"}
}

func txRow(ts ...*domain.Transaction) *pgxmock.Rows {
	rows := pgxmock.NewRows(txCols())
	for _, t := range ts {
		rows.AddRow(t.ID, t.WalletID, t.TxID, t.Amount, t.CreatedAt)
	}
	return rows
}
