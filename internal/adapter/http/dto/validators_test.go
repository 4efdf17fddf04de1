package dto

import (
	"testing"
	"time"

	"b2b-wallet/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"100", "100", false},
		{" -12.50 ", "-12.5", false},
		{"0.000000000000000001", "0.000000000000000001", false},
		{"1e3", "", true},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestParseAmount_KeepsWrittenScale(t *testing.T) {
	got, err := ParseAmount("1.0000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int32(-19), got.Exponent())
}

func TestBinding_CreateTransactionRequest(t *testing.T) {
	valid := CreateTransactionRequest{WalletID: uuid.New().String(), TxID: "tx-1", Amount: "10.5"}
	assert.NoError(t, binding.Validator.ValidateStruct(&valid))

	badAmount := valid
	badAmount.Amount = "ten"
	err := binding.Validator.ValidateStruct(&badAmount)
	require.Error(t, err)
	field, msg := BindingMessage(err)
	assert.Equal(t, "amount", field)
	assert.Equal(t, "A valid number is required.", msg)

	badWallet := valid
	badWallet.WalletID = "not-a-uuid"
	field, _ = BindingMessage(binding.Validator.ValidateStruct(&badWallet))
	assert.Equal(t, "wallet", field)

	control := valid
	control.TxID = "tx\x00"
	field, _ = BindingMessage(binding.Validator.ValidateStruct(&control))
	assert.Equal(t, "txid", field)
}

func TestBinding_WalletRequests(t *testing.T) {
	err := binding.Validator.ValidateStruct(&CreateWalletRequest{})
	field, msg := BindingMessage(err)
	assert.Equal(t, "label", field)
	assert.Equal(t, "This field is required.", msg)

	assert.NoError(t, binding.Validator.ValidateStruct(&RenameWalletRequest{Label: "ops"}))
}

func TestBindingMessage_NonValidatorError(t *testing.T) {
	field, msg := BindingMessage(assert.AnError)
	assert.Empty(t, field)
	assert.Equal(t, "malformed request body", msg)
}

func TestNewWalletResponse_FixedScale(t *testing.T) {
	w := &domain.Wallet{
		ID:        uuid.New(),
		Label:     "ops",
		Balance:   decimal.RequireFromString("12.5"),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	resp := NewWalletResponse(w)
	assert.Equal(t, "12.500000000000000000", resp.Balance)
	assert.Equal(t, "2024-01-02T03:04:05Z", resp.CreatedAt)
}

func TestNewBalanceReportResponse(t *testing.T) {
	r := &domain.BalanceReport{
		WalletID:         uuid.New(),
		StoredBalance:    decimal.RequireFromString("1"),
		TransactionSum:   decimal.RequireFromString("1.0"),
		TransactionCount: 2,
	}
	resp := NewBalanceReportResponse(r)
	assert.True(t, resp.Consistent)
	assert.Equal(t, int64(2), resp.TransactionCount)
}
