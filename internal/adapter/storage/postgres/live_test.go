package postgres_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	pgStorage "b2b-wallet/internal/adapter/storage/postgres"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/internal/service"
	"b2b-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// liveLedger connects to B2BW_TEST_DATABASE_URL and skips when it is unset.
func liveLedger(t *testing.T) (ports.LedgerService, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("B2BW_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("B2BW_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pgStorage.EnsureSchema(ctx, pool))

	ledger := service.NewLedgerService(
		pgStorage.NewWalletRepo(pool),
		pgStorage.NewTransactionRepo(pool),
		pgStorage.NewTransactor(pool),
		zerolog.New(io.Discard),
	)
	return ledger, pool
}

func TestLive_ConcurrentWithdrawals(t *testing.T) {
	ledger, _ := liveLedger(t)
	ctx := context.Background()

	w, err := ledger.CreateWallet(ctx, "live-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.DeleteWallet(context.Background(), w.ID) })

	_, err = ledger.CreateTransaction(ctx, ports.CreateTransactionRequest{
		WalletID: w.ID,
		TxID:     "dep-" + uuid.NewString(),
		Amount:   decimal.RequireFromString("100"),
	})
	require.NoError(t, err)

	const workers = 8
	results := make([]error, workers)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			_, results[i] = ledger.CreateTransaction(ctx, ports.CreateTransactionRequest{
				WalletID: w.ID,
				TxID:     "wd-" + uuid.NewString(),
				Amount:   decimal.RequireFromString("-60"),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, rejected int
	for _, err := range results {
		var appErr *apperror.AppError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &appErr) && appErr.Code == "TXN_004":
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)

	report, err := ledger.VerifyWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.True(t, report.StoredBalance.Equal(decimal.RequireFromString("40")))
}

func TestLive_DuplicateTxidAcrossWallets(t *testing.T) {
	ledger, _ := liveLedger(t)
	ctx := context.Background()

	a, err := ledger.CreateWallet(ctx, "live-a-"+uuid.NewString())
	require.NoError(t, err)
	b, err := ledger.CreateWallet(ctx, "live-b-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ledger.DeleteWallet(context.Background(), a.ID)
		_ = ledger.DeleteWallet(context.Background(), b.ID)
	})

	txid := "shared-" + uuid.NewString()
	_, err = ledger.CreateTransaction(ctx, ports.CreateTransactionRequest{WalletID: a.ID, TxID: txid, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = ledger.CreateTransaction(ctx, ports.CreateTransactionRequest{WalletID: b.ID, TxID: txid, Amount: decimal.NewFromInt(5)})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TXN_002", appErr.Code)

	got, err := ledger.GetWallet(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
}
