package postgres

import (
	"context"
	"testing"
	"time"

	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), "tx-001", "100.25")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.WalletID, txn.TxID, decEq("100.25"), txn.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_DuplicateTxid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), "tx-001", "1")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.WalletID, txn.TxID, decEq("1"), txn.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transactions_txid_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.Equal(t, "TXN_002", apperror.CodeOf(err))
	assert.True(t, apperror.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), "tx-001", "-0.000000000000000001")

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(txRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.TxID, result.TxID)
	assert.True(t, result.Amount.Equal(dec("-0.000000000000000001")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(txRow())

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New(), "tx-009", "40")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id .+ FOR UPDATE").
		WithArgs(txn.ID).
		WillReturnRows(txRow(txn))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, txn.ID)
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(dec("40")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ExistsByTxID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tx-001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByTxID(context.Background(), "tx-001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET amount").
		WithArgs(decEq("-50"), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateAmount(context.Background(), tx, id, dec("-50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateAmount_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET amount").
		WithArgs(decEq("1"), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateAmount(context.Background(), tx, id, dec("1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM transactions WHERE id").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Delete(context.Background(), tx, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_SumByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\), COUNT\(\*\) FROM transactions WHERE wallet_id`).
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"sum", "count"}).AddRow(dec("90.000000000000000001"), int64(3)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, count, err := repo.SumByWallet(context.Background(), tx, walletID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(dec("90.000000000000000001")))
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	t1 := newTestTransaction(walletID, "a", "5")
	t2 := newTestTransaction(walletID, "b", "-2")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE wallet_id = \$1 AND created_at >= \$2`).
		WithArgs(walletID, from).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE .+ ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs(walletID, from, 10, 10).
		WillReturnRows(txRow(t1, t2))

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		WalletID: &walletID,
		From:     &from,
		Page:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, txns, 2)
	assert.Equal(t, "a", txns[0].TxID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_StrictAmountBounds(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	minAmount := dec("-10")
	above := dec("-10")
	below := dec("0")

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE amount >= \$1 AND amount > \$2 AND amount < \$3`).
		WithArgs(decEq("-10"), decEq("-10"), decEq("0")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE .+ LIMIT \$4 OFFSET \$5`).
		WithArgs(decEq("-10"), decEq("-10"), decEq("0"), 10, 0).
		WillReturnRows(txRow())

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		MinAmount: &minAmount,
		AmountGT:  &above,
		AmountLT:  &below,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}
