package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, wallet_id, txid, amount, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction. A txid
// collision returns DuplicateTxid.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, txid, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, t.ID, t.WalletID, t.TxID, t.Amount, t.CreatedAt)
	return translate(err, "insert transaction")
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id), "get transaction by id")
}

// GetByIDForUpdate re-reads a transaction inside tx and locks its row.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(tx.QueryRow(ctx, query, id), "get transaction for update")
}

// ExistsByTxID reports whether a transaction with txid is already stored.
func (r *TransactionRepo) ExistsByTxID(ctx context.Context, txid string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE txid = $1)`, txid).Scan(&exists)
	if err != nil {
		return false, translate(err, "check txid exists")
	}
	return exists, nil
}

// UpdateAmount rewrites a transaction's amount. The wallet balance is
// adjusted separately by the caller in the same tx.
func (r *TransactionRepo) UpdateAmount(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE transactions SET amount = $1 WHERE id = $2`, amount, id)
	if err != nil {
		return translate(err, "update transaction amount")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transaction amount: transaction %s not found", id)
	}
	return nil
}

// Delete removes a transaction row.
func (r *TransactionRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete transaction")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction: transaction %s not found", id)
	}
	return nil
}

// SumByWallet returns the exact sum and the count of a wallet's amounts.
func (r *TransactionRepo) SumByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM transactions WHERE wallet_id = $1`

	var sum decimal.Decimal
	var count int64
	if err := tx.QueryRow(ctx, query, walletID).Scan(&sum, &count); err != nil {
		return decimal.Zero, 0, translate(err, "sum wallet transactions")
	}
	return sum, count, nil
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.WalletID != nil {
		conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
		args = append(args, *params.WalletID)
		argIdx++
	}
	if params.TxIDContains != "" {
		conditions = append(conditions, fmt.Sprintf("txid ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.TxIDContains)+"%")
		argIdx++
	}
	if params.MinAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount >= $%d", argIdx))
		args = append(args, *params.MinAmount)
		argIdx++
	}
	if params.MaxAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount <= $%d", argIdx))
		args = append(args, *params.MaxAmount)
		argIdx++
	}
	if params.AmountGT != nil {
		conditions = append(conditions, fmt.Sprintf("amount > $%d", argIdx))
		args = append(args, *params.AmountGT)
		argIdx++
	}
	if params.AmountLT != nil {
		conditions = append(conditions, fmt.Sprintf("amount < $%d", argIdx))
		args = append(args, *params.AmountLT)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		transactionColumns, where, params.SortBy, orderSQL(params.Order), argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, params.PageSize)
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.TxID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// scanTransaction returns nil, nil when the row does not exist.
func scanTransaction(row pgx.Row, op string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(&t.ID, &t.WalletID, &t.TxID, &t.Amount, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(err, op)
	}
	return t, nil
}
