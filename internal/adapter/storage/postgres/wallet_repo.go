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

const walletColumns = `id, label, balance, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. A label collision returns DuplicateLabel.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, label, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, w.ID, w.Label, w.Balance, w.CreatedAt, w.UpdatedAt)
	return translate(err, "insert wallet")
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id), "get wallet by id")
}

// GetByLabel fetches a wallet by its exact label.
func (r *WalletRepo) GetByLabel(ctx context.Context, label string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE label = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, label), "get wallet by label")
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id), "get wallet for update")
}

// GetByIDForShare fetches a wallet holding a share lock, which excludes
// every concurrent mutation of that wallet until tx ends.
func (r *WalletRepo) GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR SHARE`
	return scanWallet(tx.QueryRow(ctx, query, id), "get wallet for share")
}

// ApplyBalanceDelta adds delta to the stored balance in place and returns
// the resulting balance. The caller must hold the wallet lock in tx.
func (r *WalletRepo) ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 RETURNING balance`

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, query, delta, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("apply balance delta: wallet %s not found", id)
		}
		return decimal.Zero, translate(err, "apply balance delta")
	}
	return balance, nil
}

// UpdateLabel changes a wallet's label. The balance is not touched.
func (r *WalletRepo) UpdateLabel(ctx context.Context, tx pgx.Tx, id uuid.UUID, label string) error {
	query := `UPDATE wallets SET label = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, label, id)
	if err != nil {
		return translate(err, "update wallet label")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update wallet label: wallet %s not found", id)
	}
	return nil
}

// Delete removes a wallet. Its transactions go with it through the
// ON DELETE CASCADE foreign key.
func (r *WalletRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete wallet")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete wallet: wallet %s not found", id)
	}
	return nil
}

// List fetches wallets with filtering and pagination.
func (r *WalletRepo) List(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.LabelContains != "" {
		conditions = append(conditions, fmt.Sprintf("label ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.LabelContains)+"%")
		argIdx++
	}
	if params.MinBalance != nil {
		conditions = append(conditions, fmt.Sprintf("balance >= $%d", argIdx))
		args = append(args, *params.MinBalance)
		argIdx++
	}
	if params.MaxBalance != nil {
		conditions = append(conditions, fmt.Sprintf("balance <= $%d", argIdx))
		args = append(args, *params.MaxBalance)
		argIdx++
	}
	if params.BalanceGT != nil {
		conditions = append(conditions, fmt.Sprintf("balance > $%d", argIdx))
		args = append(args, *params.BalanceGT)
		argIdx++
	}
	if params.BalanceLT != nil {
		conditions = append(conditions, fmt.Sprintf("balance < $%d", argIdx))
		args = append(args, *params.BalanceLT)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wallets %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM wallets %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		walletColumns, where, params.SortBy, orderSQL(params.Order), argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]domain.Wallet, 0, params.PageSize)
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.Label, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, total, nil
}

// scanWallet returns nil, nil when the row does not exist.
func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.Label, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translate(err, op)
	}
	return w, nil
}

func orderSQL(o ports.SortOrder) string {
	if o == ports.SortAsc {
		return "ASC"
	}
	return "DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
