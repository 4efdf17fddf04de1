package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"b2b-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByLabel(ctx context.Context, label string) (*domain.Wallet, error)
	List(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	// GetByIDForUpdate takes the wallet's exclusive row lock. Returns nil, nil when absent.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// GetByIDForShare blocks writers of the wallet until tx ends.
	GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// ApplyBalanceDelta adds delta to the stored balance and returns the new balance.
	ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	UpdateLabel(ctx context.Context, tx pgx.Tx, id uuid.UUID, label string) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	ExistsByTxID(ctx context.Context, txid string) (bool, error)
	UpdateAmount(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	// SumByWallet returns the sum and count of the wallet's transaction amounts as seen by tx.
	SumByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, int64, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SortOrder selects ascending or descending list order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// WalletListParams holds filter + pagination for listing wallets.
type WalletListParams struct {
	LabelContains string
	MinBalance    *decimal.Decimal // balance >= MinBalance
	MaxBalance    *decimal.Decimal // balance <= MaxBalance
	BalanceGT     *decimal.Decimal
	BalanceLT     *decimal.Decimal
	SortBy        string // label (default), balance, created_at
	Order         SortOrder
	Page          int
	PageSize      int
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	WalletID     *uuid.UUID
	TxIDContains string
	MinAmount    *decimal.Decimal // amount >= MinAmount
	MaxAmount    *decimal.Decimal // amount <= MaxAmount
	AmountGT     *decimal.Decimal
	AmountLT     *decimal.Decimal
	From         *time.Time
	To           *time.Time
	SortBy       string // created_at (default), amount, txid
	Order        SortOrder
	Page         int
	PageSize     int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps paging values and fills defaults.
func (p *WalletListParams) Normalize() {
	p.Page, p.PageSize = normalizePage(p.Page, p.PageSize)
	switch p.SortBy {
	case "label", "balance", "created_at":
	default:
		p.SortBy = "label"
	}
	if p.Order != SortDesc {
		p.Order = SortAsc
	}
}

// Normalize clamps paging values and fills defaults.
func (p *TransactionListParams) Normalize() {
	p.Page, p.PageSize = normalizePage(p.Page, p.PageSize)
	switch p.SortBy {
	case "amount", "created_at", "txid":
	default:
		p.SortBy = "created_at"
	}
	if p.Order != SortAsc {
		p.Order = SortDesc
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
