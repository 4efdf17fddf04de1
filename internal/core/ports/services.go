package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"b2b-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletCache holds committed wallet snapshots for reads. It is never
// consulted when validating a mutation.
//
// Every Invalidate advances the wallet's fence. A reader takes the fence
// before loading the wallet from the store and passes it to Set, which only
// stores the snapshot if no invalidation happened in between. A snapshot
// loaded before a commit can therefore never outlive that commit's
// invalidation.
type WalletCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	Fence(ctx context.Context, id uuid.UUID) (int64, error)
	// Set reports false when the fence moved and nothing was stored.
	Set(ctx context.Context, wallet *domain.Wallet, fence int64) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// Mutation outcomes recorded by MutationMetrics.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFault     = "fault"
)

// MutationMetrics records the terminal state of each balance-affecting operation.
type MutationMetrics interface {
	ObserveMutation(operation, outcome, code string, duration time.Duration)
	ObserveLockWait(operation string, wait time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ObserveMutation(string, string, string, time.Duration) {}
func (NoopMetrics) ObserveLockWait(string, time.Duration)                 {}

// --- Service Ports (Business Logic) ---

// LedgerService is the wallet and transaction engine. Every mutation that
// touches a balance runs under the owning wallet's exclusive lock.
type LedgerService interface {
	CreateWallet(ctx context.Context, label string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListWallets(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	RenameWallet(ctx context.Context, id uuid.UUID, label string) (*domain.Wallet, error)
	DeleteWallet(ctx context.Context, id uuid.UUID) error

	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	UpdateTransactionAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	// VerifyWallet compares the stored balance with the sum of its transactions.
	VerifyWallet(ctx context.Context, id uuid.UUID) (*domain.BalanceReport, error)
}

// CreateTransactionRequest holds validated input for a new transaction.
type CreateTransactionRequest struct {
	WalletID uuid.UUID
	TxID     string
	Amount   decimal.Decimal
}

// AuditService records committed mutations.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
