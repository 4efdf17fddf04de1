package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Operation names used in logs and metrics.
const (
	opCreateWallet      = "create_wallet"
	opRenameWallet      = "rename_wallet"
	opDeleteWallet      = "delete_wallet"
	opCreateTransaction = "create_transaction"
	opUpdateTransaction = "update_transaction"
	opDeleteTransaction = "delete_transaction"
	opVerifyWallet      = "verify_wallet"
)

// walletLoadTimeout bounds a coalesced wallet read.
const walletLoadTimeout = 5 * time.Second

// Rejection reasons returned to callers.
const (
	msgNegativeOnWrite   = "Transaction would lead to a negative wallet balance."
	msgNegativeOnDelete  = "Deleting this transaction would lead to a negative wallet balance."
	msgBalanceOutOfRange = "Resulting balance cannot have more than 12 digits before the decimal point."
)

// LedgerServiceImpl implements ports.LedgerService. Every balance-affecting
// mutation locks the owning wallet row, validates the prospective balance
// against the locked value, writes the row change and applies the balance
// delta in one database transaction.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	cache      ports.WalletCache
	metrics    ports.MutationMetrics
	reads      singleflight.Group
	log        zerolog.Logger
}

// LedgerOption configures optional collaborators.
type LedgerOption func(*LedgerServiceImpl)

// WithWalletCache enables the read-through wallet snapshot cache.
func WithWalletCache(cache ports.WalletCache) LedgerOption {
	return func(s *LedgerServiceImpl) {
		s.cache = cache
	}
}

// WithMetrics records mutation outcomes and lock waits.
func WithMetrics(m ports.MutationMetrics) LedgerOption {
	return func(s *LedgerServiceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
	opts ...LedgerOption,
) *LedgerServiceImpl {
	s := &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		metrics:    ports.NoopMetrics{},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// begin opens a database transaction. Callers defer Rollback, which is a
// no-op after Commit.
func (s *LedgerServiceImpl) begin(ctx context.Context) (pgx.Tx, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fault("begin tx", err)
	}
	return dbTx, nil
}

// lockWallet takes the wallet's exclusive row lock in dbTx. The returned
// balance is the authoritative input for validation. Missing wallets yield
// WalletNotFound.
func (s *LedgerServiceImpl) lockWallet(ctx context.Context, dbTx pgx.Tx, op string, id uuid.UUID) (*domain.Wallet, error) {
	start := time.Now()
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
	s.metrics.ObserveLockWait(op, time.Since(start))
	if err != nil {
		return nil, fault("lock wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	return wallet, nil
}

func (s *LedgerServiceImpl) commit(ctx context.Context, dbTx pgx.Tx) error {
	if err := dbTx.Commit(ctx); err != nil {
		return fault("commit tx", err)
	}
	return nil
}

// invalidate drops the cached snapshot after a commit. Failures are logged;
// the stale snapshot expires with the cache TTL.
func (s *LedgerServiceImpl) invalidate(ctx context.Context, walletID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, walletID); err != nil {
		s.log.Warn().Err(err).Str("wallet_id", walletID.String()).Msg("failed to invalidate cached wallet")
	}
}

// finish records the terminal state of a mutation.
func (s *LedgerServiceImpl) finish(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	switch {
	case err == nil:
		s.metrics.ObserveMutation(op, ports.OutcomeCommitted, "", elapsed)
	case apperror.IsValidation(err):
		s.metrics.ObserveMutation(op, ports.OutcomeRejected, apperror.CodeOf(err), elapsed)
		s.log.Warn().Str("operation", op).Str("code", apperror.CodeOf(err)).Str("reason", reason(err)).Msg("mutation rejected")
	default:
		s.metrics.ObserveMutation(op, ports.OutcomeFault, apperror.CodeOf(err), elapsed)
		s.log.Error().Err(err).Str("operation", op).Msg("mutation failed")
	}
}

// fault passes AppErrors through and wraps anything else as an internal
// integrity fault.
func fault(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

func reason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
