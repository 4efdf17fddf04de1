package service

import (
	"context"
	"errors"
	"time"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"
	"b2b-wallet/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransaction records a signed amount against a wallet and applies it
// to the wallet balance atomically.
//
// Flow:
//  1. Validate txid and amount precision
//  2. Reject a txid that is already taken
//  3. BEGIN; SELECT wallet FOR UPDATE
//  4. Validate balance + amount >= 0 against the locked balance
//  5. INSERT transaction; UPDATE wallet balance
//  6. COMMIT and drop the cached snapshot
func (s *LedgerServiceImpl) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (txn *domain.Transaction, err error) {
	start := time.Now()
	defer func() { s.finish(opCreateTransaction, start, err) }()

	txid, err := domain.NormalizeTxID(req.TxID)
	if err != nil {
		return nil, apperror.Validation(err.Error()).WithField(apperror.FieldTxID)
	}
	if err := checkPrecision(req.Amount); err != nil {
		return nil, err
	}

	// Fast path only; the unique index decides under concurrency.
	taken, err := s.txRepo.ExistsByTxID(ctx, txid)
	if err != nil {
		return nil, fault("check txid", err)
	}
	if taken {
		return nil, apperror.ErrDuplicateTxid()
	}

	dbTx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockWallet(ctx, dbTx, opCreateTransaction, req.WalletID)
	if err != nil {
		return nil, err
	}

	if _, err := domain.ProspectiveCreate(wallet.Balance, req.Amount); err != nil {
		return nil, rejectProspective(err, apperror.FieldAmount, msgNegativeOnWrite)
	}

	txn = domain.NewTransaction(wallet.ID, txid, req.Amount)
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, fault("insert transaction", err)
	}

	balance, err := s.walletRepo.ApplyBalanceDelta(ctx, dbTx, wallet.ID, req.Amount)
	if err != nil {
		return nil, fault("apply balance delta", err)
	}

	if err := s.commit(ctx, dbTx); err != nil {
		return nil, err
	}
	s.invalidate(ctx, wallet.ID)

	wlog := logger.Wallet(s.log, wallet.ID)
	wlog.Info().
		Str("tx_id", txn.ID.String()).
		Str("txid", txid).
		Str("delta", req.Amount.String()).
		Str("balance", balance.String()).
		Msg("transaction created")

	return txn, nil
}

// GetTransaction returns a single committed transaction.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fault("get transaction", err)
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return txn, nil
}

// ListTransactions returns one page of transactions and the total match count.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params.Normalize()
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fault("list transactions", err)
	}
	return txns, total, nil
}

// UpdateTransactionAmount changes a transaction's amount and moves the wallet
// balance by the difference. The old amount is re-read under the wallet lock
// so a concurrent edit of the same transaction cannot be lost.
func (s *LedgerServiceImpl) UpdateTransactionAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (txn *domain.Transaction, err error) {
	start := time.Now()
	defer func() { s.finish(opUpdateTransaction, start, err) }()

	if err := checkPrecision(amount); err != nil {
		return nil, err
	}

	// Resolves the owning wallet. A transaction never moves between wallets.
	current, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fault("get transaction", err)
	}
	if current == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	dbTx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockWallet(ctx, dbTx, opUpdateTransaction, current.WalletID)
	if err != nil {
		return nil, err
	}

	txn, err = s.txRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, fault("lock transaction", err)
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	if txn.Amount.Equal(amount) {
		if err := s.commit(ctx, dbTx); err != nil {
			return nil, err
		}
		return txn, nil
	}

	if _, err := domain.ProspectiveUpdate(wallet.Balance, txn.Amount, amount); err != nil {
		return nil, rejectProspective(err, apperror.FieldAmount, msgNegativeOnWrite)
	}

	delta := amount.Sub(txn.Amount)
	if err := s.txRepo.UpdateAmount(ctx, dbTx, id, amount); err != nil {
		return nil, fault("update amount", err)
	}
	balance, err := s.walletRepo.ApplyBalanceDelta(ctx, dbTx, wallet.ID, delta)
	if err != nil {
		return nil, fault("apply balance delta", err)
	}

	if err := s.commit(ctx, dbTx); err != nil {
		return nil, err
	}
	s.invalidate(ctx, wallet.ID)

	wlog := logger.Wallet(s.log, wallet.ID)
	wlog.Info().
		Str("tx_id", id.String()).
		Str("old_amount", txn.Amount.String()).
		Str("new_amount", amount.String()).
		Str("balance", balance.String()).
		Msg("transaction amount updated")

	txn.Amount = amount
	return txn, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// wallet balance.
func (s *LedgerServiceImpl) DeleteTransaction(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { s.finish(opDeleteTransaction, start, err) }()

	current, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return fault("get transaction", err)
	}
	if current == nil {
		return apperror.ErrTransactionNotFound()
	}

	dbTx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockWallet(ctx, dbTx, opDeleteTransaction, current.WalletID)
	if err != nil {
		return err
	}

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return fault("lock transaction", err)
	}
	if txn == nil {
		return apperror.ErrTransactionNotFound()
	}

	if _, err := domain.ProspectiveDelete(wallet.Balance, txn.Amount); err != nil {
		return rejectProspective(err, apperror.FieldNonFieldErrors, msgNegativeOnDelete)
	}

	if err := s.txRepo.Delete(ctx, dbTx, id); err != nil {
		return fault("delete transaction", err)
	}
	balance, err := s.walletRepo.ApplyBalanceDelta(ctx, dbTx, wallet.ID, txn.Amount.Neg())
	if err != nil {
		return fault("apply balance delta", err)
	}

	if err := s.commit(ctx, dbTx); err != nil {
		return err
	}
	s.invalidate(ctx, wallet.ID)

	wlog := logger.Wallet(s.log, wallet.ID)
	wlog.Info().
		Str("tx_id", id.String()).
		Str("delta", txn.Amount.Neg().String()).
		Str("balance", balance.String()).
		Msg("transaction deleted")

	return nil
}

// rejectProspective maps a failed balance check. An out-of-range balance is
// always keyed to amount.
func rejectProspective(err error, negativeField, negativeMsg string) *apperror.AppError {
	if errors.Is(err, domain.ErrBalanceOutOfRange) {
		return apperror.ErrPrecisionExceeded(msgBalanceOutOfRange)
	}
	return apperror.ErrNegativeBalance(negativeField, negativeMsg)
}

func checkPrecision(amount decimal.Decimal) error {
	err := domain.CheckAmountPrecision(amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTooManyFractionDigits):
		return apperror.ErrPrecisionExceeded("Amount cannot have more than 18 decimal places.")
	default:
		return apperror.ErrPrecisionExceeded("Amount cannot have more than 12 digits before the decimal point.")
	}
}
