package service

import (
	"context"
	"time"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"

	"github.com/google/uuid"
)

// CreateWallet stores a new wallet with a zero balance.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, label string) (wallet *domain.Wallet, err error) {
	start := time.Now()
	defer func() { s.finish(opCreateWallet, start, err) }()

	label, err = domain.NormalizeLabel(label)
	if err != nil {
		return nil, apperror.ErrInvalidLabel(err.Error())
	}

	existing, err := s.walletRepo.GetByLabel(ctx, label)
	if err != nil {
		return nil, fault("check label", err)
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateLabel()
	}

	wallet = domain.NewWallet(label)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		// A concurrent create with the same label surfaces here as DuplicateLabel.
		return nil, fault("insert wallet", err)
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("label", wallet.Label).
		Msg("wallet created")

	return wallet, nil
}

// GetWallet returns the committed wallet state, served from the snapshot
// cache when enabled. Concurrent misses for the same wallet share one
// database read; each caller still honours its own context.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Debug().Err(err).Str("wallet_id", id.String()).Msg("wallet cache read failed, falling through to DB")
		}
		if cached != nil {
			return cached, nil
		}
	}

	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.reads.DoChan(id.String(), func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(loadCtx, walletLoadTimeout)
		defer cancel()
		return s.loadWallet(readCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Shared result; hand each caller its own copy.
		w := *res.Val.(*domain.Wallet)
		return &w, nil
	}
}

// loadWallet reads the wallet from the store and populates the cache. The
// fence is taken before the read, so a mutation that commits and invalidates
// while the read is in flight keeps this snapshot out of the cache.
func (s *LedgerServiceImpl) loadWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var fence int64
	cacheable := false
	if s.cache != nil {
		f, err := s.cache.Fence(ctx, id)
		if err != nil {
			s.log.Debug().Err(err).Str("wallet_id", id.String()).Msg("wallet cache fence unavailable, not caching")
		} else {
			fence, cacheable = f, true
		}
	}

	w, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fault("get wallet", err)
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	if cacheable {
		stored, err := s.cache.Set(ctx, w, fence)
		switch {
		case err != nil:
			s.log.Debug().Err(err).Str("wallet_id", id.String()).Msg("failed to cache wallet")
		case !stored:
			s.log.Debug().Str("wallet_id", id.String()).Msg("wallet changed during read, snapshot not cached")
		}
	}
	return w, nil
}

// ListWallets returns one page of wallets and the total match count.
func (s *LedgerServiceImpl) ListWallets(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	params.Normalize()
	wallets, total, err := s.walletRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fault("list wallets", err)
	}
	return wallets, total, nil
}

// RenameWallet changes a wallet's label under its lock. The balance is not
// touched.
func (s *LedgerServiceImpl) RenameWallet(ctx context.Context, id uuid.UUID, label string) (wallet *domain.Wallet, err error) {
	start := time.Now()
	defer func() { s.finish(opRenameWallet, start, err) }()

	label, err = domain.NormalizeLabel(label)
	if err != nil {
		return nil, apperror.ErrInvalidLabel(err.Error())
	}

	dbTx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err = s.lockWallet(ctx, dbTx, opRenameWallet, id)
	if err != nil {
		return nil, err
	}
	if wallet.Label == label {
		return wallet, s.commit(ctx, dbTx)
	}

	if err := s.walletRepo.UpdateLabel(ctx, dbTx, id, label); err != nil {
		return nil, fault("update label", err)
	}
	if err := s.commit(ctx, dbTx); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	wallet.Label = label
	wallet.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("wallet_id", id.String()).
		Str("label", label).
		Msg("wallet renamed")

	return wallet, nil
}

// DeleteWallet removes a wallet and, through the cascading foreign key, all
// of its transactions in the same database transaction.
func (s *LedgerServiceImpl) DeleteWallet(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { s.finish(opDeleteWallet, start, err) }()

	dbTx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.lockWallet(ctx, dbTx, opDeleteWallet, id); err != nil {
		return err
	}
	if err := s.walletRepo.Delete(ctx, dbTx, id); err != nil {
		return fault("delete wallet", err)
	}
	if err := s.commit(ctx, dbTx); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.log.Info().Str("wallet_id", id.String()).Msg("wallet deleted")
	return nil
}

// VerifyWallet reads the stored balance and the sum of the wallet's
// transactions while holding a share lock on the wallet, so no mutation of
// that wallet can commit between the two reads.
func (s *LedgerServiceImpl) VerifyWallet(ctx context.Context, id uuid.UUID) (*domain.BalanceReport, error) {
	dbTx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForShare(ctx, dbTx, id)
	if err != nil {
		return nil, fault("share-lock wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	sum, count, err := s.txRepo.SumByWallet(ctx, dbTx, id)
	if err != nil {
		return nil, fault("sum transactions", err)
	}
	if err := s.commit(ctx, dbTx); err != nil {
		return nil, err
	}

	report := &domain.BalanceReport{
		WalletID:         id,
		StoredBalance:    wallet.Balance,
		TransactionSum:   sum,
		TransactionCount: count,
	}
	if !report.Consistent() {
		s.log.Error().
			Str("operation", opVerifyWallet).
			Str("wallet_id", id.String()).
			Str("stored_balance", wallet.Balance.String()).
			Str("transaction_sum", sum.String()).
			Msg("wallet balance diverges from transaction sum")
	}
	return report, nil
}
