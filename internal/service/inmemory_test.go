package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for Postgres that honours row locks.
// Locks taken through a memTx are held until Commit or Rollback, and
// Rollback undoes every write the memTx made.
type memStore struct {
	mu       sync.Mutex
	wallets  map[uuid.UUID]domain.Wallet
	txns     map[uuid.UUID]domain.Transaction
	rowLocks map[uuid.UUID]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[uuid.UUID]domain.Wallet),
		txns:     make(map[uuid.UUID]domain.Transaction),
		rowLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[id] = m
	}
	return m
}

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{store: s, held: make(map[uuid.UUID]*sync.Mutex)}, nil
}

// newMemLedger wires a LedgerServiceImpl over a fresh memStore.
func newMemLedger(opts ...LedgerOption) (*LedgerServiceImpl, *memStore) {
	store := newMemStore()
	svc := NewLedgerService(&memWalletRepo{store}, &memTxRepo{store}, store, newTestLogger(), opts...)
	return svc, store
}

// memTx implements the parts of pgx.Tx the service uses.
type memTx struct {
	pgx.Tx
	store *memStore
	held  map[uuid.UUID]*sync.Mutex
	undo  []func()
	done  bool
}

func (t *memTx) lock(id uuid.UUID) {
	if _, ok := t.held[id]; ok {
		return
	}
	m := t.store.rowLock(id)
	m.Lock()
	t.held[id] = m
}

// write applies fn under the store mutex and remembers how to undo it.
func (t *memTx) write(fn func(), undo func()) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	fn()
	t.undo = append(t.undo, undo)
}

func (t *memTx) release() {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.release()
	return nil
}

func asMemTx(tx pgx.Tx) *memTx {
	return tx.(*memTx)
}

// --- In-Memory Wallet Repo ---

type memWalletRepo struct{ s *memStore }

func (r *memWalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.wallets {
		if existing.Label == w.Label {
			return apperror.ErrDuplicateLabel()
		}
	}
	r.s.wallets[w.ID] = *w
	return nil
}

func (r *memWalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memWalletRepo) GetByLabel(_ context.Context, label string) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.Label == label {
			return &w, nil
		}
	}
	return nil, nil
}

func (r *memWalletRepo) List(_ context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.Wallet, 0, len(r.s.wallets))
	for _, w := range r.s.wallets {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label < result[j].Label })
	return page(result, params.Page, params.PageSize), int64(len(result)), nil
}

func (r *memWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	asMemTx(tx).lock(id)
	return r.GetByID(ctx, id)
}

func (r *memWalletRepo) GetByIDForShare(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	asMemTx(tx).lock(id)
	return r.GetByID(ctx, id)
}

func (r *memWalletRepo) ApplyBalanceDelta(_ context.Context, tx pgx.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	asMemTx(tx).write(func() {
		w, ok := r.s.wallets[id]
		if !ok {
			err = fmt.Errorf("wallet %s not found", id)
			return
		}
		next := w.Balance.Add(delta)
		if next.IsNegative() {
			err = apperror.ErrNegativeBalance(apperror.FieldAmount, "balance check constraint")
			return
		}
		w.Balance = next
		r.s.wallets[id] = w
		balance = next
	}, func() {
		if err != nil {
			return
		}
		w := r.s.wallets[id]
		w.Balance = w.Balance.Sub(delta)
		r.s.wallets[id] = w
	})
	return balance, err
}

func (r *memWalletRepo) UpdateLabel(_ context.Context, tx pgx.Tx, id uuid.UUID, label string) error {
	var old string
	asMemTx(tx).write(func() {
		w := r.s.wallets[id]
		old = w.Label
		w.Label = label
		r.s.wallets[id] = w
	}, func() {
		w := r.s.wallets[id]
		w.Label = old
		r.s.wallets[id] = w
	})
	return nil
}

func (r *memWalletRepo) Delete(_ context.Context, tx pgx.Tx, id uuid.UUID) error {
	var (
		wallet  domain.Wallet
		removed []domain.Transaction
	)
	asMemTx(tx).write(func() {
		wallet = r.s.wallets[id]
		delete(r.s.wallets, id)
		for txID, t := range r.s.txns {
			if t.WalletID == id {
				removed = append(removed, t)
				delete(r.s.txns, txID)
			}
		}
	}, func() {
		r.s.wallets[id] = wallet
		for _, t := range removed {
			r.s.txns[t.ID] = t
		}
	})
	return nil
}

// --- In-Memory Transaction Repo ---

type memTxRepo struct{ s *memStore }

func (r *memTxRepo) Create(_ context.Context, tx pgx.Tx, t *domain.Transaction) error {
	var err error
	asMemTx(tx).write(func() {
		for _, existing := range r.s.txns {
			if existing.TxID == t.TxID {
				err = apperror.ErrDuplicateTxid()
				return
			}
		}
		r.s.txns[t.ID] = *t
	}, func() {
		if err == nil {
			delete(r.s.txns, t.ID)
		}
	})
	return err
}

func (r *memTxRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// GetByIDForUpdate relies on the caller already holding the wallet lock.
func (r *memTxRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *memTxRepo) ExistsByTxID(_ context.Context, txid string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.txns {
		if t.TxID == txid {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTxRepo) UpdateAmount(_ context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	var old decimal.Decimal
	asMemTx(tx).write(func() {
		t := r.s.txns[id]
		old = t.Amount
		t.Amount = amount
		r.s.txns[id] = t
	}, func() {
		t := r.s.txns[id]
		t.Amount = old
		r.s.txns[id] = t
	})
	return nil
}

func (r *memTxRepo) Delete(_ context.Context, tx pgx.Tx, id uuid.UUID) error {
	var removed domain.Transaction
	asMemTx(tx).write(func() {
		removed = r.s.txns[id]
		delete(r.s.txns, id)
	}, func() {
		r.s.txns[id] = removed
	})
	return nil
}

func (r *memTxRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Transaction
	for _, t := range r.s.txns {
		if params.WalletID != nil && t.WalletID != *params.WalletID {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, params.Page, params.PageSize), int64(len(result)), nil
}

func (r *memTxRepo) SumByWallet(_ context.Context, _ pgx.Tx, walletID uuid.UUID) (decimal.Decimal, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	var count int64
	for _, t := range r.s.txns {
		if t.WalletID == walletID {
			sum = sum.Add(t.Amount)
			count++
		}
	}
	return sum, count, nil
}

func page[T any](items []T, p, size int) []T {
	start := (p - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
