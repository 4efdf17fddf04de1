package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ledgerTxOptions: READ COMMITTED is enough because every balance read that
// feeds a decision happens under a row lock taken in the same transaction.
var ledgerTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// Transactor implements ports.DBTransactor.
type Transactor struct {
	pool Pool
}

func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a ledger transaction. The caller owns Commit or Rollback.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, ledgerTxOptions)
	if err != nil {
		return nil, translate(err, "begin transaction")
	}
	return tx, nil
}
