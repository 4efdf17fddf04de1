package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the ledger tables. The balance CHECK is a backstop;
// the service rejects negative prospective balances before any write.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id UUID PRIMARY KEY,
		label VARCHAR(255) NOT NULL,
		balance NUMERIC(30,18) NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		CONSTRAINT wallets_label_key UNIQUE (label),
		CONSTRAINT wallets_balance_nonnegative CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		wallet_id UUID NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
		txid VARCHAR(255) NOT NULL,
		amount NUMERIC(30,18) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		CONSTRAINT transactions_txid_key UNIQUE (txid)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_created ON transactions(wallet_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_balance ON wallets(balance)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY,
		action VARCHAR(64) NOT NULL,
		resource_type VARCHAR(64) NOT NULL,
		resource_id VARCHAR(255),
		details JSONB,
		ip_address VARCHAR(64),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC)`,
}

// EnsureSchema creates missing tables and indexes. It is idempotent.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
