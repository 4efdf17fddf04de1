package postgres

import (
	"context"
	"errors"
	"fmt"
)

var errSchemaMissing = errors.New("ledger tables missing")

// HealthCheck reports PostgreSQL as healthy only when the ledger tables exist.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	var ready bool
	err := h.pool.QueryRow(ctx,
		`SELECT to_regclass('wallets') IS NOT NULL AND to_regclass('transactions') IS NOT NULL`,
	).Scan(&ready)
	if err != nil {
		return fmt.Errorf("probe postgres: %w", err)
	}
	if !ready {
		return errSchemaMissing
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
