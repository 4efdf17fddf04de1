package postgres

import (
	"errors"
	"fmt"

	"b2b-wallet/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation   = "23505"
	codeCheckViolation    = "23514"
	codeNumericOutOfRange = "22003"
	codeLockNotAvailable  = "55P03"
	codeQueryCanceled     = "57014"
	codeDeadlockDetected  = "40P01"
	codeSerializationFail = "40001"
)

// Constraint names declared in schema.go.
const (
	constraintWalletLabel     = "wallets_label_key"
	constraintWalletBalance   = "wallets_balance_nonnegative"
	constraintTransactionTxID = "transactions_txid_key"
)

// translate maps driver errors onto the application taxonomy. Errors it does
// not recognise are wrapped with op and left for the service to treat as
// integrity faults.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintWalletLabel:
			return apperror.ErrDuplicateLabel()
		case constraintTransactionTxID:
			return apperror.ErrDuplicateTxid()
		}
	case codeCheckViolation:
		if pgErr.ConstraintName == constraintWalletBalance {
			return apperror.ErrNegativeBalance(apperror.FieldAmount, "Transaction would lead to a negative wallet balance.")
		}
	case codeNumericOutOfRange:
		return apperror.ErrPrecisionExceeded("Resulting balance cannot have more than 12 digits before the decimal point.")
	case codeLockNotAvailable, codeQueryCanceled, codeDeadlockDetected, codeSerializationFail:
		return apperror.ErrLockTimeout(fmt.Errorf("%s: %w", op, err))
	}

	return fmt.Errorf("%s: %w", op, err)
}
