package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind separates caller-fixable failures from internal faults.
type Kind string

const (
	// KindValidation covers bad precision, duplicates, missing references and
	// would-be-negative balances. Never retry these unchanged.
	KindValidation Kind = "VALIDATION"
	// KindIntegrity covers store and lock failures. Safe to retry.
	KindIntegrity Kind = "INTEGRITY"
)

// Field keys used in error responses.
const (
	FieldAmount         = "amount"
	FieldTxID           = "txid"
	FieldWallet         = "wallet"
	FieldLabel          = "label"
	FieldNonFieldErrors = "non_field_errors"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"kind"`
	Field      string `json:"field,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new validation AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       KindValidation,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error as an integrity fault.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       KindIntegrity,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithField returns a copy of e keyed to field.
func (e *AppError) WithField(field string) *AppError {
	cp := *e
	cp.Field = field
	return &cp
}

// ---- Wallet (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "The specified wallet does not exist", http.StatusNotFound).WithField(FieldWallet)
}

func ErrDuplicateLabel() *AppError {
	return New("WAL_002", "Wallet with this label already exists", http.StatusConflict).WithField(FieldLabel)
}

func ErrInvalidLabel(reason string) *AppError {
	return New("WAL_003", reason, http.StatusBadRequest).WithField(FieldLabel)
}

// ---- Transaction (TXN) ----

func ErrTransactionNotFound() *AppError {
	return New("TXN_001", "Transaction not found", http.StatusNotFound).WithField(FieldNonFieldErrors)
}

func ErrDuplicateTxid() *AppError {
	return New("TXN_002", "Transaction with this txid already exists", http.StatusConflict).WithField(FieldTxID)
}

func ErrPrecisionExceeded(reason string) *AppError {
	return New("TXN_003", reason, http.StatusBadRequest).WithField(FieldAmount)
}

// ErrNegativeBalance is keyed to amount for creates and edits, and to
// non_field_errors for deletes.
func ErrNegativeBalance(field string, reason string) *AppError {
	return New("TXN_004", reason, http.StatusUnprocessableEntity).WithField(field)
}

// ---- Request (REQ) ----

// Validation returns a REQ_001 request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

func ErrBodyTooLarge() *AppError {
	return New("REQ_002", "Request body too large.", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a store failure as a SYS_001 integrity fault.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// IsValidation reports whether err carries a caller-fixable AppError.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == KindValidation
}

// IsIntegrity reports whether err is an integrity fault. Errors that are not
// AppErrors are treated as integrity faults.
func IsIntegrity(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true
	}
	return appErr.Kind == KindIntegrity
}

// CodeOf returns the AppError code of err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
