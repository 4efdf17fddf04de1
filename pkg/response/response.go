package response

import (
	"errors"
	"net/http"
	"time"

	"b2b-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Meta      *PageMeta   `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// PageMeta describes one page of a list result.
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// ErrorResponse is the standard error envelope. Field names the offending
// input (amount, txid, wallet, label or non_field_errors). Retryable is set
// for integrity faults, which may succeed when repeated unchanged.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// retryAfterSeconds is advertised on 503 lock-wait faults.
const retryAfterSeconds = "1"

func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data, nil)
}

// Page sends a list with its paging metadata.
func Page(c *gin.Context, data interface{}, meta PageMeta) {
	success(c, http.StatusOK, data, &meta)
}

func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data, nil)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes err as an ErrorResponse. Errors that are not *apperror.AppError
// anywhere in their chain become an opaque SYS_000 fault.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap("SYS_000", "Internal server error", http.StatusInternalServerError, err)
	}

	retryable := appErr.Kind == apperror.KindIntegrity
	if appErr.HTTPStatus == http.StatusServiceUnavailable {
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Kind:      string(appErr.Kind),
		Field:     appErr.Field,
		Message:   appErr.Message,
		Retryable: retryable,
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

func success(c *gin.Context, status int, data interface{}, meta *PageMeta) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(c),
		Timestamp: now(),
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getRequestID returns the id set by the RequestID middleware, or a fresh one.
func getRequestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
