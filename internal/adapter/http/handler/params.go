package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"b2b-wallet/internal/adapter/http/dto"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"
	"b2b-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// bindError maps a ShouldBindJSON failure to a field-keyed validation error.
func bindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrBodyTooLarge()
	}
	field, msg := dto.BindingMessage(err)
	appErr := apperror.Validation(msg)
	if field != "" {
		return appErr.WithField(field)
	}
	return appErr
}

// pathID parses the :id segment. A malformed id cannot name an existing
// row, so it is reported as not found.
func pathID(c *gin.Context, notFound func() *apperror.AppError) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, notFound())
		return uuid.Nil, false
	}
	return id, true
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := dto.ParseAmount(raw)
	if err != nil {
		return nil, apperror.Validation("A valid number is required.").WithField(name)
	}
	return &d, nil
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.Validation("Enter a valid RFC 3339 date/time.").WithField(name)
	}
	return &t, nil
}

func queryPage(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(ports.DefaultPageSize)))
	return page, size
}

func queryOrder(c *gin.Context) ports.SortOrder {
	switch c.Query("order") {
	case string(ports.SortAsc):
		return ports.SortAsc
	case string(ports.SortDesc):
		return ports.SortDesc
	}
	return ""
}
