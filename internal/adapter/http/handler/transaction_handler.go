package handler

import (
	"b2b-wallet/internal/adapter/http/dto"
	"b2b-wallet/internal/adapter/http/middleware"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"
	"b2b-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles transaction endpoints.
type TransactionHandler struct {
	ledger ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.ErrWalletNotFound())
		return
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("A valid number is required.").WithField(apperror.FieldAmount))
		return
	}

	txn, err := h.ledger.CreateTransaction(c.Request.Context(), ports.CreateTransactionRequest{
		WalletID: walletID,
		TxID:     req.TxID,
		Amount:   amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.RecordAuditResource(c, txn.ID.String())
	response.Created(c, dto.NewTransactionResponse(txn))
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	params := ports.TransactionListParams{
		TxIDContains: c.Query("txid"),
		SortBy:       c.Query("sort"),
		Order:        queryOrder(c),
	}
	params.Page, params.PageSize = queryPage(c)

	if raw := c.Query("wallet"); raw != "" {
		walletID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("Must be a valid UUID.").WithField(apperror.FieldWallet))
			return
		}
		params.WalletID = &walletID
	}

	var err error
	if params.MinAmount, err = queryDecimal(c, "min_amount"); err != nil {
		response.Error(c, err)
		return
	}
	if params.MaxAmount, err = queryDecimal(c, "max_amount"); err != nil {
		response.Error(c, err)
		return
	}
	if params.AmountGT, err = queryDecimal(c, "amount_gt"); err != nil {
		response.Error(c, err)
		return
	}
	if params.AmountLT, err = queryDecimal(c, "amount_lt"); err != nil {
		response.Error(c, err)
		return
	}
	if params.From, err = queryTime(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if params.To, err = queryTime(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	params.Normalize()

	txns, total, err := h.ledger.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.NewTransactionResponse(&txns[i]))
	}
	response.Page(c, items, response.PageMeta{Page: params.Page, PageSize: params.PageSize, Total: total})
}

// Get handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrTransactionNotFound)
	if !ok {
		return
	}

	txn, err := h.ledger.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTransactionResponse(txn))
}

// UpdateAmount handles PATCH /api/v1/transactions/:id.
func (h *TransactionHandler) UpdateAmount(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrTransactionNotFound)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation("A valid number is required.").WithField(apperror.FieldAmount))
		return
	}

	txn, err := h.ledger.UpdateTransactionAmount(c.Request.Context(), id, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTransactionResponse(txn))
}

// Delete handles DELETE /api/v1/transactions/:id.
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrTransactionNotFound)
	if !ok {
		return
	}

	if err := h.ledger.DeleteTransaction(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
