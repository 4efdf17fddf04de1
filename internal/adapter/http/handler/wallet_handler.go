package handler

import (
	"b2b-wallet/internal/adapter/http/dto"
	"b2b-wallet/internal/adapter/http/middleware"
	"b2b-wallet/internal/core/ports"
	"b2b-wallet/pkg/apperror"
	"b2b-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledger ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	wallet, err := h.ledger.CreateWallet(c.Request.Context(), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.RecordAuditResource(c, wallet.ID.String())
	response.Created(c, dto.NewWalletResponse(wallet))
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	params := ports.WalletListParams{
		LabelContains: c.Query("label"),
		SortBy:        c.Query("sort"),
		Order:         queryOrder(c),
	}
	params.Page, params.PageSize = queryPage(c)

	var err error
	if params.MinBalance, err = queryDecimal(c, "min_balance"); err != nil {
		response.Error(c, err)
		return
	}
	if params.MaxBalance, err = queryDecimal(c, "max_balance"); err != nil {
		response.Error(c, err)
		return
	}
	if params.BalanceGT, err = queryDecimal(c, "balance_gt"); err != nil {
		response.Error(c, err)
		return
	}
	if params.BalanceLT, err = queryDecimal(c, "balance_lt"); err != nil {
		response.Error(c, err)
		return
	}
	params.Normalize()

	wallets, total, err := h.ledger.ListWallets(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, dto.NewWalletResponse(&wallets[i]))
	}
	response.Page(c, items, response.PageMeta{Page: params.Page, PageSize: params.PageSize, Total: total})
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrWalletNotFound)
	if !ok {
		return
	}

	wallet, err := h.ledger.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Rename handles PATCH /api/v1/wallets/:id.
func (h *WalletHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrWalletNotFound)
	if !ok {
		return
	}

	var req dto.RenameWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	wallet, err := h.ledger.RenameWallet(c.Request.Context(), id, req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Delete handles DELETE /api/v1/wallets/:id.
func (h *WalletHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrWalletNotFound)
	if !ok {
		return
	}

	if err := h.ledger.DeleteWallet(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Verify handles GET /api/v1/wallets/:id/verify.
func (h *WalletHandler) Verify(c *gin.Context) {
	id, ok := pathID(c, apperror.ErrWalletNotFound)
	if !ok {
		return
	}

	report, err := h.ledger.VerifyWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBalanceReportResponse(report))
}
