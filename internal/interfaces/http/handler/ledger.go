package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/waterbill/backend/internal/application/billing"
)

// LedgerHandler serves financial reporting over the transaction ledger
type LedgerHandler struct {
	BaseHandler
	ledgerService *billingapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *billingapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// Summary godoc
// @ID           getLedgerSummary
// @Summary      Collected and outstanding totals for a date range
// @Description  Collected sums transactions paid in the range. Outstanding sums bills that were unpaid at the moment of the query.
// @Tags         ledger
// @Produce      json
// @Param        from query string true "First day (YYYY-MM-DD)"
// @Param        to query string true "Last day, inclusive (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[billingapp.SummaryResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/summary [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	var q DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	r, err := q.Range()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.ledgerService.Summarize(c.Request.Context(), actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Transactions godoc
// @ID           listLedgerTransactions
// @Summary      Transactions paid in a date range
// @Tags         ledger
// @Produce      json
// @Param        from query string true "First day (YYYY-MM-DD)"
// @Param        to query string true "Last day, inclusive (YYYY-MM-DD)"
// @Success      200 {object} ListResponse[billingapp.TransactionResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions [get]
func (h *LedgerHandler) Transactions(c *gin.Context) {
	var q DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	r, err := q.Range()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	txns, err := h.ledgerService.Transactions(c.Request.Context(), actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txns)
}

// Export godoc
// @ID           exportLedger
// @Summary      Export transactions and summary as CSV to object storage
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body DateRangeQuery true "Date range"
// @Success      201 {object} APIResponse[billingapp.ExportResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/export [post]
func (h *LedgerHandler) Export(c *gin.Context) {
	var req DateRangeQuery
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := req.Range()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	export, err := h.ledgerService.Export(c.Request.Context(), actor(c), r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, export)
}
