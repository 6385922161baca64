package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

// BillHandler handles bill generation, payment and receipts
type BillHandler struct {
	BaseHandler
	billService    *billingapp.BillService
	receiptService *billingapp.ReceiptService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService *billingapp.BillService, receiptService *billingapp.ReceiptService) *BillHandler {
	return &BillHandler{billService: billService, receiptService: receiptService}
}

// CreateBillRequest generates the bill for a recorded reading
// @Description Bill generation input
type CreateBillRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	Period     string `json:"period" binding:"required,billing_period" example:"2024-03"`
}

// PayBillRequest settles a bill. Amount must equal the bill total.
// @Description Payment input
type PayBillRequest struct {
	Amount string `json:"amount" binding:"required" example:"47500"`
	Method string `json:"method" binding:"required,oneof=CASH BANK_TRANSFER E_WALLET OTHER" example:"CASH"`
}

// CancelBillRequest cancels an unpaid bill
type CancelBillRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// BillListQuery filters bills
type BillListQuery struct {
	dto.ListRequest
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=UNPAID PAID CANCELLED"`
	Period     string `form:"period" binding:"omitempty,billing_period"`
}

// UnpaidLookupQuery finds outstanding bills by meter number
type UnpaidLookupQuery struct {
	MeterNumber string `form:"meter_number" binding:"required,min=1,max=50"`
}

// ReceiptQuery selects the receipt format
type ReceiptQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=html pdf HTML PDF"`
}

// Create godoc
// @ID           createBill
// @Summary      Generate the bill for a customer and period
// @Description  Requires a recorded reading. At most one bill exists per customer and period.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        request body CreateBillRequest true "Bill"
// @Success      201 {object} APIResponse[billingapp.BillResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills [post]
func (h *BillHandler) Create(c *gin.Context) {
	var req CreateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customerID, err := parseOptionalUUID("customer_id", req.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), actor(c), billingapp.CreateBillInput{
		CustomerID: *customerID,
		Period:     req.Period,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// List godoc
// @ID           listBills
// @Summary      List bills
// @Description  Customers only see their own bills.
// @Tags         bills
// @Produce      json
// @Param        customer_id query string false "Customer ID"
// @Param        status query string false "UNPAID, PAID or CANCELLED"
// @Param        period query string false "Billing period (YYYY-MM)"
// @Success      200 {object} ListResponse[billingapp.BillResponse]
// @Security     BearerAuth
// @Router       /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	var q BillListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	customerID, err := parseOptionalUUID("customer_id", q.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.billService.List(c.Request.Context(), actor(c), billingapp.BillListFilter{
		Filter:     toFilter(q.ListRequest),
		CustomerID: customerID,
		Status:     q.Status,
		Period:     q.Period,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getBill
// @Summary      Get a bill
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} APIResponse[billingapp.BillResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id} [get]
func (h *BillHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	bill, err := h.billService.GetByID(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Pay godoc
// @ID           payBill
// @Summary      Record full payment of a bill
// @Description  Marks the bill paid and appends an income transaction in one unit of work.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body PayBillRequest true "Payment"
// @Success      200 {object} APIResponse[billingapp.PaymentResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/pay [post]
func (h *BillHandler) Pay(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req PayBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	amount, err := parseDecimal("amount", req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payment, err := h.billService.RecordPayment(c.Request.Context(), actor(c), id, billingapp.PayBillInput{
		Amount: amount,
		Method: req.Method,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Cancel godoc
// @ID           cancelBill
// @Summary      Cancel an unpaid bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID"
// @Param        request body CancelBillRequest true "Reason"
// @Success      200 {object} APIResponse[billingapp.BillResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/cancel [post]
func (h *BillHandler) Cancel(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req CancelBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	bill, err := h.billService.Cancel(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Transaction godoc
// @ID           getBillTransaction
// @Summary      Ledger transaction that settled a bill
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID"
// @Success      200 {object} APIResponse[billingapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/transaction [get]
func (h *BillHandler) Transaction(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.billService.GetTransaction(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Receipt godoc
// @ID           printReceipt
// @Summary      Render a bill receipt
// @Tags         bills
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Bill ID"
// @Param        format query string false "html (default) or pdf"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/receipt [get]
func (h *BillHandler) Receipt(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var q ReceiptQuery
	if !h.BindQuery(c, &q) {
		return
	}

	receipt, err := h.receiptService.Print(c.Request.Context(), actor(c), id, q.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if receipt.ContentType == "application/pdf" {
		c.Header("Content-Disposition", `inline; filename="receipt-`+receipt.ReferenceNumber+`.pdf"`)
	}
	c.Data(http.StatusOK, receipt.ContentType, receipt.Content)
}

// LookupUnpaid godoc
// @ID           lookupUnpaidBills
// @Summary      Outstanding bills for a meter number
// @Description  Available without authentication.
// @Tags         public
// @Produce      json
// @Param        meter_number query string true "Meter number"
// @Success      200 {object} ListResponse[billingapp.BillResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /public/bills/unpaid [get]
func (h *BillHandler) LookupUnpaid(c *gin.Context) {
	var q UnpaidLookupQuery
	if !h.BindQuery(c, &q) {
		return
	}
	bills, err := h.billService.LookupUnpaidByMeter(c.Request.Context(), actor(c), q.MeterNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}
