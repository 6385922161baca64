package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

// TariffHandler handles tariff endpoints, including the resolve and compute
// paths used to preview a bill
type TariffHandler struct {
	BaseHandler
	tariffService *billingapp.TariffService
}

// NewTariffHandler creates a new TariffHandler
func NewTariffHandler(tariffService *billingapp.TariffService) *TariffHandler {
	return &TariffHandler{tariffService: tariffService}
}

// TariffRequest creates or replaces a tariff. Amounts are decimal strings.
// @Description Tariff rates
type TariffRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100" example:"Household"`
	BaseFee      string `json:"base_fee" binding:"required" example:"10000"`
	RatePerCubic string `json:"rate_per_cubic" binding:"required" example:"2500"`
	Description  string `json:"description" binding:"max=500"`
}

// ResolveTariffQuery selects a customer and period
type ResolveTariffQuery struct {
	CustomerID string `form:"customer_id" binding:"required,uuid"`
	Period     string `form:"period" binding:"required,billing_period" example:"2024-03"`
}

// ComputeRequest prices a hypothetical reading. Give tariff_id, or
// customer_id with period.
// @Description Bill preview input
type ComputeRequest struct {
	TariffID      string  `json:"tariff_id" binding:"omitempty,uuid"`
	CustomerID    string  `json:"customer_id" binding:"omitempty,uuid"`
	Period        string  `json:"period" binding:"omitempty,billing_period"`
	PreviousIndex *string `json:"previous_index" example:"100"`
	CurrentIndex  string  `json:"current_index" binding:"required" example:"115"`
	MeterReset    bool    `json:"meter_reset"`
}

func (r TariffRequest) toInput() (billingapp.CreateTariffInput, error) {
	baseFee, err := parseDecimal("base_fee", r.BaseFee)
	if err != nil {
		return billingapp.CreateTariffInput{}, err
	}
	rate, err := parseDecimal("rate_per_cubic", r.RatePerCubic)
	if err != nil {
		return billingapp.CreateTariffInput{}, err
	}
	return billingapp.CreateTariffInput{
		Name:         r.Name,
		BaseFee:      baseFee,
		RatePerCubic: rate,
		Description:  r.Description,
	}, nil
}

// Create godoc
// @ID           createTariff
// @Summary      Create a tariff
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Param        request body TariffRequest true "Tariff"
// @Success      201 {object} APIResponse[billingapp.TariffResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tariffs [post]
func (h *TariffHandler) Create(c *gin.Context) {
	var req TariffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	tariff, err := h.tariffService.Create(c.Request.Context(), actor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tariff)
}

// Update godoc
// @ID           updateTariff
// @Summary      Replace a tariff's rates for future bills
// @Description  Persisted bills keep the rates they were computed with.
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Param        id path string true "Tariff ID"
// @Param        request body TariffRequest true "Tariff"
// @Success      200 {object} APIResponse[billingapp.TariffResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tariffs/{id} [put]
func (h *TariffHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req TariffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	tariff, err := h.tariffService.Update(c.Request.Context(), actor(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tariff)
}

// List godoc
// @ID           listTariffs
// @Summary      List tariffs
// @Tags         tariffs
// @Produce      json
// @Success      200 {object} ListResponse[billingapp.TariffResponse]
// @Security     BearerAuth
// @Router       /tariffs [get]
func (h *TariffHandler) List(c *gin.Context) {
	var q dto.ListRequest
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.tariffService.List(c.Request.Context(), actor(c), toFilter(q))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getTariff
// @Summary      Get a tariff
// @Tags         tariffs
// @Produce      json
// @Param        id path string true "Tariff ID"
// @Success      200 {object} APIResponse[billingapp.TariffResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tariffs/{id} [get]
func (h *TariffHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	tariff, err := h.tariffService.GetByID(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tariff)
}

// Resolve godoc
// @ID           resolveTariff
// @Summary      Tariff in force for a customer and billing period
// @Tags         tariffs
// @Produce      json
// @Param        customer_id query string true "Customer ID"
// @Param        period query string true "Billing period (YYYY-MM)"
// @Success      200 {object} APIResponse[billingapp.TariffResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tariffs/resolve [get]
func (h *TariffHandler) Resolve(c *gin.Context) {
	var q ResolveTariffQuery
	if !h.BindQuery(c, &q) {
		return
	}
	customerID, err := parseOptionalUUID("customer_id", q.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	tariff, err := h.tariffService.Resolve(c.Request.Context(), actor(c), *customerID, q.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tariff)
}

// Compute godoc
// @ID           computeBillAmount
// @Summary      Price a reading without creating a bill
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Param        request body ComputeRequest true "Reading"
// @Success      200 {object} APIResponse[billingapp.BillAmountResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tariffs/compute [post]
func (h *TariffHandler) Compute(c *gin.Context) {
	var req ComputeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	amount, err := h.tariffService.Compute(c.Request.Context(), actor(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, amount)
}

func (r ComputeRequest) toInput() (billingapp.ComputeInput, error) {
	var input billingapp.ComputeInput
	var err error
	if input.TariffID, err = parseOptionalUUID("tariff_id", r.TariffID); err != nil {
		return input, err
	}
	if input.CustomerID, err = parseOptionalUUID("customer_id", r.CustomerID); err != nil {
		return input, err
	}
	previous, err := parseOptionalDecimal("previous_index", r.PreviousIndex)
	if err != nil {
		return input, err
	}
	if previous != nil {
		input.PreviousIndex = *previous
	}
	if input.CurrentIndex, err = parseDecimal("current_index", r.CurrentIndex); err != nil {
		return input, err
	}
	input.Period = r.Period
	input.MeterReset = r.MeterReset
	return input, nil
}
