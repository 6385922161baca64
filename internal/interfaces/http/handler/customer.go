package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *billingapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *billingapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomerRequest represents a request to create a new customer
// @Description Request body for registering a metered customer
type CreateCustomerRequest struct {
	MeterNumber string `json:"meter_number" binding:"required,min=1,max=50" example:"MTR-0042"`
	Name        string `json:"name" binding:"required,min=1,max=200" example:"Siti Rahma"`
	Address     string `json:"address" binding:"max=500" example:"Jl. Merdeka 1"`
	Phone       string `json:"phone" binding:"max=50" example:"0812345678"`
	TariffID    string `json:"tariff_id" binding:"required,uuid"`
}

// UpdateCustomerRequest represents a request to update a customer
// @Description Request body for updating a customer's display data
type UpdateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200" example:"Siti Rahma"`
	Address string `json:"address" binding:"max=500" example:"Jl. Sudirman 5"`
	Phone   string `json:"phone" binding:"max=50"`
}

// AssignTariffRequest moves a customer to another tariff
// @Description Request body for reassigning a customer's tariff
type AssignTariffRequest struct {
	TariffID      string `json:"tariff_id" binding:"required,uuid"`
	EffectiveFrom string `json:"effective_from" binding:"required,billing_period" example:"2024-04"`
}

// CustomerListQuery filters the customer list
type CustomerListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Create godoc
// @ID           createCustomer
// @Summary      Register a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer"
// @Success      201 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), actor(c), billingapp.CreateCustomerInput{
		MeterNumber: req.MeterNumber,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		TariffID:    uuid.MustParse(req.TariffID),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        search query string false "Meter number or name"
// @Param        status query string false "ACTIVE or INACTIVE"
// @Success      200 {object} ListResponse[billingapp.CustomerResponse]
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var q CustomerListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := billing.CustomerFilter{Filter: toFilter(q.ListRequest), Search: q.Search}
	if q.Status != "" {
		status := billing.CustomerStatus(q.Status)
		filter.Status = &status
	}

	page, err := h.customerService.List(c.Request.Context(), actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer's name, address and phone
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        request body UpdateCustomerRequest true "Profile"
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), actor(c), id, billingapp.UpdateCustomerInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// AssignTariff godoc
// @ID           assignCustomerTariff
// @Summary      Reassign a customer's tariff from a billing period on
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        request body AssignTariffRequest true "Assignment"
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Security     BearerAuth
// @Router       /customers/{id}/tariff [post]
func (h *CustomerHandler) AssignTariff(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req AssignTariffRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.AssignTariff(c.Request.Context(), actor(c), id, billingapp.AssignTariffInput{
		TariffID:      uuid.MustParse(req.TariffID),
		EffectiveFrom: req.EffectiveFrom,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// TariffHistory godoc
// @ID           getCustomerTariffHistory
// @Summary      List a customer's tariff assignments
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} ListResponse[billingapp.TariffAssignmentResponse]
// @Security     BearerAuth
// @Router       /customers/{id}/tariff-history [get]
func (h *CustomerHandler) TariffHistory(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	history, err := h.customerService.TariffHistory(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Deactivate godoc
// @ID           deactivateCustomer
// @Summary      Stop billing a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/deactivate [post]
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, h.customerService.Deactivate)
}

// Activate godoc
// @ID           activateCustomer
// @Summary      Resume billing a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[billingapp.CustomerResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/activate [post]
func (h *CustomerHandler) Activate(c *gin.Context) {
	h.setStatus(c, h.customerService.Activate)
}

type customerTransition func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*billingapp.CustomerResponse, error)

func (h *CustomerHandler) setStatus(c *gin.Context, fn customerTransition) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	customer, err := fn(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
