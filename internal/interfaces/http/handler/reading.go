package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/waterbill/backend/internal/application/billing"
	"github.com/waterbill/backend/internal/domain/shared"
)

// ReadingHandler handles meter reading ingestion
type ReadingHandler struct {
	BaseHandler
	readingService *billingapp.ReadingService
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(readingService *billingapp.ReadingService) *ReadingHandler {
	return &ReadingHandler{readingService: readingService}
}

// RecordReadingRequest is one meter reading for a billing period.
// previous_index defaults to the last recorded index.
// @Description Meter reading
type RecordReadingRequest struct {
	CustomerID    string  `json:"customer_id" binding:"required,uuid"`
	Period        string  `json:"period" binding:"required,billing_period" example:"2024-03"`
	PreviousIndex *string `json:"previous_index" example:"100"`
	CurrentIndex  string  `json:"current_index" binding:"required" example:"115"`
	MeterReset    bool    `json:"meter_reset"`
	ReadAt        string  `json:"read_at" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00" example:"2024-03-28T09:00:00Z"`
}

// Record godoc
// @ID           recordReading
// @Summary      Record a meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        request body RecordReadingRequest true "Reading"
// @Success      201 {object} APIResponse[billingapp.ReadingResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /readings [post]
func (h *ReadingHandler) Record(c *gin.Context) {
	var req RecordReadingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customerID, err := parseOptionalUUID("customer_id", req.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	previous, err := parseOptionalDecimal("previous_index", req.PreviousIndex)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	current, err := parseDecimal("current_index", req.CurrentIndex)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var readAt time.Time
	if req.ReadAt != "" {
		if readAt, err = time.Parse(time.RFC3339, req.ReadAt); err != nil {
			h.HandleError(c, shared.NewDomainError(shared.CodeInvalidInput, "Invalid read_at"))
			return
		}
	}

	reading, err := h.readingService.Record(c.Request.Context(), actor(c), billingapp.RecordReadingInput{
		CustomerID:    *customerID,
		Period:        req.Period,
		PreviousIndex: previous,
		CurrentIndex:  current,
		MeterReset:    req.MeterReset,
		ReadAt:        readAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reading)
}
