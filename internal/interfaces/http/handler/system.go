package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles health and company settings endpoints
type SystemHandler struct {
	BaseHandler
	db        Pinger
	company   config.CompanyConfig
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(db Pinger, company config.CompanyConfig, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		company:   company,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Database  string `json:"database" example:"up"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// CompanySettingsResponse is the utility identity printed on receipts
// @name HandlerCompanySettingsResponse
type CompanySettingsResponse struct {
	Name    string `json:"name" example:"Tirta Utility"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Locale  string `json:"locale" example:"id-ID"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports 503 when the database does not answer a ping within two seconds
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "up",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "down"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}

// CompanySettings godoc
// @ID           getCompanySettings
// @Summary      Company details shown on receipts
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[CompanySettingsResponse]
// @Router       /settings/company [get]
func (h *SystemHandler) CompanySettings(c *gin.Context) {
	h.Success(c, CompanySettingsResponse{
		Name:    h.company.Name,
		Address: h.company.Address,
		Phone:   h.company.Phone,
		Email:   h.company.Email,
		Locale:  h.company.Locale,
	})
}
