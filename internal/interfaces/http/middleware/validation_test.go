package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

type periodRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	Period     string `json:"period" binding:"required,billing_period"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req periodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	tests := []struct {
		name   string
		body   string
		status int
		fields map[string]string
	}{
		{
			name:   "valid request",
			body:   `{"customer_id":"5b0c7f4e-3e38-4c8e-9d7b-3a3c6f1f2a11","period":"2024-03"}`,
			status: http.StatusOK,
		},
		{
			name:   "missing fields",
			body:   `{}`,
			status: http.StatusBadRequest,
			fields: map[string]string{"customer_id": "required", "period": "required"},
		},
		{
			name:   "bad period",
			body:   `{"customer_id":"5b0c7f4e-3e38-4c8e-9d7b-3a3c6f1f2a11","period":"2024-13"}`,
			status: http.StatusBadRequest,
			fields: map[string]string{"period": "billing_period"},
		},
		{
			name:   "period with day",
			body:   `{"customer_id":"5b0c7f4e-3e38-4c8e-9d7b-3a3c6f1f2a11","period":"2024-03-01"}`,
			status: http.StatusBadRequest,
			fields: map[string]string{"period": "billing_period"},
		},
		{
			name:   "bad uuid",
			body:   `{"customer_id":"nope","period":"2024-03"}`,
			status: http.StatusBadRequest,
			fields: map[string]string{"customer_id": "uuid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.fields == nil {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)

			got := map[string]string{}
			for _, d := range resp.Error.Details {
				got[d.Field] = d.Code
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, resp.Error.Details)
}
