package handler

import "github.com/waterbill/backend/internal/interfaces/http/dto"

// Envelope types named in the OpenAPI annotations. Handlers write
// dto.Response; these give its data field a concrete type for the docs.

// APIResponse wraps a single resource
type APIResponse[T any] struct {
	Success bool `json:"success" example:"true"`
	Data    T    `json:"data"`
}

// ListResponse wraps one page of a collection
type ListResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    []T       `json:"data"`
	Meta    *dto.Meta `json:"meta"`
}

// ErrorResponse accompanies every 4xx and 5xx status
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
