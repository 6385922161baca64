package dto

import (
	"net/http"

	"github.com/waterbill/backend/internal/domain/shared"
)

// API error codes, ERR_<DESCRIPTION>. Domain codes are translated to these
// by NormalizeErrorCode before they reach a client.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ErrCodeDuplicateBill: the period already has a bill that is not cancelled
	ErrCodeDuplicateBill = "ERR_DUPLICATE_BILL"
	// ErrCodeInvalidReading: the current meter index is below the previous one
	ErrCodeInvalidReading = "ERR_INVALID_READING"
	// ErrCodeAmountMismatch: a payment must settle the bill exactly
	ErrCodeAmountMismatch = "ERR_AMOUNT_MISMATCH"
	ErrCodeInvalidState   = "ERR_INVALID_STATE"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// errorCodes drives both the HTTP status of an API code and the translation
// from domain codes
var errorCodes = []struct {
	api    string
	domain string
	status int
}{
	{ErrCodeInternal, "", http.StatusInternalServerError},
	{ErrCodeValidation, "", http.StatusBadRequest},
	{ErrCodeBadRequest, "", http.StatusBadRequest},
	{ErrCodeInvalidJSON, "", http.StatusBadRequest},
	{ErrCodeInvalidInput, shared.CodeInvalidInput, http.StatusBadRequest},
	{ErrCodeUnauthorized, shared.CodeUnauthorized, http.StatusUnauthorized},
	{ErrCodeTokenExpired, "", http.StatusUnauthorized},
	{ErrCodeTokenInvalid, "", http.StatusUnauthorized},
	{ErrCodeForbidden, shared.CodeForbidden, http.StatusForbidden},
	{ErrCodeNotFound, shared.CodeNotFound, http.StatusNotFound},
	{ErrCodeAlreadyExists, shared.CodeAlreadyExists, http.StatusConflict},
	{ErrCodeConcurrencyConflict, shared.CodeConcurrentModification, http.StatusConflict},
	{ErrCodeDuplicateBill, shared.CodeDuplicateBill, http.StatusConflict},
	{ErrCodeInvalidReading, shared.CodeInvalidReading, http.StatusUnprocessableEntity},
	{ErrCodeAmountMismatch, shared.CodeAmountMismatch, http.StatusUnprocessableEntity},
	{ErrCodeInvalidState, shared.CodeInvalidState, http.StatusUnprocessableEntity},
	{ErrCodeRateLimited, "", http.StatusTooManyRequests},
}

var (
	statusByCode  = make(map[string]int, len(errorCodes))
	apiCodeByCode = make(map[string]string, len(errorCodes))
)

func init() {
	for _, c := range errorCodes {
		statusByCode[c.api] = c.status
		if c.domain != "" {
			apiCodeByCode[c.domain] = c.api
		}
	}
}

// GetHTTPStatus returns the HTTP status for an API or domain error code.
// Unknown codes are internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[NormalizeErrorCode(code)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if api, ok := apiCodeByCode[code]; ok {
		return api
	}
	return code
}
