package printing

import (
	"context"
	"fmt"
	"time"
)

// RenderRequest is one HTML document to print. Timeout overrides the
// renderer default when set.
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Margins   Margins
	Timeout   time.Duration
}

type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer turns receipt HTML into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// ErrorCode classifies a rendering failure for logs and callers
type ErrorCode string

const (
	ErrCodeRenderTimeout    ErrorCode = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     ErrorCode = "RENDER_FAILED"
	ErrCodeInvalidHTML      ErrorCode = "INVALID_HTML"
	ErrCodeInvalidPaperSize ErrorCode = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   ErrorCode = "TEMPLATE_FAILED"
)

type RenderError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func NewRenderError(code ErrorCode, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Is matches another RenderError by code, so errors.Is(err,
// &RenderError{Code: ErrCodeRenderTimeout}) works across wrapping.
func (e *RenderError) Is(target error) bool {
	t, ok := target.(*RenderError)
	return ok && t.Code == e.Code
}
