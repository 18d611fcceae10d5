package printing

import (
	"context"
	"time"
)

// Receipt roll widths in millimeters
const (
	Receipt58MM = 58.0
	Receipt80MM = 80.0
)

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML  string
	Title string
	// PaperWidthMM is the page width. Zero means an 80mm receipt roll.
	PaperWidthMM float64
	// PaperHeightMM is the page height. Zero prints on continuous paper.
	PaperHeightMM float64
	// MarginMM is applied on all four sides
	MarginMM float64
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// PDFRenderer renders HTML to a PDF document
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) ([]byte, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeTemplate      = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
