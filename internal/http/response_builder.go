package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/artifact"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a builder with a 200 status and no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(b.body)
}

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Title  string `json:"title,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// errorFor maps a service error to its response.
func errorFor(err error) *JSONResponseBuilder {
	var (
		dup     *core.DuplicateExpenseError
		invalid *core.ValidationError
		bad     *badRequest
	)
	switch {
	case errors.As(err, &bad):
		return BadRequestError(bad.Error())
	case errors.As(err, &dup):
		return NewJSONResponse().Status(http.StatusConflict).Body(errorBody{
			Error:  dup.Error(),
			Title:  dup.Title,
			Amount: dup.Amount.StringFixed(2),
		})
	case errors.As(err, &invalid):
		return NewJSONResponse().Status(http.StatusBadRequest).Body(errorBody{Error: invalid.Msg, Field: invalid.Field})
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound), errors.Is(err, services.ErrJobNotFound), errors.Is(err, artifact.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrIDConflict):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrStoreUnavailable):
		return ErrorResponse(http.StatusServiceUnavailable, "expense store unavailable")
	case errors.Is(err, core.ErrExportFailed), errors.Is(err, core.ErrReportGeneration):
		return InternalServerError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}

// writeError logs err and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorFor(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, resp.statusCode)
	}
	resp.Write(w)
}
