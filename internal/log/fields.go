package log

import (
	"time"

	"expensetracker/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldExpenseID   = "expense_id"
	FieldTitle       = "title"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldExportID    = "export_id"
	FieldFormat      = "format"
	FieldRecordCount = "record_count"
	FieldPercent     = "percent"
	FieldState       = "state"
	FieldLocation    = "location"
	FieldRangeStart  = "range_start"
	FieldRangeEnd    = "range_end"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentExport    = "export"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentArtifact  = "artifact"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpReport   = "report"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the identifying fields of an expense.
func (f LogFields) WithExpense(e core.Expense) LogFields {
	f[FieldExpenseID] = e.ID
	f[FieldTitle] = e.Title
	f[FieldAmount] = e.Amount.String()
	f[FieldCategory] = string(e.Category)
	f[FieldDate] = e.Date.String()
	return f
}

// WithExport adds export run fields.
func (f LogFields) WithExport(id, format string, start, end core.Date) LogFields {
	f[FieldExportID] = id
	f[FieldFormat] = format
	f[FieldRangeStart] = start.String()
	f[FieldRangeEnd] = end.String()
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, d time.Duration) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = d.Milliseconds()
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
