package core

import (
	"errors"
	"fmt"
)

// Sentinels for the error taxonomy. Typed errors below report themselves as
// these through errors.Is while still unwrapping to their cause.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateExpense = errors.New("duplicate expense")
	ErrExportFailed     = errors.New("export failed")
	ErrReportGeneration = errors.New("report generation failed")
	ErrStoreUnavailable = errors.New("expense store unavailable")
	ErrNotFound         = errors.New("expense not found")
	ErrIDConflict       = errors.New("expense id already exists")
)

var (
	ErrEmptyTitle      = &ValidationError{Field: "title", Msg: "expense title cannot be empty"}
	ErrTitleTooLong    = &ValidationError{Field: "title", Msg: fmt.Sprintf("expense title cannot exceed %d characters", MaxTitleLength)}
	ErrInvalidAmount   = &ValidationError{Field: "amount", Msg: "expense amount must be greater than 0"}
	ErrInvalidCategory = &ValidationError{Field: "category", Msg: "unknown expense category"}
	ErrNotesTooLong    = &ValidationError{Field: "notes", Msg: fmt.Sprintf("notes cannot exceed %d characters", MaxNotesLength)}
	ErrTooManyReceipts = &ValidationError{Field: "receiptImageUris", Msg: fmt.Sprintf("at most %d receipt images can be attached", MaxReceipts)}
	ErrZeroDate        = &ValidationError{Field: "date", Msg: "date cannot be zero"}
	ErrDateMismatch    = &ValidationError{Field: "date", Msg: "date does not match timestamp"}
)

// ValidationError describes an invalid expense field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateExpenseError is returned when the duplicate heuristic matched an
// existing expense. Title and Amount belong to the conflicting record.
type DuplicateExpenseError struct {
	Title  string
	Amount Money
}

func (e *DuplicateExpenseError) Error() string {
	return fmt.Sprintf("a similar expense already exists today: '%s' for %s", e.Title, e.Amount.StringFixed(2))
}

func (e *DuplicateExpenseError) Is(target error) bool { return target == ErrDuplicateExpense }

// ExportError wraps an I/O or serialization failure while producing an artifact.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return target == ErrExportFailed }

// ReportError wraps an aggregation or document rendering failure.
type ReportError struct {
	Stage string
	Err   error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Stage, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

func (e *ReportError) Is(target error) bool { return target == ErrReportGeneration }

// StoreError wraps a failed read or write against the expense store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }
