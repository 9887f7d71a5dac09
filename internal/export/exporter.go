package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// CSVHeader is the fixed first row of every CSV export.
var CSVHeader = []string{"Date", "Category", "Amount", "Description", "Tags"}

// Document is the JSON export layout.
type Document struct {
	ExportDate    string         `json:"exportDate"`
	TotalExpenses int            `json:"totalExpenses"`
	TotalAmount   json.Number    `json:"totalAmount"`
	Expenses      []DocumentItem `json:"expenses"`
}

// DocumentItem is one expense in a JSON export.
type DocumentItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
	Notes    string      `json:"notes,omitempty"`
}

// Exporter serializes expense lists. The zero value is not usable; use NewExporter.
type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// WithClock returns a copy of e that stamps exports using now.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	return &Exporter{now: now}
}

// WriteCSV streams expenses to w as RFC 4180 CSV. Progress starts at 50 and
// advances linearly to 90 as rows are written.
func (e *Exporter) WriteCSV(ctx context.Context, w io.Writer, expenses []core.Expense, progress ProgressFunc) error {
	progress.report("Writing CSV data...", 50)

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return &core.ExportError{Format: string(CSV), Err: err}
	}
	n := len(expenses)
	for i, exp := range expenses {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			exp.Date.String(),
			exp.Category.DisplayName(),
			exp.Amount.StringFixed(2),
			exp.Title,
			exp.Notes,
		}
		if err := cw.Write(row); err != nil {
			return &core.ExportError{Format: string(CSV), Err: err}
		}
		progress.report(fmt.Sprintf("Writing expense %d of %d...", i+1, n), 50+(i+1)*40/n)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &core.ExportError{Format: string(CSV), Err: err}
	}
	progress.report("CSV export complete!", 90)
	return nil
}

// ToCSV is WriteCSV into memory.
func (e *Exporter) ToCSV(ctx context.Context, expenses []core.Expense, progress ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteCSV(ctx, &buf, expenses, progress); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes expenses as an indented Document. Amounts are written as
// exact decimal numbers.
func (e *Exporter) WriteJSON(ctx context.Context, w io.Writer, expenses []core.Expense, progress ProgressFunc) error {
	progress.report("Converting to JSON...", 50)

	doc := Document{
		ExportDate:    core.DateOf(e.now()).String(),
		TotalExpenses: len(expenses),
		TotalAmount:   json.Number(core.Sum(expenses).String()),
		Expenses:      make([]DocumentItem, 0, len(expenses)),
	}
	for _, exp := range expenses {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc.Expenses = append(doc.Expenses, DocumentItem{
			ID:       exp.ID,
			Title:    exp.Title,
			Date:     exp.Date.String(),
			Category: exp.Category.DisplayName(),
			Amount:   json.Number(exp.Amount.String()),
			Notes:    exp.Notes,
		})
	}

	progress.report("Writing JSON file...", 80)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return &core.ExportError{Format: string(JSON), Err: err}
	}
	progress.report("JSON export complete!", 90)
	return nil
}

// ToJSON is WriteJSON into memory.
func (e *Exporter) ToJSON(ctx context.Context, expenses []core.Expense, progress ProgressFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteJSON(ctx, &buf, expenses, progress); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportPayload aggregates expenses for the PDF report.
func (e *Exporter) BuildReportPayload(expenses []core.Expense) core.ReportPayload {
	return report.Aggregate(expenses)
}
