package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func sampleExpenses() []core.Expense {
	d1, d2 := core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 2)
	return []core.Expense{
		{ID: "1", Title: `Lunch, "team"`, Amount: core.MustMoney("12.5"), Category: core.Food, Notes: "line1\nline2", Date: d1},
		{ID: "2", Title: "Taxi", Amount: core.MustMoney("30"), Category: core.Travel, Notes: `a "quoted", note`, Date: d1},
		{ID: "3", Title: "Power \\ bill </script>", Amount: core.MustMoney("0.105"), Category: core.Utility, Date: d2},
	}
}

type recorder struct{ events []Event }

func (r *recorder) fn(message string, percent int) {
	r.events = append(r.events, Event{Message: message, Percent: percent})
}

func (r *recorder) percents() []int {
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Percent
	}
	return out
}

func TestToCSVRoundTrip(t *testing.T) {
	in := sampleExpenses()
	out, err := NewExporter().ToCSV(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != len(in)+1 {
		t.Fatalf("expected %d rows, got %d", len(in)+1, len(rows))
	}
	if strings.Join(rows[0], ",") != "Date,Category,Amount,Description,Tags" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	for i, e := range in {
		row := rows[i+1]
		want := []string{e.Date.String(), e.Category.DisplayName(), e.Amount.StringFixed(2), e.Title, e.Notes}
		for j := range want {
			if row[j] != want[j] {
				t.Fatalf("row %d col %d = %q, want %q", i, j, row[j], want[j])
			}
		}
	}
}

func TestCSVProgress(t *testing.T) {
	var rec recorder
	if _, err := NewExporter().ToCSV(context.Background(), sampleExpenses(), rec.fn); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	want := []int{50, 63, 76, 90, 90}
	got := rec.percents()
	if len(got) != len(want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress = %v, want %v", got, want)
		}
	}
}

func TestCSVEmpty(t *testing.T) {
	out, err := NewExporter().ToCSV(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	if string(out) != "Date,Category,Amount,Description,Tags\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestToJSON(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC) }
	in := sampleExpenses()
	var rec recorder
	out, err := NewExporter().WithClock(clock).ToJSON(context.Background(), in, rec.fn)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !json.Valid(out) {
		t.Fatalf("invalid json: %s", out)
	}

	var doc struct {
		ExportDate    string  `json:"exportDate"`
		TotalExpenses int     `json:"totalExpenses"`
		TotalAmount   float64 `json:"totalAmount"`
		Expenses      []struct {
			ID       string  `json:"id"`
			Title    string  `json:"title"`
			Date     string  `json:"date"`
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
		} `json:"expenses"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ExportDate != "2024-01-03" || doc.TotalExpenses != 3 {
		t.Fatalf("unexpected header fields %+v", doc)
	}
	total, _ := strconv.ParseFloat(core.Sum(in).String(), 64)
	if d := doc.TotalAmount - total; d > 0.01 || d < -0.01 {
		t.Fatalf("totalAmount = %v, want %v", doc.TotalAmount, total)
	}
	if doc.Expenses[0].Title != in[0].Title || doc.Expenses[2].Title != in[2].Title {
		t.Fatalf("titles not preserved: %+v", doc.Expenses)
	}
	if doc.Expenses[1].Category != "Travel" || doc.Expenses[1].Date != "2024-01-01" {
		t.Fatalf("unexpected item %+v", doc.Expenses[1])
	}
	if !strings.Contains(string(out), "</script>") {
		t.Fatalf("html characters should not be escaped")
	}

	want := []int{50, 80, 90}
	got := rec.percents()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress = %v, want %v", got, want)
		}
	}
}

func TestToJSONEmptyArray(t *testing.T) {
	out, err := NewExporter().ToJSON(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(out), `"expenses": []`) || !strings.Contains(string(out), `"totalAmount": 0`) {
		t.Fatalf("unexpected empty document %s", out)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteFailuresAreExportErrors(t *testing.T) {
	e := NewExporter()
	if err := e.WriteCSV(context.Background(), failingWriter{}, sampleExpenses(), nil); !errors.Is(err, core.ErrExportFailed) {
		t.Fatalf("csv: expected export failure, got %v", err)
	}
	if err := e.WriteJSON(context.Background(), failingWriter{}, sampleExpenses(), nil); !errors.Is(err, core.ErrExportFailed) {
		t.Fatalf("json: expected export failure, got %v", err)
	}
}

func TestWriteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExporter().ToCSV(ctx, sampleExpenses(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := NewExporter().ToJSON(ctx, sampleExpenses(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestBuildReportPayload(t *testing.T) {
	p := NewExporter().BuildReportPayload(sampleExpenses())
	if p.Count != 3 || len(p.Daily) != 2 || p.Categories[0].Category != core.Travel {
		t.Fatalf("unexpected payload %+v", p)
	}
}
