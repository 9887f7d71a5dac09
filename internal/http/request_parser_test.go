package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"expensetracker/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"name":"x","other":1}`, true},
		{"two objects", `{"name":"x"}{"name":"y"}`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			var bad *badRequest
			if err != nil && !errors.As(err, &bad) {
				t.Errorf("err %T is not a bad request", err)
			}
		})
	}
}

func TestExpenseRequestFields(t *testing.T) {
	tests := []struct {
		name      string
		amount    amountField
		category  string
		wantField string
	}{
		{"comma decimal", "12,50", "Food", ""},
		{"negative", "-3", "FOOD", "amount"},
		{"letters", "ten", "FOOD", "amount"},
		{"label category", "7", "utility", ""},
		{"unknown category", "7", "rent", "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := expenseRequest{Amount: tt.amount, Category: tt.category}.fields()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *core.ValidationError
			if !errors.As(err, &invalid) || invalid.Field != tt.wantField {
				t.Errorf("err = %v, want validation error on %s", err, tt.wantField)
			}
		})
	}
}

func TestAmountFieldUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    amountField
		wantErr bool
	}{
		{`12.5`, "12.5", false},
		{`"12,50"`, "12,50", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var a amountField
		err := a.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr || a != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, %v", tt.in, a, err)
		}
	}
}

func TestParseRange(t *testing.T) {
	today := core.NewDate(2024, 2, 10)
	tests := []struct {
		name     string
		query    string
		from, to string
		wantErr  bool
	}{
		{"defaults to month", "", "2024-02-01", "2024-02-29", false},
		{"explicit", "from=2024-01-05&to=2024-01-07", "2024-01-05", "2024-01-07", false},
		{"only from", "from=2024-01-05", "2024-01-05", "2024-02-29", false},
		{"bad to", "to=07/01/2024", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			from, to, err := parseRange(q, today)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if from.String() != tt.from || to.String() != tt.to {
				t.Errorf("range = %s..%s, want %s..%s", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Lunch\x00 at\tnoon\x07 "); got != "Lunch at\tnoon" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
