package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequest is a malformed request, as opposed to an invalid expense.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return badRequestf("request body too large")
		case errors.Is(err, io.EOF):
			return badRequestf("request body is empty")
		default:
			return badRequestf("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequestf("request body must contain a single JSON object")
	}
	return nil
}

// amountField accepts an amount as a JSON number or string ("12.50", "12,50").
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = amountField(n.String())
	return nil
}

// expenseRequest is the body of expense create and update calls.
type expenseRequest struct {
	Title            string      `json:"title"`
	Amount           amountField `json:"amount"`
	Category         string      `json:"category"`
	Notes            string      `json:"notes"`
	ReceiptImageURIs []string    `json:"receiptImageUris"`
	Timestamp        *time.Time  `json:"timestamp"`
	CheckDuplicates  *bool       `json:"checkDuplicates"`
}

// fields parses the request values shared by create and update.
func (req expenseRequest) fields() (core.Money, core.Category, error) {
	amount, err := core.ParseMoney(string(req.Amount))
	if err != nil {
		return core.Money{}, "", err
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Money{}, "", err
	}
	return amount, category, nil
}

// parseDateParam reads a YYYY-MM-DD query parameter, returning def when absent.
func parseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequestf("%s must be a date in YYYY-MM-DD format", key)
	}
	return d, nil
}

// parseRange reads from/to. Missing bounds default to the month containing today.
func parseRange(query url.Values, today core.Date) (core.Date, core.Date, error) {
	first := core.NewDate(today.Year(), int(today.Month()), 1)
	last := core.DateOf(first.AddDate(0, 1, -1))
	from, err := parseDateParam(query, "from", first)
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := parseDateParam(query, "to", last)
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return from, to, nil
}

// sanitizeInput trims s and strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
