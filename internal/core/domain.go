package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	Staff   Category = "STAFF"
	Travel  Category = "TRAVEL"
	Food    Category = "FOOD"
	Utility Category = "UTILITY"
)

const (
	MaxTitleLength = 100
	MaxNotesLength = 100
	MaxReceipts    = 5
)

const dateLayout = "2006-01-02"

type (
	// Category is the closed set of expense categories.
	Category string

	// Date is a calendar date, always held at UTC midnight.
	Date struct {
		time.Time
	}

	Expense struct {
		ID               string
		Title            string
		Amount           Money
		Category         Category
		Notes            string
		ReceiptImageURIs []string // attachment order
		Timestamp        time.Time
		Date             Date // always DateOf(Timestamp)
	}
)

var categoryInfo = map[Category]struct {
	label string
	color string
}{
	Staff:   {"Staff", "#2196F3"},
	Travel:  {"Travel", "#4CAF50"},
	Food:    {"Food", "#FF9800"},
	Utility: {"Utility", "#9C27B0"},
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{Staff, Travel, Food, Utility}
}

// ParseCategory accepts either the enum name or the display label, in any case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.DisplayName()) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// DisplayName returns the label shown in reports and exports.
func (c Category) DisplayName() string {
	if info, ok := categoryInfo[c]; ok {
		return info.label
	}
	return string(c)
}

// Color returns the presentation color as a #RRGGBB string.
func (c Category) Color() string {
	if info, ok := categoryInfo[c]; ok {
		return info.color
	}
	return "#9E9E9E"
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO-8601 calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of whole days from d to other (negative if other is earlier).
func (d Date) DaysBetween(other Date) int {
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// NewExpense builds a validated expense with a fresh identifier. The calendar
// date is derived from the timestamp.
func NewExpense(title string, amount Money, category Category, notes string, receipts []string, ts time.Time) (Expense, error) {
	if ts.IsZero() {
		ts = time.Now()
	}
	e := Expense{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(title),
		Amount:           amount,
		Category:         category,
		Notes:            strings.TrimSpace(notes),
		ReceiptImageURIs: append([]string(nil), receipts...),
		Timestamp:        ts,
		Date:             DateOf(ts),
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if utf8.RuneCountInString(e.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if len(e.ReceiptImageURIs) > MaxReceipts {
		return ErrTooManyReceipts
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Timestamp.IsZero() && !DateOf(e.Timestamp).Equal(e.Date) {
		return ErrDateMismatch
	}
	return nil
}
