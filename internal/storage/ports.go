package storage

import (
	"context"

	"expensetracker/internal/core"
)

// Filter narrows Find. Nil bounds and empty fields match everything; From and
// To are inclusive.
type Filter struct {
	From     *core.Date
	To       *core.Date
	Category core.Category
	Query    string // substring of title or notes, case-insensitive
}

// Ports for the persistence adapters.
type (
	ExpenseReader interface {
		// GetByDateRange returns expenses dated within [start, end], newest first.
		GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error)
		Find(ctx context.Context, f Filter) ([]core.Expense, error)
		GetByID(ctx context.Context, id string) (core.Expense, error)
	}

	ExpenseWriter interface {
		Insert(ctx context.Context, e core.Expense) error
		Update(ctx context.Context, e core.Expense) error
		DeleteByID(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		ExpenseReader
		ExpenseWriter
	}

	// KV is the string key-value store behind user preferences. Get reports
	// ok=false for absent keys.
	KV interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
	}
)
