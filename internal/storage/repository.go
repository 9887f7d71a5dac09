package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

const expenseColumns = `id, title, amount, category, notes, receipt_image_uris, timestamp, date`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetByDateRange implements ExpenseReader
func (r *SQLiteRepository) GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	return r.Find(ctx, Filter{From: &start, To: &end})
}

// Find implements ExpenseReader
func (r *SQLiteRepository) Find(ctx context.Context, f Filter) ([]core.Expense, error) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, `(title LIKE ? ESCAPE '\' OR notes LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + expenseColumns + " FROM expenses"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp_ns DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "find", Err: err}
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "find", Err: err}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "find", Err: err}
	}
	return expenses, nil
}

// GetByID implements ExpenseReader
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, &core.StoreError{Op: "get", Err: err}
	}
	return e, nil
}

// Insert implements ExpenseWriter
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) error {
	receipts, err := encodeReceipts(e.ReceiptImageURIs)
	if err != nil {
		return &core.StoreError{Op: "insert", Err: err}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, title, amount, category, notes, receipt_image_uris, timestamp, timestamp_ns, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Title, e.Amount.String(), string(e.Category), e.Notes, receipts,
		e.Timestamp.Format(time.RFC3339Nano), e.Timestamp.UnixNano(), e.Date.String())
	if err != nil {
		return &core.StoreError{Op: "insert", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StoreError{Op: "insert", Err: err}
	}
	if n == 0 {
		return core.ErrIDConflict
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date.String())
	return nil
}

// Update implements ExpenseWriter. The whole record is replaced.
func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) error {
	receipts, err := encodeReceipts(e.ReceiptImageURIs)
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount = ?, category = ?, notes = ?, receipt_image_uris = ?,
		    timestamp = ?, timestamp_ns = ?, date = ?
		WHERE id = ?`,
		e.Title, e.Amount.String(), string(e.Category), e.Notes, receipts,
		e.Timestamp.Format(time.RFC3339Nano), e.Timestamp.UnixNano(), e.Date.String(), e.ID)
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StoreError{Op: "update", Err: err}
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteByID implements ExpenseWriter. Deleting a missing id is not an error.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return &core.StoreError{Op: "delete", Err: err}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                                core.Expense
		amount, category, receipts, date string
		ts                               string
	)
	if err := s.Scan(&e.ID, &e.Title, &amount, &category, &e.Notes, &receipts, &ts, &date); err != nil {
		return core.Expense{}, err
	}
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s amount %q: %w", e.ID, amount, err)
	}
	e.Amount = m
	e.Category = core.Category(category)
	if err := json.Unmarshal([]byte(receipts), &e.ReceiptImageURIs); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s receipts: %w", e.ID, err)
	}
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s timestamp: %w", e.ID, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	return e, nil
}

func encodeReceipts(uris []string) (string, error) {
	if uris == nil {
		uris = []string{}
	}
	b, err := json.Marshal(uris)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
