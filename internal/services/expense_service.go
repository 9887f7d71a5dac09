package services

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"
)

// CategoryRecorder remembers the category of the last entered expense.
type CategoryRecorder interface {
	SetLastUsedCategory(ctx context.Context, c core.Category) error
}

// CreateOptions controls the entry flow.
type CreateOptions struct {
	CheckDuplicates bool
}

// ExpenseService runs the expense entry, browse and report flows.
type ExpenseService struct {
	store  storage.ExpenseStore
	prefs  CategoryRecorder
	logger *log.Logger
}

// NewExpenseService creates the service. prefs may be nil.
func NewExpenseService(store storage.ExpenseStore, prefs CategoryRecorder, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:  store,
		prefs:  prefs,
		logger: logger.WithComponent(log.ComponentExpense),
	}
}

// Create validates e, optionally rejects likely duplicates, and stores it.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense, opts CreateOptions) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if opts.CheckDuplicates {
		if dup, ok := s.findDuplicate(ctx, e); ok {
			s.logger.InfoContext(ctx, "Duplicate expense rejected",
				log.NewFields().WithExpense(e).WithOperation(log.OpCreate).ToSlice()...)
			return core.Expense{}, &core.DuplicateExpenseError{Title: dup.Title, Amount: dup.Amount}
		}
	}

	if err := s.store.Insert(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.prefs != nil {
		if err := s.prefs.SetLastUsedCategory(ctx, e.Category); err != nil {
			s.logger.WarnContext(ctx, "Failed to record last used category",
				log.FieldCategory, e.Category, log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.NewFields().WithExpense(e).WithOperation(log.OpCreate).ToSlice()...)
	return e, nil
}

// findDuplicate never fails the caller: lookup errors are logged and read as
// "no duplicate".
func (s *ExpenseService) findDuplicate(ctx context.Context, e core.Expense) (core.Expense, bool) {
	sameDay, err := s.store.GetByDateRange(ctx, e.Date, e.Date)
	if err != nil {
		s.logger.WarnContext(ctx, "Duplicate check failed, continuing without it",
			log.NewFields().WithExpense(e).WithError(err).ToSlice()...)
		return core.Expense{}, false
	}
	return core.FindDuplicate(e, sameDay)
}

// Update replaces the stored record with the same id.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, e); err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	s.logger.InfoContext(ctx, "Expense updated",
		log.NewFields().WithExpense(e).WithOperation(log.OpUpdate).ToSlice()...)
	return nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context, f storage.Filter) ([]core.Expense, error) {
	expenses, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// DailyTotal sums the expenses recorded on date.
func (s *ExpenseService) DailyTotal(ctx context.Context, date core.Date) (core.Money, int, error) {
	expenses, err := s.store.GetByDateRange(ctx, date, date)
	if err != nil {
		return core.Money{}, 0, fmt.Errorf("daily total: %w", err)
	}
	return core.Sum(expenses), len(expenses), nil
}

// Report aggregates the expenses dated within [start, end].
func (s *ExpenseService) Report(ctx context.Context, start, end core.Date) (core.ReportPayload, error) {
	if start.After(end) {
		return report.Aggregate(nil), nil
	}
	expenses, err := s.store.GetByDateRange(ctx, start, end)
	if err != nil {
		return core.ReportPayload{}, fmt.Errorf("report: %w", err)
	}
	return report.Aggregate(expenses), nil
}
