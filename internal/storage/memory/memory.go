package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Store keeps expenses in memory. It satisfies storage.ExpenseStore.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Expense
}

func New(seed ...core.Expense) *Store {
	s := &Store{items: make(map[string]core.Expense, len(seed))}
	for _, e := range seed {
		s.items[e.ID] = clone(e)
	}
	return s
}

func (s *Store) GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error) {
	return s.Find(ctx, storage.Filter{From: &start, To: &end})
}

func (s *Store) Find(ctx context.Context, f storage.Filter) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(e.Notes), q) {
			continue
		}
		out = append(out, clone(e))
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b core.Expense) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return clone(e), nil
}

func (s *Store) Insert(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; ok {
		return core.ErrIDConflict
	}
	s.items[e.ID] = clone(e)
	return nil
}

func (s *Store) Update(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return core.ErrNotFound
	}
	s.items[e.ID] = clone(e)
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func clone(e core.Expense) core.Expense {
	e.ReceiptImageURIs = slices.Clone(e.ReceiptImageURIs)
	return e
}

// KV is an in-memory preferences store.
type KV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewKV() *KV {
	return &KV{values: map[string]string{}}
}

func (k *KV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.values[key]
	return v, ok, nil
}

func (k *KV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[key] = value
	return nil
}
