package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "expenses.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func expense(id, title, amount string, cat core.Category, ts time.Time) core.Expense {
	return core.Expense{
		ID:        id,
		Title:     title,
		Amount:    core.MustMoney(amount),
		Category:  cat,
		Timestamp: ts,
		Date:      core.DateOf(ts),
	}
}

func TestMigrationsApplied(t *testing.T) {
	_, path := newTestRepo(t)
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 2 || dirty {
		t.Fatalf("expected clean version 2, got %d dirty=%v", v, dirty)
	}
	// running again is a no-op
	if err := RunMigrations(path); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	ist := time.FixedZone("IST", 5*3600+1800)
	e := expense("a", `Lunch, "team"`, "12.505", core.Food, time.Date(2024, 1, 2, 0, 30, 0, 0, ist))
	e.Notes = "50% off_deal"
	e.ReceiptImageURIs = []string{"content://1", "content://2"}

	if err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != e.Title || !got.Amount.Equal(e.Amount) || got.Notes != e.Notes || got.Category != core.Food {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(e.Timestamp) || !got.Date.Equal(core.NewDate(2024, 1, 2)) {
		t.Fatalf("time mismatch: %s %s", got.Timestamp, got.Date)
	}
	if len(got.ReceiptImageURIs) != 2 || got.ReceiptImageURIs[1] != "content://2" {
		t.Fatalf("receipts mismatch: %v", got.ReceiptImageURIs)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("stored expense no longer validates: %v", err)
	}
}

func TestRepositoryErrors(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	e := expense("a", "Taxi", "7", core.Travel, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	if err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(ctx, e); !errors.Is(err, core.ErrIDConflict) {
		t.Fatalf("expected id conflict, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Update(ctx, expense("nope", "x", "1", core.Food, time.Now())); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := repo.DeleteByID(ctx, "nope"); err != nil {
		t.Fatalf("delete of missing id should be silent, got %v", err)
	}

	repo.Close()
	if _, err := repo.GetByDateRange(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 1)); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable on closed db, got %v", err)
	}
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	e := expense("a", "Taxi", "7", core.Travel, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	_ = repo.Insert(ctx, e)

	e.Title, e.Amount = "Cab", core.MustMoney("9.75")
	if err := repo.Update(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetByID(ctx, "a")
	if got.Title != "Cab" || got.Amount.StringFixed(2) != "9.75" {
		t.Fatalf("update not applied: %+v", got)
	}
	if err := repo.DeleteByID(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
}

func TestRepositoryFind(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	seed := []core.Expense{
		expense("a", "Lunch", "10", core.Food, base),
		expense("b", "Team lunch", "20", core.Food, base.Add(time.Hour)),
		expense("c", "Paper", "5", core.Utility, base.Add(24*time.Hour)),
		expense("d", "100%_juice", "3", core.Food, base.Add(72*time.Hour)),
	}
	for _, e := range seed {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("insert %s: %v", e.ID, err)
		}
	}

	cases := []struct {
		name string
		f    Filter
		want string
	}{
		{"all newest first", Filter{}, "dcba"},
		{"range inclusive", Filter{From: ptr(core.NewDate(2024, 1, 1)), To: ptr(core.NewDate(2024, 1, 2))}, "cba"},
		{"category", Filter{Category: core.Utility}, "c"},
		{"search case-insensitive", Filter{Query: "LUNCH"}, "ba"},
		{"like wildcards are literal", Filter{Query: "%_"}, "d"},
		{"inverted range", Filter{From: ptr(core.NewDate(2024, 1, 2)), To: ptr(core.NewDate(2024, 1, 1))}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Find(ctx, tc.f)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			var ids string
			for _, e := range got {
				ids += e.ID
			}
			if ids != tc.want {
				t.Fatalf("ids = %q, want %q", ids, tc.want)
			}
		})
	}
}

func TestPreferencesKV(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	kv := repo.Preferences()
	if _, ok, err := kv.Get(ctx, "default_currency"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "default_currency", "$"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "default_currency", "€"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, "default_currency"); !ok || v != "€" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
}

func ptr[T any](v T) *T { return &v }
