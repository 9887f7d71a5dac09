package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/artifact"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

type recordingNotifier struct {
	mu  sync.Mutex
	got []services.ExportCompletion
}

func (n *recordingNotifier) NotifyExportCompleted(_ context.Context, c services.ExportCompletion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, c)
	return nil
}

type brokenStore struct {
	storage.ExpenseReader
}

func (brokenStore) GetByDateRange(context.Context, core.Date, core.Date) ([]core.Expense, error) {
	return nil, &core.StoreError{Op: "find", Err: errors.New("database is locked")}
}

// fakeConsumer hands each queued message to the first consumer that asks.
type fakeConsumer struct {
	msgs    chan *amqp.ExportRequestMessage
	mu      sync.Mutex
	results map[string]error
	tags    map[string]bool
}

func newFakeConsumer(msgs ...*amqp.ExportRequestMessage) *fakeConsumer {
	ch := make(chan *amqp.ExportRequestMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &fakeConsumer{msgs: ch, results: map[string]error{}, tags: map[string]bool{}}
}

func (f *fakeConsumer) ConsumeExportRequests(ctx context.Context, tag string, handler func(context.Context, *amqp.ExportRequestMessage) error) error {
	f.mu.Lock()
	f.tags[tag] = true
	f.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-f.msgs:
			err := handler(ctx, m)
			f.mu.Lock()
			f.results[m.ID] = err
			f.mu.Unlock()
		}
	}
}

func seededCoordinator(t *testing.T, reader storage.ExpenseReader) *services.ExportCoordinator {
	t.Helper()
	sink, err := artifact.NewLocalSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return services.NewExportCoordinator(reader, sink)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	e, err := core.NewExpense("Lunch", core.MustMoney("12.50"), core.Food, "", nil, time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return memory.New(e)
}

func TestHandleExportRequest(t *testing.T) {
	tests := []struct {
		name        string
		msg         *amqp.ExportRequestMessage
		reader      func(*testing.T) storage.ExpenseReader
		wantDiscard bool
		wantErr     error
		wantState   services.ExportState
	}{
		{
			name:      "success",
			msg:       &amqp.ExportRequestMessage{ID: "ok", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "CSV"},
			wantState: services.StateComplete,
		},
		{
			name:        "bad date",
			msg:         &amqp.ExportRequestMessage{ID: "bad", StartDate: "01/01/2024", EndDate: "2024-01-31", Format: "csv"},
			wantDiscard: true,
		},
		{
			name:        "bad format",
			msg:         &amqp.ExportRequestMessage{ID: "xml", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "xml"},
			wantDiscard: true,
		},
		{
			name:    "store outage is retried",
			msg:     &amqp.ExportRequestMessage{ID: "locked", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "json"},
			reader:  func(*testing.T) storage.ExpenseReader { return brokenStore{} },
			wantErr: core.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reader storage.ExpenseReader = seededStore(t)
			if tt.reader != nil {
				reader = tt.reader(t)
			}
			notifier := &recordingNotifier{}
			w := NewExportWorker(seededCoordinator(t, reader), notifier, 1, nil)

			err := w.HandleExportRequest(context.Background(), tt.msg)
			switch {
			case tt.wantDiscard:
				if !errors.Is(err, amqp.ErrDiscard) {
					t.Fatalf("error = %v, want ErrDiscard", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("HandleExportRequest: %v", err)
				}
			}

			if tt.wantState == "" {
				if len(notifier.got) != 0 {
					t.Errorf("unexpected completions %+v", notifier.got)
				}
				return
			}
			if len(notifier.got) != 1 {
				t.Fatalf("completions = %+v", notifier.got)
			}
			got := notifier.got[0]
			if got.ID != tt.msg.ID || got.State != tt.wantState || got.Format != export.CSV || got.RecordCount != 1 {
				t.Errorf("completion = %+v", got)
			}
		})
	}
}

func TestHandleExportRequestReportsFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	sink, err := artifact.NewLocalSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	failing := func(string) services.DocumentRenderer { return failingDocument{} }
	c := services.NewExportCoordinator(seededStore(t), sink, services.WithDocumentFactory(failing))
	w := NewExportWorker(c, notifier, 1, nil)

	msg := &amqp.ExportRequestMessage{ID: "pdf", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "pdf"}
	if err := w.HandleExportRequest(context.Background(), msg); err != nil {
		t.Fatalf("a report failure should be acknowledged, got %v", err)
	}
	if len(notifier.got) != 1 || notifier.got[0].State != services.StateFailed || notifier.got[0].Error == "" {
		t.Fatalf("completions = %+v", notifier.got)
	}
}

func TestRunSpreadsAcrossConsumers(t *testing.T) {
	msgs := []*amqp.ExportRequestMessage{
		{ID: "a", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "csv"},
		{ID: "b", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "json"},
		{ID: "c", StartDate: "2024-01-01", EndDate: "2024-01-31", Format: "nope"},
	}
	consumer := newFakeConsumer(msgs...)
	notifier := &recordingNotifier{}
	w := NewExportWorker(seededCoordinator(t, seededStore(t)), notifier, 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	deadline := time.After(5 * time.Second)
	for {
		consumer.mu.Lock()
		n := len(consumer.results)
		consumer.mu.Unlock()
		if n == len(msgs) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d of %d messages handled", n, len(msgs))
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	if len(consumer.tags) != 3 {
		t.Errorf("started %d consumers, want 3", len(consumer.tags))
	}
	if consumer.results["a"] != nil || consumer.results["b"] != nil {
		t.Errorf("results = %v", consumer.results)
	}
	if !errors.Is(consumer.results["c"], amqp.ErrDiscard) {
		t.Errorf("bad format result = %v", consumer.results["c"])
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.got) != 2 {
		t.Errorf("completions = %d, want 2", len(notifier.got))
	}
}

type failingDocument struct{}

func (failingDocument) Render(context.Context, io.Writer, core.ReportPayload, *report.Chart, *report.Chart) error {
	return errors.New("page overflow")
}
