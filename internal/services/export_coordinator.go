package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/artifact"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"
)

// ExportState is the lifecycle position of an export run.
type ExportState string

const (
	StateIdle       ExportState = "idle"
	StateFetching   ExportState = "fetching"
	StateFormatting ExportState = "formatting"
	StateWriting    ExportState = "writing"
	StateComplete   ExportState = "complete"
	StateCancelled  ExportState = "cancelled"
	StateFailed     ExportState = "failed"
)

// Terminal reports whether no further transition can happen.
func (s ExportState) Terminal() bool {
	return s == StateComplete || s == StateCancelled || s == StateFailed
}

// ChartRenderer produces chart images for the PDF report. A nil chart with a
// nil error means there is nothing worth drawing.
type ChartRenderer interface {
	RenderDailyChart(ctx context.Context, days []core.DailySummary) (*report.Chart, error)
	RenderCategoryChart(ctx context.Context, cats []core.CategorySummary) (*report.Chart, error)
}

// DocumentRenderer renders the report document.
type DocumentRenderer interface {
	Render(ctx context.Context, w io.Writer, payload core.ReportPayload, daily, category *report.Chart) error
}

// DocumentFactory builds a renderer for a currency symbol.
type DocumentFactory func(currencySymbol string) DocumentRenderer

// ExportRequest selects the expenses dated within [Start, End] and the output
// format. An empty CurrencySymbol uses the coordinator default and an empty ID
// gets a generated one.
type ExportRequest struct {
	ID             string
	Start          core.Date
	End            core.Date
	Format         export.Format
	CurrencySymbol string
}

type ExportResult struct {
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	RecordCount int           `json:"recordCount"`
	Format      export.Format `json:"format"`
}

// ExportCoordinator runs exports: fetch, format, write the artifact.
type ExportCoordinator struct {
	store     storage.ExpenseReader
	sink      artifact.Sink
	exporter  *export.Exporter
	charts    ChartRenderer
	documents DocumentFactory
	currency  string
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

type CoordinatorOption func(*ExportCoordinator)

// WithCharts enables chart sections in PDF reports.
func WithCharts(r ChartRenderer) CoordinatorOption {
	return func(c *ExportCoordinator) { c.charts = r }
}

func WithDocumentFactory(f DocumentFactory) CoordinatorOption {
	return func(c *ExportCoordinator) { c.documents = f }
}

func WithDefaultCurrency(symbol string) CoordinatorOption {
	return func(c *ExportCoordinator) { c.currency = symbol }
}

func WithLogger(l *log.Logger) CoordinatorOption {
	return func(c *ExportCoordinator) { c.logger = l }
}

func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *ExportCoordinator) {
		c.now = now
		c.exporter = c.exporter.WithClock(now)
	}
}

func NewExportCoordinator(store storage.ExpenseReader, sink artifact.Sink, opts ...CoordinatorOption) *ExportCoordinator {
	c := &ExportCoordinator{
		store:    store,
		sink:     sink,
		exporter: export.NewExporter(),
		documents: func(symbol string) DocumentRenderer {
			return report.NewDocumentBuilder(symbol)
		},
		currency: "₹",
		logger:   log.Discard(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentExport)
	return c
}

// ExportRun is one export in flight. Its methods are safe for concurrent use.
type ExportRun struct {
	ID        string
	Request   ExportRequest
	CreatedAt time.Time

	mu       sync.Mutex
	state    ExportState
	last     export.Event
	result   ExportResult
	err      error
	finished time.Time

	tracker *export.Tracker
	cancel  context.CancelFunc
	done    chan struct{}
}

// Cancel stops the run. No progress is delivered after Cancel returns.
func (r *ExportRun) Cancel() {
	r.tracker.Stop()
	r.cancel()
}

func (r *ExportRun) State() ExportState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress returns the last delivered progress event.
func (r *ExportRun) Progress() export.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Done is closed once the run reaches a terminal state.
func (r *ExportRun) Done() <-chan struct{} { return r.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (r *ExportRun) Result() (ExportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.err
}

// FinishedAt is zero until the run is terminal.
func (r *ExportRun) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *ExportRun) setState(s ExportState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Terminal() {
		r.state = s
	}
}

func (r *ExportRun) finish(s ExportState, res ExportResult, err error, at time.Time) {
	r.mu.Lock()
	r.state, r.result, r.err, r.finished = s, res, err, at
	r.mu.Unlock()
	r.tracker.Stop()
	close(r.done)
}

// Export runs an export to completion on the calling goroutine. A cancelled
// ctx ends it in the cancelled state with ctx's error.
func (c *ExportCoordinator) Export(ctx context.Context, req ExportRequest, onProgress export.ProgressFunc) (ExportResult, error) {
	run, ctx := c.newRun(ctx, req, onProgress)
	defer run.cancel()
	c.execute(ctx, run)
	return run.Result()
}

// Start runs an export on a new goroutine.
func (c *ExportCoordinator) Start(ctx context.Context, req ExportRequest, onProgress export.ProgressFunc) *ExportRun {
	run, ctx := c.newRun(ctx, req, onProgress)
	go func() {
		defer run.cancel()
		c.execute(ctx, run)
	}()
	return run
}

func (c *ExportCoordinator) newRun(ctx context.Context, req ExportRequest, onProgress export.ProgressFunc) (*ExportRun, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	id := req.ID
	if id == "" {
		id = c.newID()
	}
	run := &ExportRun{
		ID:        id,
		Request:   req,
		CreatedAt: c.now(),
		state:     StateIdle,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	run.tracker = export.NewTracker(func(message string, percent int) {
		if ctx.Err() != nil {
			return
		}
		run.mu.Lock()
		run.last = export.Event{Message: message, Percent: percent}
		run.mu.Unlock()
		if onProgress != nil {
			onProgress(message, percent)
		}
	})
	return run, ctx
}

func (c *ExportCoordinator) execute(ctx context.Context, run *ExportRun) {
	req := run.Request
	logger := c.logger.With(log.NewFields().WithExport(run.ID, string(req.Format), req.Start, req.End).ToSlice()...)
	logger.InfoContext(ctx, "Export started")

	res, state, err := c.run(ctx, run, logger)
	switch state {
	case StateComplete:
		logger.InfoContext(ctx, "Export complete",
			log.FieldRecordCount, res.RecordCount, log.FieldLocation, res.Location)
	case StateCancelled:
		logger.InfoContext(ctx, "Export cancelled")
	default:
		logger.ErrorContext(ctx, "Export failed", log.FieldError, err)
	}
	run.finish(state, res, err, c.now())
}

func (c *ExportCoordinator) run(ctx context.Context, run *ExportRun, logger *log.Logger) (ExportResult, ExportState, error) {
	req := run.Request
	progress := run.tracker

	if !req.Format.Valid() {
		return ExportResult{}, StateFailed, &core.ExportError{Format: string(req.Format), Err: fmt.Errorf("unsupported format %q", string(req.Format))}
	}
	if err := ctx.Err(); err != nil {
		return ExportResult{}, StateCancelled, err
	}

	run.setState(StateFetching)
	expenses := []core.Expense{}
	if !req.Start.After(req.End) {
		var err error
		expenses, err = c.store.GetByDateRange(ctx, req.Start, req.End)
		if err != nil {
			return c.abort(ctx, err)
		}
	}
	progress.Report(fmt.Sprintf("Found %d expenses", len(expenses)), 10)

	run.setState(StateFormatting)
	var buf bytes.Buffer
	switch req.Format {
	case export.CSV:
		progress.Report("Preparing CSV export...", 30)
		if err := c.exporter.WriteCSV(ctx, &buf, expenses, progress.Report); err != nil {
			return c.abort(ctx, err)
		}
		progress.Report("Saving CSV file...", 90)
	case export.JSON:
		progress.Report("Preparing JSON export...", 30)
		if err := c.exporter.WriteJSON(ctx, &buf, expenses, progress.Report); err != nil {
			return c.abort(ctx, err)
		}
		progress.Report("Saving JSON file...", 90)
	case export.PDF:
		if err := c.renderPDF(ctx, &buf, req, expenses, progress, logger); err != nil {
			return c.abort(ctx, err)
		}
		progress.Report("Saving PDF...", 90)
	}

	if err := ctx.Err(); err != nil {
		return ExportResult{}, StateCancelled, err
	}
	run.setState(StateWriting)
	name := c.artifactName(run.ID, req.Format)
	location, err := c.sink.Put(ctx, name, req.Format.ContentType(), &buf)
	if err != nil {
		if ctx.Err() != nil {
			return ExportResult{}, StateCancelled, ctx.Err()
		}
		return ExportResult{}, StateFailed, &core.ExportError{Format: string(req.Format), Err: err}
	}
	if err := ctx.Err(); err != nil {
		// cancelled after the upload finished: discard what was written
		if derr := c.sink.Delete(context.WithoutCancel(ctx), name); derr != nil {
			logger.WarnContext(ctx, "Failed to discard cancelled artifact", log.FieldError, derr)
		}
		return ExportResult{}, StateCancelled, err
	}

	run.setState(StateComplete)
	progress.Report("Export complete!", 100)
	return ExportResult{
		Name:        name,
		Location:    location,
		RecordCount: len(expenses),
		Format:      req.Format,
	}, StateComplete, nil
}

func (c *ExportCoordinator) renderPDF(ctx context.Context, w io.Writer, req ExportRequest, expenses []core.Expense, progress *export.Tracker, logger *log.Logger) error {
	progress.Report("Generating report data...", 20)
	payload := c.exporter.BuildReportPayload(expenses)

	var daily, category *report.Chart
	if c.charts != nil {
		var err error
		if daily, err = c.charts.RenderDailyChart(ctx, payload.Daily); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WarnContext(ctx, "Daily chart omitted", log.FieldError, err)
			daily = nil
		}
		if category, err = c.charts.RenderCategoryChart(ctx, payload.Categories); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WarnContext(ctx, "Category chart omitted", log.FieldError, err)
			category = nil
		}
	}
	progress.Report("Generating charts...", 40)
	if err := ctx.Err(); err != nil {
		return err
	}

	progress.Report("Creating PDF...", 70)
	symbol := req.CurrencySymbol
	if symbol == "" {
		symbol = c.currency
	}
	if err := c.documents(symbol).Render(ctx, w, payload, daily, category); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, core.ErrReportGeneration) {
			err = &core.ReportError{Stage: "render", Err: err}
		}
		return err
	}
	return nil
}

// abort classifies err as a cancellation or a failure.
func (c *ExportCoordinator) abort(ctx context.Context, err error) (ExportResult, ExportState, error) {
	if ctx.Err() != nil {
		return ExportResult{}, StateCancelled, ctx.Err()
	}
	return ExportResult{}, StateFailed, err
}

func (c *ExportCoordinator) artifactName(id string, f export.Format) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	prefix := "expenses"
	if f == export.PDF {
		prefix = "expense_report"
	}
	return fmt.Sprintf("%s_%s_%s%s", prefix, c.now().Format("20060102-150405"), short, f.Extension())
}
