package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// Consumer delivers export requests to a handler until ctx is done.
type Consumer interface {
	ConsumeExportRequests(ctx context.Context, consumer string, handler func(context.Context, *amqp.ExportRequestMessage) error) error
}

// Exporter runs one export to completion.
type Exporter interface {
	Export(ctx context.Context, req services.ExportRequest, onProgress export.ProgressFunc) (services.ExportResult, error)
}

// ExportWorker runs queued export requests.
type ExportWorker struct {
	exporter    Exporter
	notifier    services.CompletionNotifier
	concurrency int
	logger      *log.Logger
}

// NewExportWorker creates a worker running up to concurrency exports at once.
// notifier may be nil.
func NewExportWorker(exporter Exporter, notifier services.CompletionNotifier, concurrency int, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		exporter:    exporter,
		notifier:    notifier,
		concurrency: max(concurrency, 1),
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// Run starts the consumers and blocks until ctx is done or one of them fails.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range w.concurrency {
		tag := fmt.Sprintf("export-worker-%d", i+1)
		g.Go(func() error {
			err := consumer.ConsumeExportRequests(gctx, tag, w.HandleExportRequest)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	w.logger.Info("Export worker started", "consumers", w.concurrency)
	return g.Wait()
}

// HandleExportRequest runs the export described by msg. Malformed requests
// are discarded; a store outage is returned so the message is retried. Other
// failures are reported to the notifier and the message is acknowledged.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	req, err := toExportRequest(msg)
	if err != nil {
		w.logger.WarnContext(ctx, "Rejected export request", log.FieldExportID, msg.ID, log.FieldError, err)
		return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
	}

	logger := w.logger.With(log.NewFields().WithExport(req.ID, string(req.Format), req.Start, req.End).ToSlice()...)
	logger.InfoContext(ctx, "Processing export request")

	res, err := w.exporter.Export(ctx, req, func(message string, percent int) {
		logger.DebugContext(ctx, message, log.FieldPercent, percent)
	})

	switch {
	case err == nil:
		w.notify(ctx, services.ExportCompletion{
			ID: req.ID, Format: req.Format, State: services.StateComplete,
			Location: res.Location, RecordCount: res.RecordCount,
		})
		return nil
	case ctx.Err() != nil:
		// shutting down; leave the message for another worker
		return err
	case errors.Is(err, core.ErrStoreUnavailable):
		return err
	default:
		w.notify(ctx, services.ExportCompletion{
			ID: req.ID, Format: req.Format, State: services.StateFailed, Error: err.Error(),
		})
		return nil
	}
}

func (w *ExportWorker) notify(ctx context.Context, c services.ExportCompletion) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyExportCompleted(ctx, c); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish export completion", log.FieldExportID, c.ID, log.FieldError, err)
	}
}

func toExportRequest(msg *amqp.ExportRequestMessage) (services.ExportRequest, error) {
	start, err := core.ParseDate(msg.StartDate)
	if err != nil {
		return services.ExportRequest{}, fmt.Errorf("start date: %w", err)
	}
	end, err := core.ParseDate(msg.EndDate)
	if err != nil {
		return services.ExportRequest{}, fmt.Errorf("end date: %w", err)
	}
	format, err := export.ParseFormat(msg.Format)
	if err != nil {
		return services.ExportRequest{}, err
	}
	return services.ExportRequest{
		ID:             msg.ID,
		Start:          start,
		End:            end,
		Format:         format,
		CurrencySymbol: msg.Currency,
	}, nil
}
