package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/chart"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/preferences"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	jobRetention    = 24 * time.Hour
	cacheSweep      = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	factory := backend.NewFactory(logger)
	stores, err := factory.OpenStores(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open expense store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer stores.Cleanup()

	sink, closeSink, err := factory.OpenArtifacts(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open artifact sink", log.FieldError, err, "backend", cfg.ArtifactBackend)
		os.Exit(1)
	}
	defer closeSink()

	prefs := preferences.NewService(stores.Preferences, preferences.WithDefaultCurrency(cfg.DefaultCurrency))
	caches := cache.NewManager(logger)
	caches.Register(prefs.Cache())

	var notifier services.CompletionNotifier
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 1, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without completion events", log.FieldError, err)
		} else {
			defer client.Close()
			notifier = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var docOpts []report.Option
	if cfg.ReportFontPath != "" {
		docOpts = append(docOpts, report.WithUnicodeFont(cfg.ReportFontPath))
	}
	coordinator := services.NewExportCoordinator(stores.Expenses, sink,
		services.WithCharts(chart.NewRenderer()),
		services.WithDocumentFactory(func(symbol string) services.DocumentRenderer {
			return report.NewDocumentBuilder(symbol, docOpts...)
		}),
		services.WithDefaultCurrency(cfg.DefaultCurrency),
		services.WithLogger(logger),
	)
	jobs := services.NewExportJobs(ctx, coordinator, notifier, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:           services.NewExpenseService(stores.Expenses, prefs, logger),
		Jobs:               jobs,
		Preferences:        prefs,
		Artifacts:          sink,
		Ready:              stores.Ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DefaultCurrency:    cfg.DefaultCurrency,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expensed", "port", cfg.Port, "backend", cfg.DataBackend, "artifacts", cfg.ArtifactBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		caches.Run(gctx, cacheSweep)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				if n := jobs.Prune(now.Add(-jobRetention)); n > 0 {
					logger.Info("Pruned finished export jobs", "count", n)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		jobs.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
