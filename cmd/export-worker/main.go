package main

import (
	"os"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/chart"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

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

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.ExportConcurrency, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

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

	w := worker.NewExportWorker(coordinator, client, cfg.ExportConcurrency, logger)
	logger.Info("Starting export-worker",
		"queue", cfg.AMQPQueue,
		"concurrency", cfg.ExportConcurrency,
		"artifacts", cfg.ArtifactBackend)
	if err := w.Run(ctx, client); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
