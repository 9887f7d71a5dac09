// Command export-request queues an export for cmd/export-worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
)

func main() {
	cli.LoadEnvFile()

	now := time.Now()
	first := core.NewDate(now.Year(), int(now.Month()), 1)

	from := flag.String("from", first.String(), "first day to export (YYYY-MM-DD)")
	to := flag.String("to", core.DateOf(first.AddDate(0, 1, -1)).String(), "last day to export (YYYY-MM-DD)")
	format := flag.String("format", string(export.CSV), "csv, json or pdf")
	currency := flag.String("currency", "", "currency symbol for PDF reports")
	flag.Parse()

	if err := run(*from, *to, *format, *currency); err != nil {
		fmt.Fprintln(os.Stderr, "export-request:", err)
		os.Exit(1)
	}
}

func run(from, to, format, currency string) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}
	if _, err := core.ParseDate(from); err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	if _, err := core.ParseDate(to); err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 1, cli.SetupLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer client.Close()

	msg := amqp.NewExportRequestMessage(from, to, string(f), currency)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.PublishExportRequest(ctx, msg); err != nil {
		return fmt.Errorf("publish export request: %w", err)
	}
	fmt.Println(msg.ID)
	return nil
}
