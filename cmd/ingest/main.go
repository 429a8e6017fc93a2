// Command ingest runs one ingestion pass from the command line and writes
// the normalized dataset as CSV, without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"evalpulse/internal/config"
	"evalpulse/internal/infrastructure"
	"evalpulse/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		inputDir = flag.String("dir", "", "workbook directory (default: configured input dir)")
		output   = flag.String("out", "", "CSV output path (default: <export dir>/dataset_<date>.csv)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *inputDir != "" {
		cfg.Ingest.InputDir = *inputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := services.NewDatasetService(logger, cfg)

	batch, err := service.IngestDir(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d records from %d files (batch %s)\n",
		batch.TotalRecords, len(batch.Files), batch.BatchID)
	for _, failed := range batch.FailedFiles() {
		fmt.Printf("  failed: %s\n", failed)
	}

	outPath := *output
	if outPath == "" {
		if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
		outPath = filepath.Join(cfg.Export.Dir,
			fmt.Sprintf("dataset_%s.csv", time.Now().UTC().Format("20060102_150405")))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	count, err := service.ExportCSV(ctx, f, services.Filter{})
	if err != nil {
		return err
	}

	fmt.Printf("wrote %d records to %s\n", count, outPath)
	return nil
}
