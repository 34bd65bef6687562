package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anand-venkat/invoice-guard/constants"
	"github.com/anand-venkat/invoice-guard/internal/async"
	"github.com/anand-venkat/invoice-guard/internal/common"
	"github.com/anand-venkat/invoice-guard/internal/dedupe"
	"github.com/anand-venkat/invoice-guard/internal/embeddings/ollama"
	"github.com/anand-venkat/invoice-guard/internal/export"
	"github.com/anand-venkat/invoice-guard/internal/extract"
	"github.com/anand-venkat/invoice-guard/internal/pipeline"
	repo "github.com/anand-venkat/invoice-guard/internal/repository"
	"github.com/anand-venkat/invoice-guard/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir     = flag.String("dir", "", "directory of extracted invoice JSON files (required)")
		out     = flag.String("out", "", "output XLSX report path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 0, "worker count (overrides PIPELINE_WORKERS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "validation.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}

	// Wire repositories: Postgres when configured, SQLite otherwise.
	var (
		invoices repo.InvoiceRepository
		embStore repo.EmbeddingRepository
	)
	if *inmem || cfg.Database.DSN == "" {
		db, err := repo.OpenSQLite(":memory:")
		if err != nil {
			logger.Error("failed to open sqlite", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		invoices = repo.NewSQLiteInvoiceRepository(db, logger)
		embStore = repo.NewSQLiteEmbeddingRepository(db, logger)
		logger.Info("using in-memory sqlite store")
	} else {
		pool, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		invoices = repo.NewInvoiceRepository(pool, logger)
		embStore = repo.NewEmbeddingRepository(pool, logger)
	}

	embedder := ollama.NewEmbedder(ollama.Config{
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	})
	defer embedder.Close()

	pipe := pipeline.New(
		invoices, embStore,
		validate.NewValidator(),
		dedupe.NewExactMatcher(invoices, logger),
		dedupe.NewFuzzyMatcher(embedder, cfg.Dedupe.FuzzyThreshold, cfg.Dedupe.FuzzyTopK, logger),
		logger,
	)
	pipe.BlockOnInvalid = cfg.Pipeline.BlockOnInvalid

	extractor := extract.NewDocumentExtractor(logger)

	var (
		mu      sync.Mutex
		results []*pipeline.Result
	)
	queue := async.NewPipelineQueue(pipe, extractor, func(r *pipeline.Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithRecordTimeout(cfg.Pipeline.RecordTimeout),
	)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	queued := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		_ = queue.Enqueue(ctx, async.Job{
			Path:        filepath.Join(*dir, e.Name()),
			SubmittedAt: time.Now(),
		})
		queued++
	}
	if queued == 0 {
		printError("Error: no .json files found in %s\n", *dir)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	counts := map[constants.Decision]int{}
	for _, r := range results {
		counts[r.Decision]++
	}
	logger.Info("batch.done",
		"processed", len(results),
		"accepted", counts[constants.DecisionAccepted],
		"exact_duplicates", counts[constants.DecisionExactDuplicate],
		"fuzzy_duplicates", counts[constants.DecisionFuzzyDuplicate],
		"rejected_invalid", counts[constants.DecisionRejectedInvalid],
		"extraction_failed", counts[constants.DecisionExtractionFailed],
	)

	report, err := export.NewService(logger).ReportXLSX(results)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, report, 0o644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "path", *out)
}
