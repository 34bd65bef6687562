package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/anand-venkat/invoice-guard/internal/extract"
	"github.com/anand-venkat/invoice-guard/internal/validate"
)

// checkOutput is the printed result for one invoice file.
type checkOutput struct {
	File       string          `json:"file"`
	GSTINValid *bool           `json:"gstin_valid,omitempty"`
	Validation validate.Result `json:"validation"`
}

func main() {
	file := flag.String("file", "", "extracted invoice JSON file (required)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	inv, err := extract.NewDocumentExtractor(logger).Extract(context.Background(), *file)
	if err != nil {
		if errors.Is(err, extract.ErrFailedExtraction) {
			fmt.Fprintf(os.Stderr, "extraction failed: %s\n", *file)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	out := checkOutput{
		File:       *file,
		Validation: validate.NewValidator().Validate(inv),
	}
	if inv.VendorGSTIN != "" {
		ok := validate.ValidGSTIN(inv.VendorGSTIN)
		out.GSTINValid = &ok
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !out.Validation.Status {
		os.Exit(3)
	}
}
