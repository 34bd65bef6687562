package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

// DocumentExtractor reads pre-extracted invoice JSON from disk. The
// model-backed extraction step runs elsewhere; this is the boundary
// the engine sees.
type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentExtractor{logger: logger}
}

// Extract sanitizes and schema-validates the document, then decodes
// it. Any shape problem maps to the failure sentinel.
func (e *DocumentExtractor) Extract(ctx context.Context, path string) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	clean, _, err := SanitizeDocument(raw, e.logger)
	if err != nil {
		e.logger.Warn("extract.sanitize.failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrFailedExtraction, path)
	}

	if err := ValidateDocument(clean); err != nil {
		e.logger.Warn("extract.schema.failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrFailedExtraction, path)
	}

	var inv entity.Invoice
	if err := json.Unmarshal(clean, &inv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFailedExtraction, path)
	}
	return &inv, nil
}

var _ Extractor = (*DocumentExtractor)(nil)
