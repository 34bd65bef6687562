// Package extract is the boundary to the document-extraction service:
// it turns extraction output into a validated invoice document or the
// failure sentinel.
package extract

import (
	"context"
	"errors"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

// ErrFailedExtraction is the failure sentinel: the extractor could not
// produce an invoice from the source. The pipeline reports it without
// invoking any validator.
var ErrFailedExtraction = errors.New("failed extraction")

// Extractor produces an invoice document from a source path.
type Extractor interface {
	Extract(ctx context.Context, path string) (*entity.Invoice, error)
}
