// Package repository persists invoices and their projection
// embeddings. Both Postgres and SQLite backends implement the same
// interfaces; the engine never touches a store directly.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

// InvoiceFilter is an exact-match query over persisted invoices.
// Zero-valued fields are omitted from the query, not matched loosely.
type InvoiceFilter struct {
	InvoiceNo   string
	VendorGSTIN string
	InvoiceDate string
	// Total matches the stored summary total OR the stored top-level
	// invoice amount.
	Total *float64
}

// Empty reports whether the filter would select everything. An empty
// filter is never sent to the store.
func (f InvoiceFilter) Empty() bool {
	return f.InvoiceNo == "" && f.VendorGSTIN == "" && f.InvoiceDate == "" && f.Total == nil
}

// InvoiceRepository stores extracted invoice documents.
type InvoiceRepository interface {
	// FindFirst returns the first invoice matching the filter, or nil
	// when there is no match or the filter is empty.
	FindFirst(ctx context.Context, f InvoiceFilter) (*entity.StoredInvoice, error)

	// Insert persists the invoice and returns its new identifier.
	Insert(ctx context.Context, inv *entity.Invoice, sourceName string) (uuid.UUID, error)
}

// EmbeddingRepository stores projection embeddings for fuzzy matching.
type EmbeddingRepository interface {
	// ListAll returns every stored embedding. The collection is
	// small-to-moderate; the fuzzy matcher scans it linearly.
	ListAll(ctx context.Context) ([]entity.EmbeddingRecord, error)

	// Insert persists an embedding record and returns its identifier.
	Insert(ctx context.Context, rec entity.EmbeddingRecord) (uuid.UUID, error)
}
