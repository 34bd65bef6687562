package dedupe

import (
	"context"
	"log/slog"

	"github.com/anand-venkat/invoice-guard/internal/entity"
	"github.com/anand-venkat/invoice-guard/internal/repository"
)

// ExactMatcher confirms whether one exact duplicate of an invoice
// already exists in the store. It never enumerates all duplicates.
type ExactMatcher struct {
	repo   repository.InvoiceRepository
	logger *slog.Logger
}

func NewExactMatcher(repo repository.InvoiceRepository, logger *slog.Logger) *ExactMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExactMatcher{repo: repo, logger: logger}
}

// BuildFilter derives the exact-match query from the invoice. Fields
// the input lacks are omitted, not wildcarded. The total prefers the
// summary total over the top-level invoice amount. An input with none
// of the key fields yields an empty filter, which is never sent.
func BuildFilter(inv *entity.Invoice) repository.InvoiceFilter {
	f := repository.InvoiceFilter{
		InvoiceNo:   inv.InvoiceNo,
		VendorGSTIN: inv.VendorGSTIN,
		InvoiceDate: inv.InvoiceDate,
	}
	if inv.Summary.TotalAmount.Present() {
		v := inv.Summary.TotalAmount.Float()
		f.Total = &v
	} else if inv.InvoiceAmount.Present() {
		v := inv.InvoiceAmount.Float()
		f.Total = &v
	}
	return f
}

// FindExact returns the first stored duplicate, or nil when there is
// none or the invoice carries no identifying fields at all.
func (m *ExactMatcher) FindExact(ctx context.Context, inv *entity.Invoice) (*entity.StoredInvoice, error) {
	f := BuildFilter(inv)
	if f.Empty() {
		return nil, nil
	}
	return m.repo.FindFirst(ctx, f)
}
