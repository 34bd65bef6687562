// Package dedupe decides whether an invoice duplicates a previously
// accepted one: exact key match first, embedding similarity second.
package dedupe

import (
	"encoding/json"

	"github.com/anand-venkat/invoice-guard/internal/entity"
	"github.com/anand-venkat/invoice-guard/internal/numeric"
)

// Projection is a noise-stripped view of an invoice used only as
// embedding input. Quantities, rates, amounts, invoice number and date
// are dropped so OCR re-runs of the same document embed identically.
type Projection struct {
	VendorGSTIN string
	VendorName  string
	Items       []ProjectedItem
	GST         numeric.Number
	CGST        numeric.Number
	SGST        numeric.Number
}

// ProjectedItem keeps only the descriptive identity of a line.
type ProjectedItem struct {
	Description string
	Code        string
}

// Project reduces an invoice to its Projection. Pure and
// deterministic; the input is never modified.
func Project(inv *entity.Invoice) Projection {
	p := Projection{
		VendorGSTIN: inv.VendorGSTIN,
		GST:         inv.Summary.GST,
		CGST:        inv.Summary.CGST,
		SGST:        inv.Summary.SGST,
	}
	if inv.CompanyDetails != nil {
		p.VendorName = inv.CompanyDetails.Name
	}
	for _, it := range inv.Items {
		p.Items = append(p.Items, ProjectedItem{
			Description: it.Description,
			Code:        it.HSNSAC,
		})
	}
	return p
}

// CanonicalText serializes the projection to a key-order-independent
// textual form: identical content always yields byte-identical text,
// hence identical embeddings from a deterministic model.
func (p Projection) CanonicalText() string {
	items := make([]any, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, map[string]any{
			"description": nullable(it.Description),
			"hsn_sac":     nullable(it.Code),
		})
	}
	doc := map[string]any{
		"gstin_company": nullable(p.VendorGSTIN),
		"company_name":  nullable(p.VendorName),
		"items":         items,
		"summary": map[string]any{
			"gst":  p.GST,
			"cgst": p.CGST,
			"sgst": p.SGST,
		},
	}
	// map keys marshal in sorted order, which is what makes this canonical
	b, _ := json.Marshal(doc)
	return string(b)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
