package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/anand-venkat/invoice-guard/internal/numeric"
)

// Invoice is an extracted invoice document as produced by the
// extraction service. The engine only reads it; transformations
// produce new values.
type Invoice struct {
	Description    string          `json:"Description,omitempty"`
	InvoiceNo      string          `json:"invoice_no,omitempty"`
	InvoiceDate    string          `json:"invoice_date,omitempty"`
	InvoiceAmount  numeric.Number  `json:"invoice_amount,omitempty"`
	VendorGSTIN    string          `json:"gstin_company,omitempty"`
	ClientGSTIN    string          `json:"gstin_client,omitempty"`
	HSNCodes       string          `json:"hsn_codes,omitempty"`
	CompanyDetails *CompanyDetails `json:"company_details,omitempty"`
	Items          []LineItem      `json:"items,omitempty"`
	Summary        Summary         `json:"summary"`
}

// CompanyDetails carries optional vendor identity beyond the GSTIN.
type CompanyDetails struct {
	Name string `json:"name,omitempty"`
}

// LineItem is a single invoice line.
type LineItem struct {
	Description string         `json:"description,omitempty"`
	HSNSAC      string         `json:"hsn_sac,omitempty"`
	Quantity    numeric.Number `json:"quantity,omitempty"`
	Rate        numeric.Number `json:"rate,omitempty"`
	Amount      numeric.Number `json:"amount,omitempty"`
	CGST        numeric.Number `json:"cgst,omitempty"`
	SGST        numeric.Number `json:"sgst,omitempty"`
	IGST        numeric.Number `json:"igst,omitempty"`
	Total       numeric.Number `json:"total,omitempty"`
}

// Summary holds the document-level totals. CGST/SGST/IGST are either
// percentages or absolute amounts; the validator disambiguates by
// magnitude.
type Summary struct {
	Subtotal    numeric.Number `json:"subtotal,omitempty"`
	TaxAmount   numeric.Number `json:"tax_amount,omitempty"`
	TotalAmount numeric.Number `json:"total_amount,omitempty"`
	GST         numeric.Number `json:"gst,omitempty"`
	CGST        numeric.Number `json:"cgst,omitempty"`
	SGST        numeric.Number `json:"sgst,omitempty"`
	IGST        numeric.Number `json:"igst,omitempty"`
	RoundOff    numeric.Number `json:"round_off,omitempty"`
}

// StoredInvoice is a persisted invoice row for data transfer between layers.
type StoredInvoice struct {
	ID         uuid.UUID `json:"id"`
	SourceName string    `json:"source_name,omitempty"`
	Invoice    Invoice   `json:"invoice"`
	CreatedAt  time.Time `json:"created_at"`
}
