package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractValidDocument(t *testing.T) {
	path := writeDoc(t, `{
		"invoice_no": "INV-1",
		"invoice_date": "20-Aug-25",
		"gstin_company": "27AAPFU0939F1ZV",
		"hallucinated_field": "should vanish",
		"items": [
			{"description": "Product A", "quantity": 10, "rate": "10,000", "amount": 100000, "total": null}
		],
		"summary": {"subtotal": 100000, "cgst": 9, "sgst": 9, "igst": null, "tax_amount": 18000, "total_amount": 118000}
	}`)

	inv, err := NewDocumentExtractor(nil).Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "INV-1", inv.InvoiceNo)
	assert.Equal(t, "27AAPFU0939F1ZV", inv.VendorGSTIN)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 10000.0, inv.Items[0].Rate.Float())
	assert.Equal(t, 118000.0, inv.Summary.TotalAmount.Float())
	assert.False(t, inv.Summary.IGST.Present())
}

func TestExtractNotJSON(t *testing.T) {
	path := writeDoc(t, "this is not an invoice")
	_, err := NewDocumentExtractor(nil).Extract(context.Background(), path)
	require.ErrorIs(t, err, ErrFailedExtraction)
}

func TestExtractSchemaViolation(t *testing.T) {
	// items must be an array
	path := writeDoc(t, `{"items": {"description": "x"}}`)
	_, err := NewDocumentExtractor(nil).Extract(context.Background(), path)
	require.ErrorIs(t, err, ErrFailedExtraction)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewDocumentExtractor(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFailedExtraction)
}

func TestSanitizeDocument(t *testing.T) {
	out, dropped, err := SanitizeDocument([]byte(`{
		"invoice_no": "  INV-9 ",
		"gstin_company": null,
		"confidence": 0.93,
		"summary": {"subtotal": "", "cgst": 9}
	}`), nil)

	require.NoError(t, err)
	assert.Contains(t, dropped, "gstin_company(null)")
	assert.Contains(t, dropped, "confidence(unknown)")
	assert.JSONEq(t, `{"invoice_no":"INV-9","summary":{"cgst":9}}`, string(out))
}
