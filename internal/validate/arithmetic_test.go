package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand-venkat/invoice-guard/internal/entity"
	"github.com/anand-venkat/invoice-guard/internal/numeric"
)

func decodeInvoice(t *testing.T, raw string) *entity.Invoice {
	t.Helper()
	var inv entity.Invoice
	require.NoError(t, json.Unmarshal([]byte(raw), &inv))
	return &inv
}

func TestValidateConsistentInvoice(t *testing.T) {
	inv := decodeInvoice(t, `{
		"summary": {
			"subtotal": "1,00,000.00",
			"cgst": 9, "sgst": 9, "igst": 0,
			"tax_amount": "18,000.00",
			"round_off": 0,
			"total_amount": "1,18,000.00"
		},
		"items": [
			{"description": "Product A", "quantity": 10, "rate": 10000, "amount": 100000}
		]
	}`)

	res := NewValidator().Validate(inv)

	assert.True(t, res.Status)
	assert.Empty(t, res.Errors)
	assert.True(t, res.GrandTotalOK)
	assert.True(t, res.SubtotalOK)
	assert.True(t, res.TaxTotalOK)
	assert.True(t, res.NoMissingData)
	assert.Equal(t, Calculated{Subtotal: 100000, TaxAmount: 18000, GrandTotal: 118000}, res.Calculated)
}

func TestValidateGrandTotalMismatch(t *testing.T) {
	inv := decodeInvoice(t, `{
		"summary": {
			"subtotal": 100000,
			"cgst": 9, "sgst": 9, "igst": 0,
			"tax_amount": 18000,
			"total_amount": 117000
		},
		"items": [
			{"description": "Product A", "quantity": 10, "rate": 10000, "amount": 100000}
		]
	}`)

	res := NewValidator().Validate(inv)

	assert.False(t, res.Status)
	assert.False(t, res.GrandTotalOK)
	assert.True(t, res.SubtotalOK)
	assert.True(t, res.TaxTotalOK)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "117000.00")
}

func TestValidateLineMismatch(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		rate     string
		amount   string
		mismatch bool
	}{
		{"exact", "2", "50", "100", false},
		{"within tolerance", "3", "33.333", "100.00", false},
		{"beyond tolerance", "2", "50", "105", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &entity.Invoice{Items: []entity.LineItem{{
				Description: "Widget",
				Quantity:    numeric.Number(tt.qty),
				Rate:        numeric.Number(tt.rate),
				Amount:      numeric.Number(tt.amount),
			}}}
			res := NewValidator().Validate(inv)
			if tt.mismatch {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0], "Widget")
			} else {
				assert.Empty(t, res.Errors)
			}
		})
	}
}

func TestValidateDegenerateRescue(t *testing.T) {
	// qty and rate both missing but amount present: one unit at that rate
	inv := decodeInvoice(t, `{
		"items": [{"description": "Consulting", "amount": 250}]
	}`)

	res := NewValidator().Validate(inv)

	assert.True(t, res.Status)
	assert.True(t, res.NoMissingData)
	assert.Equal(t, 250.0, res.Calculated.Subtotal)
}

func TestValidateMissingNumericSkipsLine(t *testing.T) {
	inv := decodeInvoice(t, `{
		"items": [
			{"description": "Good", "quantity": 2, "rate": 10, "amount": 20},
			{"description": "Broken", "quantity": 5, "rate": 7}
		]
	}`)

	res := NewValidator().Validate(inv)

	assert.False(t, res.Status)
	assert.False(t, res.NoMissingData)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Missing numeric value in item: Broken")
	// broken line is skipped, not turned into a false mismatch
	assert.Equal(t, 20.0, res.Calculated.Subtotal)
}

func TestValidateTaxAsPercentages(t *testing.T) {
	inv := decodeInvoice(t, `{
		"summary": {"cgst": 9, "sgst": 9, "igst": 0},
		"items": [{"description": "A", "quantity": 1, "rate": 1000, "amount": 1000}]
	}`)

	res := NewValidator().Validate(inv)

	assert.True(t, res.TaxTotalOK)
	assert.Equal(t, 180.0, res.Calculated.TaxAmount)
	assert.Equal(t, 1180.0, res.Calculated.GrandTotal)
}

func TestValidateTaxAsAmounts(t *testing.T) {
	inv := decodeInvoice(t, `{
		"summary": {"cgst": 900, "sgst": 900, "igst": 0, "tax_amount": 1800},
		"items": [{"description": "A", "quantity": 1, "rate": 20000, "amount": 20000}]
	}`)
	res := NewValidator().Validate(inv)
	assert.True(t, res.TaxTotalOK)
	assert.Equal(t, 1800.0, res.Calculated.TaxAmount)

	inv = decodeInvoice(t, `{
		"summary": {"cgst": 900, "sgst": 900, "igst": 0, "tax_amount": 1500},
		"items": [{"description": "A", "quantity": 1, "rate": 20000, "amount": 20000}]
	}`)
	res = NewValidator().Validate(inv)
	assert.False(t, res.TaxTotalOK)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "Tax total mismatch")
	// the summed components become the working tax regardless
	assert.Equal(t, 1800.0, res.Calculated.TaxAmount)
}

func TestValidateSubtotalMismatchKeepsDeclaredWorkingValue(t *testing.T) {
	inv := decodeInvoice(t, `{
		"summary": {"subtotal": 999, "cgst": 9, "sgst": 9, "total_amount": 1180},
		"items": [{"description": "A", "quantity": 1, "rate": 1000, "amount": 1000}]
	}`)

	res := NewValidator().Validate(inv)

	assert.False(t, res.SubtotalOK)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "Subtotal mismatch")
	// the declared subtotal stays the working value; only the
	// no-mismatch branch adopts the computed sum
	assert.Equal(t, 999.0, res.Calculated.Subtotal)
	assert.Equal(t, 1178.82, res.Calculated.GrandTotal)
	assert.False(t, res.GrandTotalOK)
}

func TestValidateNoItems(t *testing.T) {
	res := NewValidator().Validate(&entity.Invoice{})
	assert.True(t, res.Status)
	assert.Equal(t, Calculated{}, res.Calculated)
}
