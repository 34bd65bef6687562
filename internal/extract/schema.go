package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the JSON-Schema (draft 2020-12
// subset) the extraction service is expected to honor. Numeric fields
// accept numbers or grouped strings because OCR output varies.
func BuildInvoiceJSONSchema() map[string]any {
	itemProps := map[string]any{
		"description": stringOrNull(),
		"hsn_sac":     stringOrNull(),
		"quantity":    flexNumber(),
		"rate":        flexNumber(),
		"amount":      flexNumber(),
		"cgst":        flexNumber(),
		"sgst":        flexNumber(),
		"igst":        flexNumber(),
		"total":       flexNumber(),
	}
	summaryProps := map[string]any{
		"subtotal":     flexNumber(),
		"tax_amount":   flexNumber(),
		"total_amount": flexNumber(),
		"gst":          flexNumber(),
		"cgst":         flexNumber(),
		"sgst":         flexNumber(),
		"igst":         flexNumber(),
		"round_off":    flexNumber(),
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"Description":    stringOrNull(),
			"invoice_no":     stringOrNull(),
			"invoice_date":   stringOrNull(),
			"invoice_amount": flexNumber(),
			"gstin_company":  stringOrNull(),
			"gstin_client":   stringOrNull(),
			"hsn_codes":      stringOrNull(),
			"company_details": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"name": stringOrNull(),
				},
				"additionalProperties": true,
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           itemProps,
					"additionalProperties": false,
				},
			},
			"summary": map[string]any{
				"type":                 "object",
				"properties":           summaryProps,
				"additionalProperties": false,
			},
		},
	}
}

func stringOrNull() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func flexNumber() map[string]any {
	return map[string]any{"type": []any{"number", "string", "null"}}
}

var (
	schemaOnce     sync.Once
	invoiceSchema  *jsonschema.Schema
	schemaBuildErr error
)

// ValidateDocument validates data against the invoice schema.
func ValidateDocument(data []byte) error {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildInvoiceJSONSchema())
		if err != nil {
			schemaBuildErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.schema.json", bytes.NewReader(b)); err != nil {
			schemaBuildErr = fmt.Errorf("add schema: %w", err)
			return
		}
		invoiceSchema, schemaBuildErr = compiler.Compile("invoice.schema.json")
	})
	if schemaBuildErr != nil {
		return schemaBuildErr
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := invoiceSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
