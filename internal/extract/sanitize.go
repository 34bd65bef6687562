package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

var allowedTopLevel = map[string]struct{}{
	"Description": {}, "invoice_no": {}, "invoice_date": {}, "invoice_amount": {},
	"gstin_company": {}, "gstin_client": {}, "hsn_codes": {},
	"company_details": {}, "items": {}, "summary": {},
}

// SanitizeDocument tidies raw extraction output before schema
// validation: drops nulls and empty strings, trims string values, and
// removes keys the schema does not know (extraction models
// occasionally invent fields).
func SanitizeDocument(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for k, v := range m {
		if _, ok := allowedTopLevel[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case map[string]any:
			m[k] = scrubObject(t)
		case []any:
			m[k] = scrubArray(t)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("extract.sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func scrubObject(m map[string]any) map[string]any {
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			delete(m, k)
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
			} else {
				m[k] = s
			}
		case map[string]any:
			m[k] = scrubObject(t)
		}
	}
	return m
}

func scrubArray(a []any) []any {
	for i, v := range a {
		if obj, ok := v.(map[string]any); ok {
			a[i] = scrubObject(obj)
		}
	}
	return a
}
