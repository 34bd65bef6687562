// Package numeric parses the loosely typed numbers that come out of
// document extraction: native JSON numbers, grouped strings like
// "1,70,632.00", empty strings, or nothing at all.
package numeric

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a scalar field that may arrive as a JSON number, a
// formatted string, or null. The raw text is preserved so callers can
// distinguish "missing" from an actual zero.
type Number string

// UnmarshalJSON accepts string, number, or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(v))
		return nil
	}
	*n = Number(s)
	return nil
}

// MarshalJSON emits a number when the value parses cleanly, the raw
// string otherwise, and null when absent.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(n), 64); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

// Present reports whether the source document carried any value.
func (n Number) Present() bool {
	s := strings.TrimSpace(string(n))
	return s != "" && s != "None"
}

// Float normalizes the value to a float64. Absent, empty, or
// unparseable values resolve to 0.0 with no error: downstream
// arithmetic treats missing as zero.
func (n Number) Float() float64 {
	return parse(string(n))
}

// Clean normalizes an arbitrary decoded JSON value to a float64 under
// the same missing-means-zero policy.
func Clean(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		return parse(t.String())
	case Number:
		return t.Float()
	case string:
		return parse(t)
	default:
		return 0
	}
}

func parse(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return 0
	}
	// strip digit grouping, including Indian lakh/crore grouping
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
