package validate

import (
	"regexp"
	"strings"
)

// 2-digit state code, 10-char PAN, entity number, default 'Z', check char.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ValidGSTIN reports whether s is a structurally valid GSTIN: 15
// characters in the registered format with a correct mod-36 check
// digit. This is a local format check only; it says nothing about
// whether the number is actually registered.
func ValidGSTIN(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !gstinPattern.MatchString(s) {
		return false
	}

	sum := 0
	for i, r := range s[:14] {
		code := strings.IndexRune(gstinAlphabet, r)
		if code < 0 {
			return false
		}
		factor := 1
		if i%2 == 1 {
			factor = 2
		}
		product := code * factor
		sum += product/36 + product%36
	}
	check := (36 - sum%36) % 36
	return s[14] == gstinAlphabet[check]
}
