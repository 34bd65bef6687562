// Package validate recomputes invoice arithmetic and reports
// per-category consistency.
package validate

import (
	"fmt"
	"math"

	"github.com/anand-venkat/invoice-guard/internal/entity"
)

const (
	// DefaultLineTolerance bounds per-line and subtotal mismatches.
	DefaultLineTolerance = 0.01
	// DefaultTotalTolerance is looser to absorb compounding rounding
	// across lines and taxes.
	DefaultTotalTolerance = 1.0
	// DefaultTaxRateCutoff: componentized tax fields above this are
	// absolute amounts, at or below they are percentages.
	DefaultTaxRateCutoff = 50.0
)

// Calculated is the recomputed totals triple, rounded to 2 decimals.
type Calculated struct {
	Subtotal   float64 `json:"subtotal"`
	TaxAmount  float64 `json:"tax_amount"`
	GrandTotal float64 `json:"grand_total"`
}

// Result is the validator output. The four status flags are
// independent diagnostics: downstream reporting aggregates pass rates
// per category, so they are never rolled into one.
type Result struct {
	Status        bool       `json:"status"`
	Errors        []string   `json:"errors"`
	Calculated    Calculated `json:"calculated"`
	GrandTotalOK  bool       `json:"status_grand_total"`
	SubtotalOK    bool       `json:"status_subtotal"`
	TaxTotalOK    bool       `json:"status_tax_total"`
	NoMissingData bool       `json:"status_data_missing"`
}

// Validator checks that an invoice's numbers are internally
// consistent. The zero value is not usable; call NewValidator.
type Validator struct {
	LineTolerance  float64
	TotalTolerance float64
	TaxRateCutoff  float64
}

func NewValidator() *Validator {
	return &Validator{
		LineTolerance:  DefaultLineTolerance,
		TotalTolerance: DefaultTotalTolerance,
		TaxRateCutoff:  DefaultTaxRateCutoff,
	}
}

// Validate recomputes line amounts, subtotal, tax and grand total and
// compares them against the declared values. Findings are collected as
// human-readable strings; nothing here returns an error.
func (v *Validator) Validate(inv *entity.Invoice) Result {
	res := Result{
		Errors:        []string{},
		GrandTotalOK:  true,
		SubtotalOK:    true,
		TaxTotalOK:    true,
		NoMissingData: true,
	}

	var observedSum, expectedSum float64
	for _, item := range inv.Items {
		desc := item.Description
		if desc == "" {
			desc = "Unknown Item"
		}
		qty := item.Quantity.Float()
		rate := item.Rate.Float()
		amount := item.Amount.Float()

		observedSum += amount

		// degenerate extraction rescue: lone amount means one unit
		if qty == 0 && rate == 0 && amount != 0 {
			qty = 1
			rate = amount
		}

		if qty == 0 || rate == 0 || amount == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("Missing numeric value in item: %s", desc))
			res.NoMissingData = false
			continue
		}

		expected := round2(qty * rate)
		expectedSum += expected

		if math.Abs(expected-amount) > v.LineTolerance {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"Item '%s' mismatch: %v×%v = %.2f, found %.2f", desc, qty, rate, expected, amount))
		}
	}

	// all lines skipped or absent: fall back to the observed sum
	calcSubtotal := expectedSum
	if calcSubtotal == 0 {
		calcSubtotal = observedSum
	}

	workingSubtotal := inv.Summary.Subtotal.Float()
	if workingSubtotal != 0 && math.Abs(workingSubtotal-calcSubtotal) > v.LineTolerance {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"Subtotal mismatch: expected %.2f, found %.2f", calcSubtotal, workingSubtotal))
		res.SubtotalOK = false
	} else {
		workingSubtotal = calcSubtotal
	}

	cgst := inv.Summary.CGST.Float()
	sgst := inv.Summary.SGST.Float()
	igst := inv.Summary.IGST.Float()
	workingTax := inv.Summary.TaxAmount.Float()

	if cgst > v.TaxRateCutoff || sgst > v.TaxRateCutoff || igst > v.TaxRateCutoff {
		// components are absolute amounts: check against declared tax
		taxSum := cgst + sgst + igst
		if math.Abs(taxSum-workingTax) > v.LineTolerance {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"Tax total mismatch: CGST+SGST+IGST=%.2f, tax_amount=%.2f", taxSum, workingTax))
			res.TaxTotalOK = false
		}
		workingTax = taxSum
	} else {
		// components are percentages of the working subtotal; no
		// declared absolute exists here, so nothing to mismatch
		workingTax = workingSubtotal * (cgst + sgst + igst) / 100
	}

	totalAmount := inv.Summary.TotalAmount.Float()
	roundOff := inv.Summary.RoundOff.Float()

	expectedTotal := round2(workingSubtotal + workingTax + roundOff)
	if totalAmount != 0 && math.Abs(expectedTotal-totalAmount) > v.TotalTolerance {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"Grand total mismatch: expected %.2f, found %.2f", expectedTotal, totalAmount))
		res.GrandTotalOK = false
	}

	res.Status = len(res.Errors) == 0
	res.Calculated = Calculated{
		Subtotal:   round2(workingSubtotal),
		TaxAmount:  round2(workingTax),
		GrandTotal: expectedTotal,
	}
	return res
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
