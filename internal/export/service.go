package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/anand-venkat/invoice-guard/internal/pipeline"
)

// Service produces XLSX bytes summarizing a batch run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportXLSX returns an XLSX workbook with one row per processed
// document: the decision, the declared vs recomputed totals, the four
// consistency flags, and any duplicate reference.
func (s *Service) ReportXLSX(results []*pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Validation"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Source",
		"Decision",
		"Invoice No",
		"Vendor GSTIN",
		"Declared Total",
		"Calc Subtotal",
		"Calc Tax",
		"Calc Grand Total",
		"Grand Total OK",
		"Subtotal OK",
		"Tax Total OK",
		"No Missing Data",
		"Errors",
		"Duplicate Of",
		"Similarity",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Source)
		write(2, string(r.Decision))

		if r.Invoice != nil {
			write(3, r.Invoice.InvoiceNo)
			write(4, r.Invoice.VendorGSTIN)
			if r.Invoice.Summary.TotalAmount.Present() {
				write(5, r.Invoice.Summary.TotalAmount.Float())
			}
		}

		if v := r.Validation; v != nil {
			write(6, v.Calculated.Subtotal)
			write(7, v.Calculated.TaxAmount)
			write(8, v.Calculated.GrandTotal)
			write(9, v.GrandTotalOK)
			write(10, v.SubtotalOK)
			write(11, v.TaxTotalOK)
			write(12, v.NoMissingData)
			write(13, truncate(strings.Join(v.Errors, "; "), 500))
		} else if r.Error != "" {
			write(13, truncate(r.Error, 500))
		}

		switch {
		case r.ExactID != nil:
			write(14, r.ExactID.String())
			write(15, 1.0)
		case len(r.Fuzzy) > 0:
			best := r.Fuzzy[0]
			ref := best.FileName
			if best.InvoiceID != nil {
				ref = best.InvoiceID.String()
			}
			write(14, ref)
			write(15, fmt.Sprintf("%.4f", best.Score))
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 36) // source
	_ = f.SetColWidth(sheet, "B", "B", 20) // decision
	_ = f.SetColWidth(sheet, "C", "D", 18)
	_ = f.SetColWidth(sheet, "E", "H", 14) // amounts
	_ = f.SetColWidth(sheet, "M", "M", 60) // errors
	_ = f.SetColWidth(sheet, "N", "N", 38) // duplicate ref

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	// back up to a rune boundary so multi-byte text is not cut mid-sequence
	cut := n - 1
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return ""
	}
	return s[:cut] + "…"
}
