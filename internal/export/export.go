// Package export renders a filtered ledger slice as a downloadable
// statement document. Rendering is a pure read: it takes the rows it is
// given and never touches storage.
package export

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

// ParseFormat maps the request parameter to a format. Unknown values fall
// back to CSV, matching the lenient boundary behavior elsewhere.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel", "spreadsheet":
		return FormatXLSX
	case "pdf":
		return FormatPDF
	default:
		return FormatCSV
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// Filename encodes the applied date range for spreadsheet and PDF
// downloads; CSV always uses the fixed name.
func Filename(f Format, from, to core.Date) string {
	if f == FormatCSV {
		return "expenses.csv"
	}
	parts := []string{"expenses"}
	if !from.IsEmpty() {
		parts = append(parts, "from-"+from.ISO())
	}
	if !to.IsEmpty() {
		parts = append(parts, "to-"+to.ISO())
	}
	return strings.Join(parts, "_") + "." + string(f)
}

// Render serializes the expense slice in the requested format. An empty
// slice yields a headers-only document, never an error.
func Render(f Format, expenses []core.Expense, from, to core.Date) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return renderXLSX(expenses)
	case FormatPDF:
		return renderPDF(expenses, from, to)
	case FormatCSV:
		return renderCSV(expenses), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}
