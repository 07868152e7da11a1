package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
)

// Table geometry in points. The cursor flows down the page and resets to
// the top margin whenever it passes the content boundary.
const (
	pdfMargin        = 36.0
	pdfLineEnd       = 576.0
	pdfRowHeight     = 16.0
	pdfCellHeight    = 12.0
	pdfContentBottom = 760.0
)

var pdfColX = [4]float64{36, 120, 360, 500}

func renderPDF(expenses []core.Expense, from, to core.Date) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(pdfMargin, pdfMargin)
	pdf.CellFormat(pdfLineEnd-pdfMargin, 18, "Expense Statement", "", 1, "C", false, 0, "")

	var subtitle []string
	if !from.IsEmpty() {
		subtitle = append(subtitle, "From "+from.ISO())
	}
	if !to.IsEmpty() {
		subtitle = append(subtitle, "To "+to.ISO())
	}
	if len(subtitle) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.SetX(pdfMargin)
		pdf.CellFormat(pdfLineEnd-pdfMargin, 14, strings.Join(subtitle, "  "), "", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "", 10)
	headerY := pdf.GetY() + 10
	writeRow(pdf, headerY, "Date", "Description", "Category", "Amount (INR)")
	pdf.Line(pdfMargin, headerY+pdfCellHeight, pdfLineEnd, headerY+pdfCellHeight)

	y := headerY + 18
	for _, e := range expenses {
		writeRow(pdf, y, e.Date.ISO(), e.Description, e.Category, "INR "+e.Amount.String())
		y += pdfRowHeight
		if y > pdfContentBottom {
			pdf.AddPage()
			y = pdfMargin
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRow places the four columns at fixed x positions; the amount column
// is right-aligned against the table edge.
func writeRow(pdf *fpdf.Fpdf, y float64, date, description, category, amount string) {
	pdf.SetXY(pdfColX[0], y)
	pdf.CellFormat(pdfColX[1]-pdfColX[0], pdfCellHeight, date, "", 0, "L", false, 0, "")
	pdf.SetXY(pdfColX[1], y)
	pdf.CellFormat(pdfColX[2]-pdfColX[1]-10, pdfCellHeight, description, "", 0, "L", false, 0, "")
	pdf.SetXY(pdfColX[2], y)
	pdf.CellFormat(pdfColX[3]-pdfColX[2]-10, pdfCellHeight, category, "", 0, "L", false, 0, "")
	pdf.SetXY(pdfColX[3], y)
	pdf.CellFormat(pdfLineEnd-pdfColX[3], pdfCellHeight, amount, "", 0, "R", false, 0, "")
}
