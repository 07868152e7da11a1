package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

const sheetName = "Expenses"

func renderXLSX(expenses []core.Expense) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename worksheet: %w", err)
	}

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 15}, {"B", 40}, {"C", 20}, {"D", 15},
	}
	for _, w := range widths {
		if err := f.SetColWidth(sheetName, w.col, w.col, w.width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, h := range []string{"Date", "Description", "Category", "Amount"} {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("set header cell: %w", err)
		}
	}

	for i, e := range expenses {
		row := i + 2
		values := []any{e.Date.ISO(), e.Description, e.Category, e.Amount.Float()}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("data cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set data cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
