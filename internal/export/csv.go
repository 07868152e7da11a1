package export

import (
	"strings"

	"fintrack/internal/core"
)

// renderCSV writes the statement line format by hand: description and
// category are always double-quoted with embedded quotes doubled, while
// date and amount stay bare. encoding/csv cannot produce this mix of
// quoted and unquoted fields on one record.
func renderCSV(expenses []core.Expense) []byte {
	var b strings.Builder
	b.WriteString("date,description,category,amount\n")
	for _, e := range expenses {
		b.WriteString(e.Date.ISO())
		b.WriteByte(',')
		writeQuoted(&b, e.Description)
		b.WriteByte(',')
		writeQuoted(&b, e.Category)
		b.WriteByte(',')
		b.WriteString(e.Amount.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
}
