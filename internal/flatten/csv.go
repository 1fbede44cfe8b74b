package flatten

import "strings"

// RenderCSV renders a table as CSV text. Every field, header included, is
// wrapped in double quotes with embedded quotes doubled, so values
// containing commas, quotes or newlines survive a standard CSV parse.
// Rows are joined by a single LF and there is no trailing newline.
func RenderCSV(t Table) string {
	var b strings.Builder

	for i, col := range t.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, col)
	}

	for _, row := range t.Rows {
		b.WriteByte('\n')
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteByte(',')
			}
			writeQuoted(&b, Stringify(row[col]))
		}
	}

	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
}
