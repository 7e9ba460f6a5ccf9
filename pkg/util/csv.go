package util

import "strings"

// ExportCSV renders a header row plus one row per record. Field values
// containing a comma or a double quote are quoted, with internal quotes
// doubled, so the output parses back under standard CSV rules.
func ExportCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	writeCSVRow(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeCSVRow(&b, row)
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSVField(field))
	}
}

func escapeCSVField(value string) string {
	if !strings.ContainsAny(value, ",\"\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
