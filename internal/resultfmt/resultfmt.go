// Package resultfmt renders an evaluator Result to the exact text contract
// of spec §6: a null result is a success message, an integer is a row
// count message, and a row list is an ASCII table.
package resultfmt

import (
	"fmt"
	"strings"

	"github.com/quilldb/quill/internal/eval"
)

// Success renders the "no result" message for a DDL statement.
func Success() string {
	return "Query executed successfully"
}

// Error renders err as the engine's uniform error string.
func Error(err error) string {
	return fmt.Sprintf("Error: %s", err)
}

// Format renders result per spec §6: KindDDL -> success message,
// KindCount -> row-count message, KindRows -> ASCII table (or "No rows
// returned." when empty).
func Format(result *eval.Result) string {
	switch result.Kind {
	case eval.KindDDL:
		return Success()
	case eval.KindCount:
		return fmt.Sprintf("Query executed successfully. %d rows affected", result.Count)
	case eval.KindRows:
		return formatTable(result)
	default:
		return Success()
	}
}

func formatTable(result *eval.Result) string {
	if len(result.Rows) == 0 {
		return "No rows returned."
	}

	widths := make([]int, len(result.Columns))
	cells := make([][]string, len(result.Rows))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for i, col := range result.Columns {
			v, ok := row[col]
			text := "null"
			if ok && !v.IsNull() {
				text = v.CanonicalString()
			}
			cells[r][i] = text
			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}

	var b strings.Builder
	rule := buildRule(widths)
	b.WriteString(rule)
	b.WriteString("\n")
	b.WriteString(buildRow(result.Columns, widths))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	for _, row := range cells {
		b.WriteString(buildRow(row, widths))
		b.WriteString("\n")
	}
	b.WriteString(rule)
	return b.String()
}

func buildRule(widths []int) string {
	var b strings.Builder
	b.WriteString("+")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("+")
	}
	return b.String()
}

func buildRow(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteString("|")
	for i, c := range cells {
		b.WriteString(" ")
		b.WriteString(c)
		b.WriteString(strings.Repeat(" ", widths[i]-len(c)))
		b.WriteString(" |")
	}
	return b.String()
}
