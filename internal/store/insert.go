package store

import (
	"strconv"
	"strings"

	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Placeholder styles of the supported drivers.
var (
	DollarPlaceholder   Placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
	QuestionPlaceholder Placeholder = func(int) string { return "?" }
	AtPPlaceholder      Placeholder = func(n int) string { return "@p" + strconv.Itoa(n) }
)

// BuildInsertSQL constructs one multi-row INSERT and its args.
//
// rows must have len(cols) values each; cols must be non-empty.
func BuildInsertSQL(d analyzer.Dialect, table string, cols []analyzer.Column, rows [][]any, ph Placeholder) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(analyzer.TableName(d, table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(analyzer.QuoteIdent(d, c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ph(p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// Batches splits rows so that no statement binds more than maxParams values.
func Batches(rows [][]any, ncols, maxParams int) [][][]any {
	if len(rows) == 0 {
		return nil
	}
	per := 1
	if ncols > 0 && maxParams > ncols {
		per = maxParams / ncols
	}
	out := make([][][]any, 0, (len(rows)+per-1)/per)
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
