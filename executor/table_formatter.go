package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/nimbusdb/nimbusdb/ident"
	"github.com/nimbusdb/nimbusdb/query"
)

// TableFormatter renders a stream of documents as a markdown table, for
// CLI output and ad-hoc debugging.
//
// Grounded on the teacher's executor/table_formatter.go, generalized from
// a fixed-column Relation/Tuple pair to documents of heterogeneous shape:
// columns are the union of every document's keys, sorted for a stable
// header across runs.
type TableFormatter struct{}

// NewTableFormatter returns a TableFormatter with the teacher's default
// (no further configuration needed; column widths are left to the
// renderer).
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// FormatDocuments renders rows as a markdown table. Rows that are not
// documents (e.g. the output of a Select projecting to a scalar) are
// rendered as a single "value" column.
func (tf *TableFormatter) FormatDocuments(rows []query.Value) string {
	if len(rows) == 0 {
		return "_No rows_"
	}

	columns := tf.columns(rows)
	tableString := &strings.Builder{}
	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)

	for _, r := range rows {
		table.Append(tf.row(columns, r))
	}
	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(rows)))
	return tableString.String()
}

func (tf *TableFormatter) columns(rows []query.Value) []string {
	doc, ok := rows[0].(map[string]query.Value)
	if !ok {
		return []string{"value"}
	}
	_ = doc
	seen := make(map[string]bool)
	var columns []string
	for _, r := range rows {
		d, ok := r.(map[string]query.Value)
		if !ok {
			continue
		}
		for k := range d {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func (tf *TableFormatter) row(columns []string, r query.Value) []string {
	doc, ok := r.(map[string]query.Value)
	if !ok {
		return []string{tf.formatValue(r)}
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = tf.formatValue(doc[c])
	}
	return out
}

func (tf *TableFormatter) formatValue(val query.Value) string {
	if val == nil {
		return "nil"
	}
	switch v := val.(type) {
	case string:
		return v
	case int32:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case time.Time:
		return v.Format(time.RFC3339)
	case ident.ID:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// PrintDocuments prints rows to stdout as a markdown table.
func PrintDocuments(rows []query.Value) {
	fmt.Println(NewTableFormatter().FormatDocuments(rows))
}
