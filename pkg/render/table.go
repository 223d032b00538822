// Package render formats query results for terminals and browsers.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
)

// Table writes matches as an aligned text table with a count footer.
func Table(w io.Writer, matches []index.Match, kind dataset.Kind) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"FROM", "TO", "NAME", "VALUE", "LABELS"})

	for _, m := range matches {
		tbl.AppendRow(table.Row{
			dataset.FormatEndpoint(kind, m.Interval.From()),
			dataset.FormatEndpoint(kind, m.Interval.To()),
			m.Name,
			m.Value.Value,
			formatLabels(m.Labels),
		})
	}

	tbl.AppendFooter(table.Row{"Total: " + humanize.Comma(int64(len(matches))) + " intervals"})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

// formatLabels renders labels sorted by key.
func formatLabels(set labels.Set) string {
	if len(set) == 0 {
		return ""
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + set[k]
	}

	return strings.Join(parts, ",")
}
