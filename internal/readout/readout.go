// Package readout renders lookup results as the plain-text click panel.
package readout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
)

// Row is one labelled line of the coordinate panel.
type Row struct {
	Label string
	Value string
}

// Coordinates returns the panel rows for the click position.
func Coordinates(r *gridlookup.Readout) []Row {
	return []Row{
		{"X", number(r.X)},
		{"Y", number(r.Y)},
		{"Z", number(r.Z)},
		{"i", number(r.GridI)},
		{"j", number(r.GridJ)},
		{"value", number(r.Elevation)},
	}
}

// Neighbors returns one "array[i][j] = v" line per neighbor, values fixed
// to two decimals.
func Neighbors(r *gridlookup.Readout) []string {
	lines := make([]string, len(r.Neighbors))
	for k, n := range r.Neighbors {
		lines[k] = fmt.Sprintf("array[%d][%d] = %.2f", n.I, n.J, n.Value)
	}
	return lines
}

// Write prints the full panel to w.
func Write(w io.Writer, r *gridlookup.Readout) error {
	var b strings.Builder
	b.WriteString("Click coordinates:\n")
	for _, row := range Coordinates(r) {
		fmt.Fprintf(&b, "  %-6s %s\n", row.Label+":", row.Value)
	}
	for _, line := range Neighbors(r) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
