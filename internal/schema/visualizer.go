package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Visualizer renders the catalog for the terminal.
type Visualizer struct {
	useColor bool
}

// NewVisualizer creates a new visualizer
func NewVisualizer(useColor bool) *Visualizer {
	return &Visualizer{useColor: useColor}
}

// SummaryTable lists every table with its layout.
func (v *Visualizer) SummaryTable() string {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"#", "Table", "Role", "Distribution", "Sort key", "Primary key", "Columns"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i, t := range Tables() {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			t.Name,
			v.role(t.Role),
			t.Distribution(),
			dash(t.SortKey()),
			dash(t.PrimaryKey()),
			fmt.Sprintf("%d", len(t.Columns)),
		})
	}

	table.Render()
	return buf.String()
}

// ColumnsTable lists the columns of one table.
func (v *Visualizer) ColumnsTable(t Table) string {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Column", "Type", "Attributes"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, c := range t.Columns {
		var attrs []string
		if c.Identity {
			attrs = append(attrs, "identity")
		}
		if c.PrimaryKey {
			attrs = append(attrs, "pk")
		}
		if c.NotNull {
			attrs = append(attrs, "not null")
		}
		if c.SortKey {
			attrs = append(attrs, "sortkey")
		}
		if c.DistKey {
			attrs = append(attrs, "distkey")
		}
		table.Append([]string{c.Name, string(c.Type), strings.Join(attrs, ", ")})
	}

	table.Render()
	return buf.String()
}

// Write prints the summary followed by every table's columns.
func (v *Visualizer) Write(w io.Writer) {
	fmt.Fprintln(w, v.SummaryTable())
	for _, t := range Tables() {
		title := t.Name
		if v.useColor {
			title = color.New(color.Bold).Sprint(title)
		}
		fmt.Fprintf(w, "%s\n%s\n", title, v.ColumnsTable(t))
	}
}

func (v *Visualizer) role(r Role) string {
	if !v.useColor {
		return string(r)
	}
	switch r {
	case RoleStaging:
		return color.YellowString(string(r))
	case RoleFact:
		return color.GreenString(string(r))
	default:
		return color.CyanString(string(r))
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
