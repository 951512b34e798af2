package ui

import (
	"fmt"
	"time"

	"dwhctl/internal/pipeline"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// ShowSummary prints the steps of a run and the staging row counts.
func ShowSummary(s *pipeline.Summary) {
	if s == nil {
		return
	}

	fmt.Fprintf(stdout(), "\n%s %s\n", ColorBold("Run"), ColorDim(s.RunID))

	table := tablewriter.NewWriter(stdout())
	table.SetHeader([]string{"Phase", "Step", "Status", "Rows", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, step := range s.Steps {
		status := color.GreenString("ok")
		if step.Err != nil {
			status = color.RedString("failed")
		}
		table.Append([]string{step.Phase, step.Name, status, FormatRows(step.Rows), formatDuration(step.Duration)})
	}
	table.Render()

	if len(s.Staging) > 0 {
		staging := tablewriter.NewWriter(stdout())
		staging.SetHeader([]string{"Staging table", "Rows"})
		staging.SetBorder(false)
		staging.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, c := range s.Staging {
			staging.Append([]string{c.Table, fmt.Sprintf("%d", c.Rows)})
		}
		fmt.Fprintln(stdout())
		staging.Render()
	}

	fmt.Fprintf(stdout(), "\nTotal time: %s\n", formatDuration(s.Duration.Round(time.Millisecond)))
}

// ShowProperties prints name/value pairs as a two-column table.
func ShowProperties(title string, rows [][2]string) {
	if title != "" {
		PrintSection(title)
	}

	table := tablewriter.NewWriter(stdout())
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator(" ")
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		table.Append([]string{color.New(color.Bold).Sprint(row[0]), value})
	}
	table.Render()
}
