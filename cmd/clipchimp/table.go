package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// writeTable renders rows with go-pretty. Numeric columns are listed in
// rightAligned by 1-based column number.
func writeTable(out io.Writer, headers table.Row, rows []table.Row, rightAligned ...int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	tw.AppendRows(rows)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, column := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorForStatus maps a lifecycle status to a terminal color.
func colorForStatus(status string) string {
	switch status {
	case "analyzed":
		return ansiGreen
	case "failed":
		return ansiRed
	case "downloading", "transcribing", "analyzing":
		return ansiYellow
	default:
		return ""
	}
}

func colorize(value, color string, enabled bool) string {
	if !enabled || color == "" {
		return value
	}
	return color + value + ansiReset
}

func printField(out io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "  %-18s %s\n", label+":", value)
}
