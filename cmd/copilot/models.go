package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/copilot/pkg/providers/catalog"
)

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: copilot models\n\nList supported providers and models.\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println(renderModels())

	return nil
}

// renderModels returns the catalog as an aligned table.
func renderModels() string {
	cols := []string{"PROVIDER", "MODEL", "NATIVE ID", ""}

	rows := [][]string{}
	for _, p := range catalog.Providers() {
		for _, m := range p.Models() {
			def := ""
			if m == p.DefaultModel() {
				def = "default"
				if p == catalog.DefaultProvider {
					def = "default (global)"
				}
			}
			rows = append(rows, []string{p.String(), m.String(), m.NativeID(), def})
		}
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	cell := func(s string, i int, style lipgloss.Style) string {
		return style.Width(widths[i] + 2).Render(s)
	}

	var sb strings.Builder
	for i, c := range cols {
		sb.WriteString(cell(c, i, headerStyle))
	}

	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(cell(r[0], 0, providerStyle))
		sb.WriteString(cell(r[1], 1, lipgloss.NewStyle()))
		sb.WriteString(cell(r[2], 2, dimStyle))
		sb.WriteString(cell(r[3], 3, defaultStyle))
	}

	return sb.String()
}
