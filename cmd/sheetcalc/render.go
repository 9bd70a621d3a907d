package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/config"
	"github.com/vogtb/go-sheetgraph/packages/spreadsheet"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

func renderValue(c *spreadsheet.Cell) string {
	return spreadsheet.FormatValue(c.Value())
}

func renderText(c *spreadsheet.Cell) string {
	return c.Text()
}

// printSheet writes the printable area of sheet in the configured style
func printSheet(w io.Writer, sheet *spreadsheet.Sheet, output, mode string) error {
	render := renderValue
	if mode == config.PrintTexts {
		render = renderText
	}

	if output != config.OutputTable {
		if mode == config.PrintTexts {
			return sheet.PrintTexts(w)
		}
		return sheet.PrintValues(w)
	}

	rows := sheet.Rows(render)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(empty)")
		return err
	}

	headers := make([]string, 0, len(rows[0])+1)
	headers = append(headers, "")
	for col := range rows[0] {
		headers = append(headers, cellref.ColumnName(col))
	}

	labeled := make([][]string, len(rows))
	for i, fields := range rows {
		labeled[i] = append([]string{strconv.Itoa(i + 1)}, fields...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(labeled...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t)
	return err
}
