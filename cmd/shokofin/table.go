package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn describes one column of a CLI table
type tableColumn struct {
	title string
	align text.Align
	// transform, when set, restyles each cell before rendering
	transform text.Transformer
}

func textCol(title string) tableColumn {
	return tableColumn{title: title, align: text.AlignLeft}
}

func numCol(title string) tableColumn {
	return tableColumn{title: title, align: text.AlignRight}
}

// statusCol colors task and sync run states with statusStyle
func statusCol(title string) tableColumn {
	return tableColumn{
		title: title,
		align: text.AlignLeft,
		transform: func(val interface{}) string {
			s, _ := val.(string)
			return statusStyle(s).Render(s)
		},
	}
}

// renderTable draws rows under columns. Short rows are padded with empty
// cells and extra cells are dropped.
func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: col.align,
			Transformer: col.transform,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
