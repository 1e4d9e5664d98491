package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// titleWidth bounds track title columns; catalog titles run long.
const titleWidth = 48

// column describes one table column. Cells wider than width are cut with an
// ellipsis; zero leaves the column unbounded.
type column struct {
	title string
	right bool
	width int
}

var (
	statusColumns   = []column{{title: "Field"}, {title: "Value", width: 64}}
	queueColumns    = []column{{title: ""}, {title: "#", right: true}, {title: "Title", width: titleWidth}, {title: "Origin"}, {title: "Status"}}
	searchColumns   = []column{{title: "#", right: true}, {title: "Title", width: titleWidth}, {title: "Uploader", width: 24}, {title: "Length", right: true}, {title: "URL"}}
	downloadColumns = []column{{title: "ID"}, {title: "Title", width: titleWidth}, {title: "Group"}, {title: "Status"}, {title: "Progress", right: true}, {title: "Added"}, {title: "Detail", width: 40}}
	libraryColumns  = []column{{title: "Group"}, {title: "Title", width: titleWidth}, {title: "ID"}, {title: "Size", right: true}, {title: "Modified"}}
	doctorColumns   = []column{{title: "Name"}, {title: "Purpose"}, {title: "Required"}, {title: "Status"}, {title: "Path"}}
)

// renderTable draws rounded borders on a terminal and bare aligned columns
// when stdout is piped.
func renderTable(cols []column, rows [][]string) string {
	return drawTable(cols, rows, isatty.IsTerminal(os.Stdout.Fd()))
}

func drawTable(cols []column, rows [][]string, bordered bool) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	if !bordered {
		style = table.StyleDefault
		style.Options = table.OptionsNoBordersAndSeparators
	}
	tw.SetStyle(style)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if col.right {
			configs[i].Align = text.AlignRight
		}
		if col.width > 0 {
			configs[i].WidthMax = col.width
			configs[i].WidthMaxEnforcer = ellipsize
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

// ellipsize cuts s to max runes, the last one being "…".
func ellipsize(s string, max int) string {
	runes := []rune(s)
	if max < 1 || len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
