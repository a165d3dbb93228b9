package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/alnah/go-lark2html/internal/blocks"
)

// Column width bounds, in API pixels, and the fallback for unknown widths.
const (
	minColumnWidth      = 48
	maxColumnWidth      = 520
	fallbackColumnWidth = 120
	oversizedWidth      = 2000
	oversizedScale      = 20
)

type cellPos struct{ row, col int }

// renderTable rebuilds a grid from the flat row-major cell list and the
// sparse merge metadata.
func (w *walker) renderTable(n *blocks.Node) string {
	tbl, _ := n.Payload.(*blocks.Table)
	if tbl == nil {
		tbl = &blocks.Table{}
	}
	cells := tbl.Cells
	if len(cells) == 0 {
		cells = n.Children
	}
	if len(cells) == 0 {
		return ""
	}

	rows, cols := max(0, tbl.RowSize), max(0, tbl.ColumnSize)
	if cols == 0 && rows > 0 {
		cols = ceilDiv(len(cells), rows)
	}
	if rows == 0 && cols > 0 {
		rows = ceilDiv(len(cells), cols)
	}
	if rows == 0 || cols == 0 {
		return w.children(cells)
	}
	// The walk is bounded by the cells that exist, not the declared size
	cols = min(cols, len(cells))
	rows = min(rows, ceilDiv(len(cells), cols))

	covered := make(map[cellPos]bool)
	var rowsHTML []string
	for r := 0; r < rows; r++ {
		var cellsHTML []string
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			if idx >= len(cells) || covered[cellPos{r, c}] {
				continue
			}

			var merge blocks.Merge
			if idx < len(tbl.MergeInfo) {
				merge = tbl.MergeInfo[idx]
			}
			rowSpan := clampSpan(merge.RowSpan, rows-r)
			colSpan := clampSpan(merge.ColSpan, cols-c)
			for rr := r; rr < r+rowSpan; rr++ {
				for cc := c; cc < c+colSpan; cc++ {
					if rr == r && cc == c {
						continue
					}
					covered[cellPos{rr, cc}] = true
				}
			}

			content := w.tableCell(cells[idx])
			if content == "" {
				content = "<br />"
			}
			tag := "td"
			if r == 0 {
				tag = "th"
			}
			var attrs string
			if rowSpan > 1 {
				attrs += ` rowspan="` + strconv.Itoa(rowSpan) + `"`
			}
			if colSpan > 1 {
				attrs += ` colspan="` + strconv.Itoa(colSpan) + `"`
			}
			cellsHTML = append(cellsHTML, "<"+tag+attrs+">"+content+"</"+tag+">")
		}
		if len(cellsHTML) > 0 {
			rowsHTML = append(rowsHTML, "<tr>"+strings.Join(cellsHTML, "")+"</tr>")
		}
	}
	if len(rowsHTML) == 0 {
		return ""
	}
	w.ctx.ParagraphCount += max(1, len(rowsHTML))

	var b strings.Builder
	b.WriteString(`<div class="feishu-table-wrap"><table class="feishu-table" style="width:100%;table-layout:fixed;"><colgroup>`)
	for _, ratio := range columnRatios(tbl.ColumnWidth, cols) {
		b.WriteString(`<col style="width:` + formatNumber(ratio) + `%;" />`)
	}
	b.WriteString("</colgroup><tbody>")
	b.WriteString(strings.Join(rowsHTML, ""))
	b.WriteString("</tbody></table></div>")
	return b.String()
}

// tableCell renders a cell's children, or the cell's own rich text when it
// has no children. Cells enter the visiting set like any other block.
func (w *walker) tableCell(id string) string {
	id = strings.TrimSpace(id)
	cell, ok := w.m.Get(id)
	if !ok || w.visiting[id] {
		return ""
	}
	w.visiting[id] = true
	defer delete(w.visiting, id)

	if len(cell.Children) > 0 {
		return w.children(cell.Children)
	}
	if len(cell.RichText()) > 0 {
		return w.renderText(cell)
	}
	return ""
}

func clampSpan(span, remaining int) int {
	if span < 1 {
		span = 1
	}
	return max(1, min(remaining, span))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// columnRatios converts raw pixel widths into percentages summing to 100.
// Missing or non-positive widths take the average of the valid ones.
func columnRatios(raw []float64, columns int) []float64 {
	columns = max(1, columns)
	widths := make([]float64, columns)
	positive := false
	maxWidth := 0.0
	for i := range widths {
		if i < len(raw) && raw[i] > 0 && !math.IsInf(raw[i], 0) {
			widths[i] = raw[i]
			positive = true
			maxWidth = max(maxWidth, raw[i])
		}
	}
	if !positive {
		return equalRatios(columns)
	}

	scale := 1.0
	if maxWidth > oversizedWidth {
		scale = oversizedScale
	}
	var sum float64
	var valid int
	for i, v := range widths {
		if v <= 0 {
			continue
		}
		widths[i] = min(maxColumnWidth, max(minColumnWidth, v/scale))
		sum += widths[i]
		valid++
	}
	fill := float64(fallbackColumnWidth)
	if valid > 0 {
		fill = sum / float64(valid)
	}

	var total float64
	for i, v := range widths {
		if v <= 0 {
			widths[i] = fill
		}
		total += widths[i]
	}
	if total <= 0 {
		return equalRatios(columns)
	}
	for i, v := range widths {
		widths[i] = round4(v / total * 100)
	}
	return widths
}

func equalRatios(columns int) []float64 {
	out := make([]float64, columns)
	for i := range out {
		out[i] = round4(100 / float64(columns))
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
