package compositor

import (
	"strings"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/grid"
)

// RowRun is a horizontal span of cells on one row that share colors and
// attributes. Text holds the graphemes of the span's cells in column order,
// one per column. Cells holds the same graphemes split at column boundaries,
// since adjacent clusters may merge when Text is segmented again.
type RowRun struct {
	Row      int
	ColStart int
	ColEnd   int // exclusive
	Attrs    core.Attribute
	Fg       core.Color
	Bg       core.Color
	Text     string
	Cells    []string
}

// Width returns the number of columns the run covers.
func (r RowRun) Width() int {
	return r.ColEnd - r.ColStart
}

// RowRuns extracts style-batched runs with the default options.
func RowRuns(g *grid.Grid, dirty []DirtyRect) []RowRun {
	return defaultCompositor.RowRuns(g, dirty)
}

// RowRuns splits every row of every dirty rectangle into maximal runs of
// identically styled cells. Within a rectangle row the runs are emitted in
// increasing column order and exactly tile the rectangle's column span.
// Rectangles are clipped to the grid.
func (c *Compositor) RowRuns(g *grid.Grid, dirty []DirtyRect) []RowRun {
	if g == nil {
		return nil
	}
	var (
		runs []RowRun
		sb   strings.Builder
	)
	for _, rect := range dirty {
		area := rect.Intersect(g.Bounds())
		if area.Empty() {
			continue
		}
		for y := area.Y; y < area.Bottom(); y++ {
			row := g.Row(y)
			x := area.X
			for x < area.Right() {
				first := row[x]
				start := x
				sb.Reset()
				var cells []string
				for x < area.Right() && row[x].SameStyle(first) {
					sb.WriteString(row[x].Grapheme)
					cells = append(cells, row[x].Grapheme)
					x++
				}
				runs = append(runs, RowRun{
					Row:      y,
					ColStart: start,
					ColEnd:   x,
					Attrs:    first.Attrs,
					Fg:       first.Fg,
					Bg:       first.Bg,
					Text:     sb.String(),
					Cells:    cells,
				})
			}
		}
	}
	return runs
}

// Frame runs Damage and RowRuns for a pair of frames and returns the report
// alongside the runs.
func (c *Compositor) Frame(previous, next *grid.Grid) (Report, []RowRun) {
	report := c.Analyze(previous, next)
	return report, c.RowRuns(next, report.Rects)
}
