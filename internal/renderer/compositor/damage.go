package compositor

import (
	"cmp"
	"slices"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/grid"
)

// DirtyRect is a region of the next frame that must be redrawn.
type DirtyRect = core.Rect

// Report is the result of comparing two frames.
type Report struct {
	// Rects are the dirty regions, in row order.
	Rects []DirtyRect

	// Shift is the detected vertical scroll in rows, 0 when none. A
	// positive shift moved content down (rows exposed at the top); a
	// negative shift moved it up (rows exposed at the bottom). Rects are
	// only correct for a sink whose content was shifted by the same amount.
	Shift int

	// FullRedraw is set when there was no previous frame.
	FullRedraw bool
}

// Cells returns the number of cells covered by the dirty regions.
func (r Report) Cells() int {
	n := 0
	for _, rect := range r.Rects {
		n += rect.Area()
	}
	return n
}

// Damage compares two frames with the default options.
func Damage(previous, next *grid.Grid) []DirtyRect {
	return defaultCompositor.Damage(previous, next)
}

// Damage returns the regions of next that differ from previous.
func (c *Compositor) Damage(previous, next *grid.Grid) []DirtyRect {
	return c.Analyze(previous, next).Rects
}

// Analyze compares two frames and reports the dirty regions together with
// any scroll shift they assume.
//
// A nil previous frame dirties every row of next. Frames of different sizes
// are fully diffed over next's extent; cells previous does not have are
// dirty.
func (c *Compositor) Analyze(previous, next *grid.Grid) Report {
	if next == nil {
		return Report{}
	}
	if previous == nil {
		rects := make([]DirtyRect, 0, next.Height())
		for y := 0; y < next.Height(); y++ {
			rects = append(rects, DirtyRect{X: 0, Y: y, W: next.Width(), H: 1})
		}
		return Report{Rects: rects, FullRedraw: true}
	}

	if c.opts.ScrollMode != ScrollOff && previous.Size() == next.Size() {
		if shift, ok := c.DetectScroll(previous, next); ok {
			rects := []DirtyRect{exposedBand(next, shift)}
			if c.opts.ScrollMode == ScrollStrict {
				rects = append(rects, diffShifted(previous, next, shift)...)
				slices.SortFunc(rects, func(a, b DirtyRect) int {
					return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
				})
			}
			return Report{Rects: rects, Shift: shift}
		}
	}
	return Report{Rects: diffRows(previous, next)}
}

// DetectScroll looks for a vertical shift d such that next[x, y] equals
// previous[x, y-d] on every compared row but at most one. Shifts are tried
// by increasing magnitude, downward first. A shift is only accepted when it
// explains more rows than comparing the frames unshifted does, so an
// unchanged frame or a single edit is never mistaken for a scroll.
func (c *Compositor) DetectScroll(previous, next *grid.Grid) (int, bool) {
	if previous == nil || next == nil || previous.Size() != next.Size() {
		return 0, false
	}
	h := next.Height()
	maxShift := min(c.opts.MaxScrollShift, h-1)
	if maxShift < 1 {
		return 0, false
	}

	unshifted := 0
	for y := 0; y < h; y++ {
		if slices.Equal(next.Row(y), previous.Row(y)) {
			unshifted++
		}
	}
	if unshifted == h {
		return 0, false
	}

	for m := 1; m <= maxShift; m++ {
		for _, d := range [2]int{m, -m} {
			compared, matched := 0, 0
			for y := 0; y < h; y++ {
				src := y - d
				if src < 0 || src >= h {
					continue
				}
				compared++
				if slices.Equal(next.Row(y), previous.Row(src)) {
					matched++
				}
			}
			if compared > 0 && matched >= compared-1 && matched > unshifted {
				return d, true
			}
		}
	}
	return 0, false
}

// exposedBand returns the rows a scroll by shift brings into view.
func exposedBand(g *grid.Grid, shift int) DirtyRect {
	if shift > 0 {
		return DirtyRect{X: 0, Y: 0, W: g.Width(), H: shift}
	}
	return DirtyRect{X: 0, Y: g.Height() + shift, W: g.Width(), H: -shift}
}

// diffShifted diffs the rows of next outside the exposed band against the
// rows of previous they were scrolled from.
func diffShifted(previous, next *grid.Grid, shift int) []DirtyRect {
	var rects []DirtyRect
	for y := 0; y < next.Height(); y++ {
		src := y - shift
		if src < 0 || src >= previous.Height() {
			continue
		}
		prevRow := previous.Row(src)
		rects = appendRowSpans(rects, y, next.Row(y), func(x int) bool {
			return prevRow[x] != next.At(x, y)
		})
	}
	return rects
}

// diffRows compares the frames cell by cell, one row at a time.
func diffRows(previous, next *grid.Grid) []DirtyRect {
	var rects []DirtyRect
	for y := 0; y < next.Height(); y++ {
		row := next.Row(y)
		if y >= previous.Height() {
			rects = append(rects, DirtyRect{X: 0, Y: y, W: len(row), H: 1})
			continue
		}
		prevRow := previous.Row(y)
		rects = appendRowSpans(rects, y, row, func(x int) bool {
			return x >= len(prevRow) || prevRow[x] != row[x]
		})
	}
	return rects
}

// appendRowSpans appends one rectangle per maximal run of columns where
// differs is true.
func appendRowSpans(rects []DirtyRect, y int, row []core.Cell, differs func(x int) bool) []DirtyRect {
	start := -1
	for x := range row {
		if differs(x) {
			if start < 0 {
				start = x
			}
			continue
		}
		if start >= 0 {
			rects = append(rects, DirtyRect{X: start, Y: y, W: x - start, H: 1})
			start = -1
		}
	}
	if start >= 0 {
		rects = append(rects, DirtyRect{X: start, Y: y, W: len(row) - start, H: 1})
	}
	return rects
}
