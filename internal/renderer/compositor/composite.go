package compositor

import (
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
	"github.com/dshills/tessera/internal/renderer/grid"
)

// Composite rasterizes list into a new grid of the given viewport size using
// the default options.
func Composite(list displaylist.List, viewport core.Size) (*grid.Grid, error) {
	return defaultCompositor.Composite(list, viewport)
}

// Composite rasterizes list into a new grid of the given viewport size.
// It fails only when the viewport has a non-positive dimension.
func (c *Compositor) Composite(list displaylist.List, viewport core.Size) (*grid.Grid, error) {
	g, err := grid.New(viewport.W, viewport.H, c.opts.Blank)
	if err != nil {
		return nil, err
	}

	r := rasterizer{
		opts: &c.opts,
		g:    g,
		clip: []core.Rect{g.Bounds()},
	}
	for _, op := range list.All() {
		r.apply(op)
	}
	return g, nil
}

// rasterizer holds the clip stack for one Composite call.
type rasterizer struct {
	opts *Options
	g    *grid.Grid
	clip []core.Rect
}

func (r *rasterizer) top() core.Rect {
	return r.clip[len(r.clip)-1]
}

func (r *rasterizer) apply(op displaylist.Op) {
	switch op := op.(type) {
	case displaylist.ClipPush:
		r.clip = append(r.clip, r.top().Intersect(op.Rect))
	case displaylist.LayerPush:
		r.clip = append(r.clip, r.top())
	case displaylist.Pop:
		// The root entry is the viewport and stays.
		if len(r.clip) > 1 {
			r.clip = r.clip[:len(r.clip)-1]
		}
	case displaylist.Rect:
		r.fill(op)
	case displaylist.Border:
		r.border(op)
	case displaylist.TextRun:
		r.text(op)
	}
}

func (r *rasterizer) fill(op displaylist.Rect) {
	area := r.top().Intersect(op.Rect)
	if area.Empty() {
		return
	}
	cell := core.FillCell(op.Fill)
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			r.g.Set(x, y, cell)
		}
	}
}

func (r *rasterizer) border(op displaylist.Border) {
	area := r.top().Intersect(op.Rect)
	if area.Empty() {
		return
	}
	left, right := area.X, area.Right()-1
	top, bottom := area.Y, area.Bottom()-1

	for x := left; x <= right; x++ {
		r.stroke(x, top, GlyphHorizontal, op.Color)
		r.stroke(x, bottom, GlyphHorizontal, op.Color)
	}
	for y := top; y <= bottom; y++ {
		r.stroke(left, y, GlyphVertical, op.Color)
		r.stroke(right, y, GlyphVertical, op.Color)
	}
	// Corners sit on the clipped extents, not the requested rectangle.
	r.stroke(left, top, GlyphTopLeft, op.Color)
	r.stroke(right, top, GlyphTopRight, op.Color)
	r.stroke(left, bottom, GlyphBottomLeft, op.Color)
	r.stroke(right, bottom, GlyphBottomRight, op.Color)
}

// stroke replaces the glyph and foreground of a cell, keeping its
// background and attributes.
func (r *rasterizer) stroke(x, y int, glyph string, fg core.Color) {
	cell := r.g.At(x, y)
	cell.Grapheme = glyph
	cell.Width = 1
	cell.Fg = fg
	r.g.Set(x, y, cell)
}

func (r *rasterizer) text(op displaylist.TextRun) {
	clip := r.top()
	if clip.Empty() || op.Y < clip.Y || op.Y >= clip.Bottom() {
		return
	}
	left, right := clip.X, clip.Right()

	col := op.X
	for cluster := range core.Graphemes(op.Text) {
		if col >= right {
			return
		}
		w := r.opts.Width(cluster)
		if col < left {
			// A wide glyph whose trailing half is the first visible
			// column is not split either.
			if w == 2 && col+1 == left {
				r.put(left, op, r.opts.Placeholder, 1)
			}
			col += w
			continue
		}
		if w == 2 && col+1 >= right {
			r.put(col, op, r.opts.Placeholder, 1)
			col++
			continue
		}
		// Only the anchor cell of a wide glyph is written.
		r.put(col, op, cluster, w)
		col += w
	}
}

func (r *rasterizer) put(x int, op displaylist.TextRun, glyph string, width int) {
	bg := r.g.At(x, op.Y).Bg
	if op.Bg != nil {
		bg = *op.Bg
	}
	r.g.Set(x, op.Y, core.Cell{
		Grapheme: glyph,
		Width:    uint8(width),
		Fg:       op.Fg,
		Bg:       bg,
		Attrs:    op.Attrs,
	})
}
