// Package displaylist describes a frame as an ordered list of drawing
// operations.
//
// Widgets append operations through a Builder; the compositor replays the
// resulting List in order. The operation set is closed: consumers switch on
// the concrete type and every case is known.
package displaylist

import "github.com/dshills/tessera/internal/renderer/core"

// Op is one drawing operation. The set of implementations is closed.
type Op interface {
	op()
}

// ClipPush intersects the current clip with Rect and pushes the result.
type ClipPush struct {
	Rect core.Rect
}

// LayerPush pushes a copy of the current clip. Layers only scope clips;
// nothing is blended.
type LayerPush struct{}

// Pop removes the most recent ClipPush or LayerPush. The root clip is
// never removed.
type Pop struct{}

// Rect fills a region with a solid color.
type Rect struct {
	Rect core.Rect
	Fill core.Color
}

// Border outlines a region with box-drawing glyphs.
// Style names the requested border style; a single glyph set is drawn
// regardless of its value.
type Border struct {
	Rect  core.Rect
	Style string
	Color core.Color
}

// TextRun draws text on one row starting at (X, Y).
// A nil Bg keeps whatever background is already rasterized under each cell.
type TextRun struct {
	X, Y  int
	Text  string
	Fg    core.Color
	Bg    *core.Color
	Attrs core.Attribute
}

func (ClipPush) op()  {}
func (LayerPush) op() {}
func (Pop) op()       {}
func (Rect) op()      {}
func (Border) op()    {}
func (TextRun) op()   {}

// Kind returns a short name for op, used in logs and errors.
func Kind(op Op) string {
	switch op.(type) {
	case ClipPush:
		return "clip"
	case LayerPush:
		return "layer"
	case Pop:
		return "pop"
	case Rect:
		return "rect"
	case Border:
		return "border"
	case TextRun:
		return "text"
	default:
		return "unknown"
	}
}
