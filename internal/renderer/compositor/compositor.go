// Package compositor turns display lists into cell grids and cell grids into
// terminal updates.
//
// A frame goes through three pure stages:
//
//	Composite  display list + viewport  -> grid
//	Damage     previous grid + next grid -> dirty rectangles
//	RowRuns    grid + dirty rectangles   -> style-batched row runs
//
// None of the stages block, log, or keep state between calls. Retaining the
// previous grid is the caller's job (see package frame).
package compositor

import (
	"fmt"
	"strings"

	"github.com/dshills/tessera/internal/renderer/core"
)

// ScrollMode selects how Damage treats frames that look like a vertical
// scroll of the previous frame.
type ScrollMode int

const (
	// ScrollCompat reports only the newly exposed band when a scroll is
	// detected. Edits inside the scrolled region are not looked for.
	ScrollCompat ScrollMode = iota

	// ScrollStrict reports the exposed band and then diffs the rest of the
	// frame against the shifted previous frame.
	ScrollStrict

	// ScrollOff disables scroll detection; every frame is fully diffed.
	ScrollOff
)

// String returns the configuration name of the mode.
func (m ScrollMode) String() string {
	switch m {
	case ScrollCompat:
		return "compat"
	case ScrollStrict:
		return "strict"
	case ScrollOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseScrollMode parses "compat", "strict" or "off".
func ParseScrollMode(s string) (ScrollMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compat":
		return ScrollCompat, nil
	case "strict":
		return ScrollStrict, nil
	case "off", "none", "disabled":
		return ScrollOff, nil
	default:
		return ScrollCompat, fmt.Errorf("unknown scroll detection mode %q", s)
	}
}

// DefaultMaxScrollShift bounds the vertical shifts tried by scroll detection.
const DefaultMaxScrollShift = 5

// Box-drawing glyphs used for every border.
const (
	GlyphHorizontal  = "─"
	GlyphVertical    = "│"
	GlyphTopLeft     = "┌"
	GlyphTopRight    = "┐"
	GlyphBottomLeft  = "└"
	GlyphBottomRight = "┘"
)

// DefaultPlaceholder is written where a wide glyph would straddle a clip edge.
const DefaultPlaceholder = " "

// Options configures a Compositor.
type Options struct {
	// ScrollMode controls scroll detection in Damage.
	ScrollMode ScrollMode

	// MaxScrollShift is the largest shift, in rows, scroll detection tries.
	MaxScrollShift int

	// Width classifies grapheme clusters as single or double width.
	Width core.WidthFunc

	// Placeholder is the single-width glyph written instead of a wide glyph
	// that does not fit inside the clip.
	Placeholder string

	// Blank is the cell a fresh grid is filled with.
	Blank core.Cell
}

// DefaultOptions returns the default compositor configuration.
func DefaultOptions() Options {
	return Options{
		ScrollMode:     ScrollCompat,
		MaxScrollShift: DefaultMaxScrollShift,
		Width:          core.TableWidth,
		Placeholder:    DefaultPlaceholder,
		Blank:          core.BlankCell(core.ColorWhite, core.ColorBlack),
	}
}

// Compositor runs the three frame stages under a fixed configuration.
// It holds no per-frame state and is safe for concurrent use.
type Compositor struct {
	opts Options
}

// New creates a compositor. Zero-valued fields of opts fall back to
// DefaultOptions, except ScrollMode whose zero value is ScrollCompat.
func New(opts Options) *Compositor {
	def := DefaultOptions()
	if opts.MaxScrollShift <= 0 {
		opts.MaxScrollShift = def.MaxScrollShift
	}
	if opts.Width == nil {
		opts.Width = def.Width
	}
	if opts.Placeholder == "" {
		opts.Placeholder = def.Placeholder
	}
	if opts.Blank == (core.Cell{}) {
		opts.Blank = def.Blank
	}
	return &Compositor{opts: opts}
}

// Options returns the effective configuration.
func (c *Compositor) Options() Options {
	return c.opts
}

// WithScrollMode returns a compositor sharing c's configuration except for
// the scroll mode.
func (c *Compositor) WithScrollMode(mode ScrollMode) *Compositor {
	opts := c.opts
	opts.ScrollMode = mode
	return &Compositor{opts: opts}
}

var defaultCompositor = New(DefaultOptions())

// Default returns the compositor used by the package-level functions.
func Default() *Compositor {
	return defaultCompositor
}
