// Package grid provides the dense cell buffer the compositor rasterizes into.
package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/tessera/internal/renderer/core"
)

// ErrInvalidSize is returned when a grid is requested with a non-positive
// width or height.
var ErrInvalidSize = errors.New("grid dimensions must be positive")

// Grid is a width × height buffer of cells stored row-major.
//
// Set and At do not bounds-check beyond what the slice does; callers clip
// before writing. A Grid has no internal locking: once fully written it may
// be read from several goroutines, but never written concurrently.
type Grid struct {
	width, height int
	cells         []core.Cell
}

// New allocates a grid filled with blank.
func New(width, height int, blank core.Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	cells := make([]core.Cell, width*height)
	for i := range cells {
		cells[i] = blank
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

// MustNew is like New but panics on invalid dimensions.
func MustNew(width, height int, blank core.Cell) *Grid {
	g, err := New(width, height, blank)
	if err != nil {
		panic(err)
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns the grid dimensions.
func (g *Grid) Size() core.Size {
	return core.Size{W: g.width, H: g.height}
}

// Bounds returns the rectangle covering the whole grid.
func (g *Grid) Bounds() core.Rect {
	return core.Rect{W: g.width, H: g.height}
}

// At returns the cell at (x, y).
func (g *Grid) At(x, y int) core.Cell {
	return g.cells[y*g.width+x]
}

// Set stores c at (x, y).
func (g *Grid) Set(x, y int, c core.Cell) {
	g.cells[y*g.width+x] = c
}

// Row returns the cells of row y. The slice aliases the grid's storage and
// must be treated as read-only.
func (g *Grid) Row(y int) []core.Cell {
	start := y * g.width
	return g.cells[start : start+g.width : start+g.width]
}

// InBounds reports whether (x, y) addresses a cell of the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Equal reports whether two grids have the same size and identical cells.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]core.Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// RowText returns the graphemes of row y concatenated.
func (g *Grid) RowText(y int) string {
	var sb strings.Builder
	for _, c := range g.Row(y) {
		sb.WriteString(c.Grapheme)
	}
	return sb.String()
}

// String renders every row's text separated by newlines. Intended for tests
// and debugging dumps.
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(g.RowText(y))
	}
	return sb.String()
}
