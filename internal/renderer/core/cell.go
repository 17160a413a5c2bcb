package core

// Cell is one terminal character position.
//
// Cells are plain values; == compares grapheme, width, colors and
// attributes, which is the equality the damage pass uses.
type Cell struct {
	// Grapheme is the text drawn in this cell, normally one grapheme cluster.
	Grapheme string

	// Width is the display width of Grapheme: 1, or 2 for wide glyphs.
	// Only the anchor cell of a wide glyph is written.
	Width uint8

	Fg    Color
	Bg    Color
	Attrs Attribute
}

// BlankCell returns a space with the given colors.
func BlankCell(fg, bg Color) Cell {
	return Cell{Grapheme: " ", Width: 1, Fg: fg, Bg: bg}
}

// FillCell returns the cell a solid fill of color c produces.
func FillCell(c Color) Cell {
	return Cell{Grapheme: " ", Width: 1, Fg: c, Bg: c}
}

// SameStyle reports whether two cells share colors and attributes.
func (c Cell) SameStyle(other Cell) bool {
	return c.Fg == other.Fg && c.Bg == other.Bg && c.Attrs == other.Attrs
}
