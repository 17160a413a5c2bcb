// Package core provides the value types shared by the rendering pipeline:
// colors, attribute sets, geometry, terminal cells and glyph width
// classification.
//
// Every type in this package is a comparable value. Two cells with the same
// visible content and styling compare equal with ==, which is what the
// damage pass relies on.
package core
