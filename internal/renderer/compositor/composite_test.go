package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
	"github.com/dshills/tessera/internal/renderer/grid"
)

var (
	fillA = core.RGB(10, 20, 30)
	fillB = core.RGB(200, 100, 50)
)

func composite(t *testing.T, b *displaylist.Builder, w, h int) *grid.Grid {
	t.Helper()
	g, err := Composite(b.Build(), core.Size{W: w, H: h})
	require.NoError(t, err)
	return g
}

func TestCompositeRejectsBadViewport(t *testing.T) {
	_, err := Composite(displaylist.List{}, core.Size{W: 0, H: 5})
	require.ErrorIs(t, err, grid.ErrInvalidSize)
}

func TestCompositeEmptyListIsBlank(t *testing.T) {
	g := composite(t, displaylist.NewBuilder(), 4, 2)
	blank := DefaultOptions().Blank
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, blank, g.At(x, y))
		}
	}
}

func TestCompositeIsDeterministic(t *testing.T) {
	b := displaylist.NewBuilder().
		Rect(core.NewRect(0, 0, 20, 10), fillA).
		PushClip(core.NewRect(2, 2, 10, 5)).
		Border(core.NewRect(1, 1, 12, 7), "single", core.ColorWhite).
		Text(3, 3, "héllo 世界 🚀", core.ColorYellow, core.AttrBold).
		Pop()
	list := b.Build()

	g1, err := Composite(list, core.Size{W: 20, H: 10})
	require.NoError(t, err)
	g2, err := Composite(list, core.Size{W: 20, H: 10})
	require.NoError(t, err)
	assert.True(t, g1.Equal(g2))
}

func TestNestedClipIntersection(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(0, 0, 8, 8)).
		PushClip(core.NewRect(5, 5, 10, 10)).
		Rect(core.NewRect(0, 0, 20, 20), fillA).
		Pop().
		Pop()
	g := composite(t, b, 20, 20)

	want := core.NewRect(5, 5, 3, 3)
	filled := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if g.At(x, y) == core.FillCell(fillA) {
				filled++
				assert.True(t, want.Contains(x, y), "fill leaked to (%d,%d)", x, y)
			}
		}
	}
	assert.Equal(t, 9, filled)
}

func TestPopRestoresParentClip(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(0, 0, 2, 2)).
		Pop().
		Rect(core.NewRect(0, 0, 4, 4), fillA)
	g := composite(t, b, 4, 4)
	assert.Equal(t, core.FillCell(fillA), g.At(3, 3))
}

func TestPopNeverRemovesRoot(t *testing.T) {
	b := displaylist.NewBuilder().
		Pop().
		Pop().
		Rect(core.NewRect(-5, -5, 100, 100), fillA)
	g := composite(t, b, 3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, core.FillCell(fillA), g.At(x, y))
		}
	}
}

func TestLayerDuplicatesClip(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(1, 1, 2, 2)).
		PushLayer().
		Rect(core.NewRect(0, 0, 4, 4), fillA).
		Pop().
		Rect(core.NewRect(0, 0, 4, 4), fillB).
		Pop()
	g := composite(t, b, 4, 4)

	// Both fills are restricted to the same clip; the second overwrites.
	assert.Equal(t, core.FillCell(fillB), g.At(1, 1))
	assert.Equal(t, core.FillCell(fillB), g.At(2, 2))
	assert.Equal(t, DefaultOptions().Blank, g.At(0, 0))
	assert.Equal(t, DefaultOptions().Blank, g.At(3, 3))
}

func TestDegenerateGeometryIsNoOp(t *testing.T) {
	b := displaylist.NewBuilder().
		Rect(core.NewRect(2, 2, -3, 4), fillA).
		Border(core.NewRect(1, 1, 0, 0), "single", core.ColorRed).
		PushClip(core.NewRect(10, 10, 5, 5)).
		Rect(core.NewRect(0, 0, 4, 4), fillA).
		Text(0, 0, "nope", core.ColorRed, core.AttrNone).
		Pop()
	g := composite(t, b, 4, 4)
	assert.True(t, g.Equal(grid.MustNew(4, 4, DefaultOptions().Blank)))
}

func TestRectOverwrites(t *testing.T) {
	b := displaylist.NewBuilder().
		TextBg(0, 0, "x", core.ColorRed, fillB, core.AttrBold).
		Rect(core.NewRect(0, 0, 1, 1), fillA)
	g := composite(t, b, 2, 1)
	assert.Equal(t, core.Cell{Grapheme: " ", Width: 1, Fg: fillA, Bg: fillA}, g.At(0, 0))
}

func TestBorderGlyphs(t *testing.T) {
	b := displaylist.NewBuilder().Border(core.NewRect(0, 0, 4, 3), "double", core.ColorWhite)
	g := composite(t, b, 4, 3)
	assert.Equal(t, "┌──┐\n│  │\n└──┘", g.String())
}

func TestBorderCornersFollowClip(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(0, 0, 3, 2)).
		Border(core.NewRect(0, 0, 6, 6), "single", core.ColorWhite).
		Pop()
	g := composite(t, b, 6, 6)
	assert.Equal(t, "┌─┐", g.RowText(0)[:len("┌─┐")])
	assert.Equal(t, "└─┘", g.RowText(1)[:len("└─┘")])
	assert.Equal(t, "      ", g.RowText(2))
}

func TestBorderKeepsBackground(t *testing.T) {
	b := displaylist.NewBuilder().
		Rect(core.NewRect(0, 0, 3, 3), fillA).
		Border(core.NewRect(0, 0, 3, 3), "single", core.ColorRed)
	g := composite(t, b, 3, 3)

	corner := g.At(0, 0)
	assert.Equal(t, GlyphTopLeft, corner.Grapheme)
	assert.Equal(t, core.ColorRed, corner.Fg)
	assert.Equal(t, fillA, corner.Bg)
	assert.Equal(t, core.FillCell(fillA), g.At(1, 1), "interior is untouched")
}

func TestTextTransparency(t *testing.T) {
	b := displaylist.NewBuilder().
		Rect(core.NewRect(0, 0, 10, 3), fillA).
		Text(1, 1, "abc中", core.ColorWhite, core.AttrUnderline)
	g := composite(t, b, 10, 3)

	for x := 1; x <= 4; x++ {
		assert.Equal(t, fillA, g.At(x, 1).Bg, "column %d lost its background", x)
	}
	assert.Equal(t, "a", g.At(1, 1).Grapheme)
	assert.Equal(t, core.AttrUnderline, g.At(1, 1).Attrs)
}

func TestTextExplicitBackground(t *testing.T) {
	b := displaylist.NewBuilder().
		Rect(core.NewRect(0, 0, 4, 1), fillA).
		TextBg(0, 0, "ab", core.ColorWhite, fillB, core.AttrNone)
	g := composite(t, b, 4, 1)
	assert.Equal(t, fillB, g.At(0, 0).Bg)
	assert.Equal(t, fillB, g.At(1, 0).Bg)
	assert.Equal(t, fillA, g.At(2, 0).Bg)
}

func TestTextOutsideClipRowsIsSkipped(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(0, 1, 5, 1)).
		Text(0, 0, "above", core.ColorWhite, core.AttrNone).
		Text(0, 2, "below", core.ColorWhite, core.AttrNone).
		Text(0, 1, "in", core.ColorWhite, core.AttrNone).
		Pop()
	g := composite(t, b, 5, 3)
	assert.Equal(t, "     ", g.RowText(0))
	assert.Equal(t, "in   ", g.RowText(1))
	assert.Equal(t, "     ", g.RowText(2))
}

func TestTextHorizontalClipping(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(2, 0, 3, 1)).
		Text(0, 0, "abcdefg", core.ColorWhite, core.AttrNone).
		Pop()
	g := composite(t, b, 7, 1)
	assert.Equal(t, "  cde  ", g.RowText(0))
}

func TestWideGlyphWidthRecorded(t *testing.T) {
	b := displaylist.NewBuilder().Text(0, 0, "中a", core.ColorWhite, core.AttrNone)
	g := composite(t, b, 4, 1)

	assert.Equal(t, "中", g.At(0, 0).Grapheme)
	assert.Equal(t, uint8(2), g.At(0, 0).Width)
	assert.Equal(t, DefaultOptions().Blank, g.At(1, 0), "trailing cell is left as-is")
	assert.Equal(t, "a", g.At(2, 0).Grapheme)
}

func TestWideGlyphClampedAtClipEdge(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(0, 0, 8, 1)).
		Text(6, 0, "a中", core.ColorWhite, core.AttrNone).
		Pop()
	g := composite(t, b, 12, 1)

	assert.Equal(t, "a", g.At(6, 0).Grapheme)
	placeholder := g.At(7, 0)
	assert.Equal(t, DefaultPlaceholder, placeholder.Grapheme)
	assert.Equal(t, uint8(1), placeholder.Width)
	assert.Equal(t, core.ColorWhite, placeholder.Fg)
	for x := 8; x < 12; x++ {
		assert.Equal(t, DefaultOptions().Blank, g.At(x, 0), "column %d written past the clip", x)
	}
}

func TestWideGlyphClampedAtLeftEdge(t *testing.T) {
	b := displaylist.NewBuilder().
		PushClip(core.NewRect(3, 0, 4, 1)).
		Text(2, 0, "中bc", core.ColorWhite, core.AttrNone).
		Pop()
	g := composite(t, b, 8, 1)

	assert.Equal(t, DefaultPlaceholder, g.At(3, 0).Grapheme)
	assert.Equal(t, core.ColorWhite, g.At(3, 0).Fg)
	assert.Equal(t, "b", g.At(4, 0).Grapheme)
	assert.Equal(t, "c", g.At(5, 0).Grapheme)
	assert.Equal(t, DefaultOptions().Blank, g.At(2, 0))
}

func TestCustomPlaceholderAndWidthPolicy(t *testing.T) {
	c := New(Options{Placeholder: "…", Width: core.RuneWidthPolicy(false)})
	list := displaylist.NewBuilder().Text(2, 0, "中", core.ColorWhite, core.AttrNone).Build()
	g, err := c.Composite(list, core.Size{W: 3, H: 1})
	require.NoError(t, err)
	assert.Equal(t, "…", g.At(2, 0).Grapheme)
}

func TestCombiningMarksStayInOneCell(t *testing.T) {
	b := displaylist.NewBuilder().Text(0, 0, "e\u0301x", core.ColorWhite, core.AttrNone)
	g := composite(t, b, 3, 1)
	assert.Equal(t, "e\u0301", g.At(0, 0).Grapheme)
	assert.Equal(t, "x", g.At(1, 0).Grapheme)
}
