package core

import (
	"slices"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		hex     string
		want    Color
		wantErr bool
	}{
		{"#FF8040", RGB(255, 128, 64), false},
		{"#ff8040", RGB(255, 128, 64), false},
		{"FF8040", RGB(255, 128, 64), false},
		{"#FFF", RGB(255, 255, 255), false},
		{"#000", RGB(0, 0, 0), false},
		{"invalid", Color{}, true},
		{"#GGG", Color{}, true},
		{"#12345", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := ParseHex(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHex(%q) expected error", tt.hex)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.hex, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestColorString(t *testing.T) {
	if got := RGB(255, 128, 0).String(); got != "#FF8000" {
		t.Errorf("String() = %q, want #FF8000", got)
	}
}

func TestColorBlend(t *testing.T) {
	if got := ColorBlack.Blend(ColorWhite, 0); got != ColorBlack {
		t.Errorf("blend 0 = %v, want black", got)
	}
	if got := ColorBlack.Blend(ColorWhite, 1); got != ColorWhite {
		t.Errorf("blend 1 = %v, want white", got)
	}
	mid := ColorBlack.Blend(ColorWhite, 0.5)
	if mid.R < 126 || mid.R > 129 || mid.R != mid.G || mid.G != mid.B {
		t.Errorf("blend 0.5 = %v, want mid gray", mid)
	}
	if got := ColorRed.Blend(ColorBlue, 7); got != ColorBlue {
		t.Errorf("amount should clamp to 1, got %v", got)
	}
}

func TestAttributes(t *testing.T) {
	a := AttrNone.With(AttrBold).With(AttrUnderline)
	if !a.Has(AttrBold) || !a.Has(AttrUnderline) {
		t.Error("expected bold and underline")
	}
	if a.Has(AttrDim) {
		t.Error("dim should not be set")
	}
	if a.Without(AttrBold).Has(AttrBold) {
		t.Error("Without should clear bold")
	}
	if got := a.String(); got != "bold|underline" {
		t.Errorf("String() = %q", got)
	}
	if got := AttrNone.String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		in      string
		want    Attribute
		wantErr bool
	}{
		{"", AttrNone, false},
		{"none", AttrNone, false},
		{"bold", AttrBold, false},
		{"bold|underline", AttrBold | AttrUnderline, false},
		{"Dim, italic", AttrDim | AttrItalic, false},
		{"sparkly", AttrNone, true},
	}
	for _, tt := range tests {
		got, err := ParseAttributes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAttributes(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAttributes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"nested", NewRect(0, 0, 8, 8), NewRect(5, 5, 10, 10), NewRect(5, 5, 3, 3)},
		{"contained", NewRect(0, 0, 80, 24), NewRect(2, 3, 4, 5), NewRect(2, 3, 4, 5)},
		{"disjoint", NewRect(0, 0, 4, 4), NewRect(10, 10, 2, 2), NewRect(10, 10, 0, 0)},
		{"negative size", NewRect(0, 0, 10, 10), NewRect(3, 3, -2, 4), NewRect(3, 3, 0, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersect(tt.b)
			if got != tt.want {
				t.Errorf("Intersect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectEmptyAndContains(t *testing.T) {
	r := NewRect(2, 2, 3, 1)
	if r.Empty() {
		t.Error("3x1 rect should not be empty")
	}
	if r.Area() != 3 {
		t.Errorf("Area() = %d, want 3", r.Area())
	}
	if !r.Contains(4, 2) || r.Contains(5, 2) || r.Contains(2, 3) {
		t.Error("Contains uses exclusive right/bottom edges")
	}
	if !NewRect(0, 0, 0, 5).Empty() {
		t.Error("zero width rect should be empty")
	}
}

func TestCellEquality(t *testing.T) {
	a := Cell{Grapheme: "x", Width: 1, Fg: ColorRed, Bg: ColorBlack, Attrs: AttrBold}
	b := Cell{Grapheme: "x", Width: 1, Fg: ColorRed, Bg: ColorBlack, Attrs: AttrBold}
	if a != b {
		t.Error("identical cells must compare equal")
	}
	b.Attrs = AttrNone
	if a == b {
		t.Error("cells differing in attributes must not be equal")
	}
	if !a.SameStyle(Cell{Grapheme: "y", Width: 1, Fg: ColorRed, Bg: ColorBlack, Attrs: AttrBold}) {
		t.Error("SameStyle should ignore grapheme")
	}
	if FillCell(ColorBlue) != (Cell{Grapheme: " ", Width: 1, Fg: ColorBlue, Bg: ColorBlue}) {
		t.Error("FillCell mismatch")
	}
}

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'A', 1},
		{' ', 1},
		{'é', 1},
		{'─', 1},
		{'中', 2},
		{'한', 2},
		{'あ', 2},
		{'Ａ', 2},
		{'😀', 2},
		{'🚀', 2},
		{'⭐', 2},
		{0x20001, 2},
		{0x1F650, 1},
	}
	for _, tt := range tests {
		if got := RuneWidth(tt.r); got != tt.want {
			t.Errorf("RuneWidth(%U) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestWideRangesSorted(t *testing.T) {
	for i, r := range wideRanges {
		if r[0] > r[1] {
			t.Errorf("range %d inverted: %X-%X", i, r[0], r[1])
		}
		if i > 0 && wideRanges[i-1][1] >= r[0] {
			t.Errorf("range %d overlaps previous: %X-%X", i, r[0], r[1])
		}
	}
}

func TestGraphemes(t *testing.T) {
	got := slices.Collect(Graphemes("aé中"))
	want := []string{"a", "é", "中"}
	if !slices.Equal(got, want) {
		t.Errorf("Graphemes = %q, want %q", got, want)
	}
}

func TestWidthPolicies(t *testing.T) {
	if TableWidth("中") != 2 || TableWidth("a") != 1 {
		t.Error("TableWidth misclassified")
	}
	rw := RuneWidthPolicy(false)
	if rw("中") != 2 || rw("a") != 1 {
		t.Error("runewidth policy misclassified")
	}
	if got := StringWidth("ab中", nil); got != 4 {
		t.Errorf("StringWidth = %d, want 4", got)
	}
}
