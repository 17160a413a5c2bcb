package core

import (
	"iter"
	"sort"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// WidthFunc reports the display width of one grapheme cluster: 1 or 2.
type WidthFunc func(cluster string) int

// wideRanges lists the code point ranges rendered double-width: the
// East-Asian wide blocks, Hangul, most emoji blocks and a handful of
// symbols that terminals draw as emoji. Sorted and non-overlapping.
var wideRanges = [][2]rune{
	{0x1100, 0x115F},   // Hangul Jamo initial consonants
	{0x231A, 0x231B},   // Watch, hourglass
	{0x2329, 0x232A},   // Angle brackets
	{0x23E9, 0x23EC},   // Media controls
	{0x23F0, 0x23F0},   // Alarm clock
	{0x23F3, 0x23F3},   // Hourglass with flowing sand
	{0x25FD, 0x25FE},   // Medium small squares
	{0x2614, 0x2615},   // Umbrella, hot beverage
	{0x2648, 0x2653},   // Zodiac
	{0x267F, 0x267F},   // Wheelchair
	{0x2693, 0x2693},   // Anchor
	{0x26A1, 0x26A1},   // High voltage
	{0x26AA, 0x26AB},   // Circles
	{0x26BD, 0x26BE},   // Soccer, baseball
	{0x26C4, 0x26C5},   // Snowman, sun behind cloud
	{0x26D4, 0x26D4},   // No entry
	{0x26EA, 0x26EA},   // Church
	{0x26F2, 0x26F3},   // Fountain, golf
	{0x26F5, 0x26F5},   // Sailboat
	{0x26FA, 0x26FA},   // Tent
	{0x26FD, 0x26FD},   // Fuel pump
	{0x2705, 0x2705},   // Check mark button
	{0x270A, 0x270B},   // Raised fist, hand
	{0x2728, 0x2728},   // Sparkles
	{0x274C, 0x274C},   // Cross mark
	{0x274E, 0x274E},   // Cross mark button
	{0x2753, 0x2755},   // Question marks
	{0x2757, 0x2757},   // Exclamation mark
	{0x2795, 0x2797},   // Plus, minus, divide
	{0x27B0, 0x27B0},   // Curly loop
	{0x27BF, 0x27BF},   // Double curly loop
	{0x2B1B, 0x2B1C},   // Large squares
	{0x2B50, 0x2B50},   // Star
	{0x2B55, 0x2B55},   // Heavy circle
	{0x2E80, 0x303E},   // CJK radicals, Kangxi, CJK symbols and punctuation
	{0x3041, 0x33FF},   // Hiragana through CJK compatibility
	{0x3400, 0x4DBF},   // CJK extension A
	{0x4E00, 0x9FFF},   // CJK unified ideographs
	{0xA000, 0xA4CF},   // Yi
	{0xA960, 0xA97F},   // Hangul Jamo extended A
	{0xAC00, 0xD7A3},   // Hangul syllables
	{0xF900, 0xFAFF},   // CJK compatibility ideographs
	{0xFE10, 0xFE19},   // Vertical forms
	{0xFE30, 0xFE6F},   // CJK compatibility forms, small forms
	{0xFF00, 0xFF60},   // Fullwidth forms
	{0xFFE0, 0xFFE6},   // Fullwidth signs
	{0x1F004, 0x1F004}, // Mahjong red dragon
	{0x1F0CF, 0x1F0CF}, // Joker
	{0x1F18E, 0x1F18E}, // AB button
	{0x1F191, 0x1F19A}, // Squared words
	{0x1F200, 0x1F251}, // Enclosed ideographic supplement
	{0x1F300, 0x1F64F}, // Misc symbols and pictographs, emoticons
	{0x1F680, 0x1F6FF}, // Transport and map
	{0x1F7E0, 0x1F7EB}, // Colored circles and squares
	{0x1F900, 0x1F9FF}, // Supplemental symbols and pictographs
	{0x1FA70, 0x1FAFF}, // Symbols and pictographs extended A
	{0x20000, 0x2FFFD}, // CJK extensions B-F
	{0x30000, 0x3FFFD}, // CJK extension G and beyond
}

// IsWideRune reports whether r falls in one of the double-width ranges.
func IsWideRune(r rune) bool {
	i := sort.Search(len(wideRanges), func(i int) bool {
		return wideRanges[i][1] >= r
	})
	return i < len(wideRanges) && wideRanges[i][0] <= r
}

// RuneWidth returns 2 for wide runes and 1 for everything else.
func RuneWidth(r rune) int {
	if IsWideRune(r) {
		return 2
	}
	return 1
}

// TableWidth classifies a cluster by its first rune using the fixed
// wide-range table. It is the default WidthFunc.
func TableWidth(cluster string) int {
	r, _ := utf8.DecodeRuneInString(cluster)
	return RuneWidth(r)
}

// RuneWidthPolicy returns a WidthFunc backed by the Unicode East Asian
// Width property. ambiguousWide treats ambiguous-width characters as wide,
// matching CJK locales.
func RuneWidthPolicy(ambiguousWide bool) WidthFunc {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = ambiguousWide
	return func(cluster string) int {
		return clampWidth(cond.StringWidth(cluster))
	}
}

func clampWidth(w int) int {
	if w >= 2 {
		return 2
	}
	return 1
}

// Graphemes yields the grapheme clusters of s in order.
func Graphemes(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		g := uniseg.NewGraphemes(s)
		for g.Next() {
			if !yield(g.Str()) {
				return
			}
		}
	}
}

// StringWidth sums the cluster widths of s under width.
func StringWidth(s string, width WidthFunc) int {
	if width == nil {
		width = TableWidth
	}
	total := 0
	for cluster := range Graphemes(s) {
		total += width(cluster)
	}
	return total
}
