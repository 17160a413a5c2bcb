package displaylist

import (
	"fmt"
	"iter"

	"github.com/dshills/tessera/internal/renderer/core"
)

// List is an immutable, ordered sequence of operations.
// The zero value is an empty list.
type List struct {
	ops []Op
}

// Len returns the number of operations.
func (l List) Len() int {
	return len(l.ops)
}

// At returns the i-th operation.
func (l List) At(i int) Op {
	return l.ops[i]
}

// All iterates the operations in build order.
func (l List) All() iter.Seq2[int, Op] {
	return func(yield func(int, Op) bool) {
		for i, op := range l.ops {
			if !yield(i, op) {
				return
			}
		}
	}
}

// Builder accumulates operations for one frame.
// A Builder is not safe for concurrent use.
type Builder struct {
	ops   []Op
	depth int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// PushClip restricts subsequent draws to the intersection of r and the
// current clip.
func (b *Builder) PushClip(r core.Rect) *Builder {
	b.ops = append(b.ops, ClipPush{Rect: r})
	b.depth++
	return b
}

// PushLayer opens a scope that duplicates the current clip.
func (b *Builder) PushLayer() *Builder {
	b.ops = append(b.ops, LayerPush{})
	b.depth++
	return b
}

// Pop closes the most recent clip or layer scope.
// Unbalanced pops are recorded as-is; see Validate.
func (b *Builder) Pop() *Builder {
	b.ops = append(b.ops, Pop{})
	if b.depth > 0 {
		b.depth--
	}
	return b
}

// Rect fills r with a solid color.
func (b *Builder) Rect(r core.Rect, fill core.Color) *Builder {
	b.ops = append(b.ops, Rect{Rect: r, Fill: fill})
	return b
}

// Border outlines r. style is recorded but does not change the glyphs.
func (b *Builder) Border(r core.Rect, style string, color core.Color) *Builder {
	b.ops = append(b.ops, Border{Rect: r, Style: style, Color: color})
	return b
}

// Text draws s at (x, y) with a transparent background.
func (b *Builder) Text(x, y int, s string, fg core.Color, attrs core.Attribute) *Builder {
	b.ops = append(b.ops, TextRun{X: x, Y: y, Text: s, Fg: fg, Attrs: attrs})
	return b
}

// TextBg draws s at (x, y) over an explicit background.
func (b *Builder) TextBg(x, y int, s string, fg, bg core.Color, attrs core.Attribute) *Builder {
	b.ops = append(b.ops, TextRun{X: x, Y: y, Text: s, Fg: fg, Bg: &bg, Attrs: attrs})
	return b
}

// Append adds an already constructed operation.
func (b *Builder) Append(op Op) *Builder {
	switch op.(type) {
	case ClipPush, LayerPush:
		b.depth++
	case Pop:
		if b.depth > 0 {
			b.depth--
		}
	}
	b.ops = append(b.ops, op)
	return b
}

// Depth returns the number of scopes currently open.
func (b *Builder) Depth() int {
	return b.depth
}

// Len returns the number of operations recorded so far.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Reset discards all recorded operations so the builder can be reused.
func (b *Builder) Reset() {
	b.ops = b.ops[:0]
	b.depth = 0
}

// Build returns an immutable list of the recorded operations. The builder
// may keep being used; later calls do not affect the returned list.
func (b *Builder) Build() List {
	ops := make([]Op, len(b.ops))
	for i, op := range b.ops {
		// TextRun carries a pointer; give the list its own copy.
		if tr, ok := op.(TextRun); ok && tr.Bg != nil {
			bg := *tr.Bg
			tr.Bg = &bg
			op = tr
		}
		ops[i] = op
	}
	return List{ops: ops}
}

// BalanceError reports a display list whose pushes and pops do not match.
type BalanceError struct {
	// Index is the position of the first unmatched Pop, or -1 when the
	// list ends with scopes still open.
	Index int
	// Open is the number of scopes left open at the end of the list.
	Open int
}

func (e *BalanceError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("display list: unmatched pop at op %d", e.Index)
	}
	return fmt.Sprintf("display list: %d unclosed push(es)", e.Open)
}

// Validate checks that every push is matched by a later pop. The
// compositor tolerates unbalanced lists; Validate exists for debug checks.
func Validate(l List) error {
	depth := 0
	for i, op := range l.All() {
		switch op.(type) {
		case ClipPush, LayerPush:
			depth++
		case Pop:
			if depth == 0 {
				return &BalanceError{Index: i}
			}
			depth--
		}
	}
	if depth != 0 {
		return &BalanceError{Index: -1, Open: depth}
	}
	return nil
}
