// Package backend provides the terminal sinks that present row runs.
//
// A sink receives the ordered runs for a frame, places each at
// (ColStart, Row), writes its text one grapheme per column under the run's
// colors and attributes, and touches nothing outside the runs. Show flushes
// the frame to the display.
package backend

import (
	"errors"

	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
)

// ErrNotInitialized is returned when a sink is used before Init.
var ErrNotInitialized = errors.New("backend not initialized")

// Sink presents row runs on a display surface.
type Sink interface {
	// Size returns the current dimensions in cells.
	Size() (width, height int)

	// Apply writes runs to the sink's back buffer.
	Apply(runs []compositor.RowRun) error

	// Show makes everything applied so far visible.
	Show()
}

// Scroller is implemented by sinks that can shift their retained content
// vertically. A positive shift moves content down, a negative shift moves
// it up; the rows exposed keep stale content until overwritten.
type Scroller interface {
	Scroll(shift int)
}

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventInterrupt
	EventClosed
)

// Key represents a keyboard key.
type Key int

// Keys the renderer distinguishes. Everything else arrives as KeyRune or
// KeyOther.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyCtrlC
	KeyCtrlL
	KeyOther
)

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune

	// Resize event fields
	Width, Height int

	// Interrupt payload
	Data any
}

// EventSource delivers terminal input.
type EventSource interface {
	// PollEvent waits for and returns the next event.
	// Returns an EventClosed event once the source is shut down.
	PollEvent() Event

	// Interrupt wakes PollEvent with an EventInterrupt carrying data.
	Interrupt(data any)
}

// forEachCell walks the graphemes of run, one per column, stopping at
// ColEnd. Runs without Cells fall back to segmenting Text.
func forEachCell(run compositor.RowRun, fn func(x int, cluster string)) {
	x := run.ColStart
	if run.Cells != nil {
		for _, cluster := range run.Cells {
			if x >= run.ColEnd {
				return
			}
			fn(x, cluster)
			x++
		}
		return
	}
	for cluster := range core.Graphemes(run.Text) {
		if x >= run.ColEnd {
			return
		}
		fn(x, cluster)
		x++
	}
}
