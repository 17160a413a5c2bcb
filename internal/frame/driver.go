// Package frame drives the compositor: it keeps the previously presented
// grid and turns each new display list into the row runs a sink needs.
package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
	"github.com/dshills/tessera/internal/renderer/grid"
)

// ErrClosed is returned by Render after Close.
var ErrClosed = errors.New("frame driver closed")

// Stats describes one rendered frame.
type Stats struct {
	// Frame is the 1-based number of the frame.
	Frame uint64
	// DirtyRects is the number of dirty rectangles Damage reported.
	DirtyRects int
	// Runs is the number of row runs sent to the sink.
	Runs int
	// Cells is the number of cells covered by the dirty rectangles.
	Cells int
	// Shift is the scroll applied to the sink before the runs, 0 if none.
	Shift int
	// FullRedraw is set when the frame was drawn without a previous grid.
	FullRedraw bool
}

// Driver renders display lists to a sink, sending only what changed since
// the last presented frame. One frame is in flight at a time.
type Driver struct {
	mu sync.Mutex

	sink     backend.Sink
	scroller backend.Scroller
	comp     *compositor.Compositor
	logger   *logging.Logger

	prev   *grid.Grid
	frames uint64
	last   Stats
	closed bool
}

// New creates a driver. A sink that cannot scroll gets a compositor with
// scroll detection disabled, since scroll-band damage assumes the sink's
// content was shifted. nil comp selects compositor.Default; nil logger
// discards logs.
func New(sink backend.Sink, comp *compositor.Compositor, logger *logging.Logger) *Driver {
	if comp == nil {
		comp = compositor.Default()
	}
	if logger == nil {
		logger = logging.NullLogger
	}

	d := &Driver{
		sink:   sink,
		comp:   comp,
		logger: logger.WithComponent("frame"),
	}
	if s, ok := sink.(backend.Scroller); ok {
		d.scroller = s
	} else if comp.Options().ScrollMode != compositor.ScrollOff {
		d.comp = comp.WithScrollMode(compositor.ScrollOff)
	}
	return d
}

// Render composites list at the sink's current size and presents the
// difference from the previous frame.
//
// When the sink's size changed, or after Invalidate, the frame is redrawn
// in full. If the sink rejects the runs, the next frame is a full redraw.
func (d *Driver) Render(list displaylist.List) (Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Stats{}, ErrClosed
	}

	if d.logger.Enabled(logging.LevelDebug) {
		if err := displaylist.Validate(list); err != nil {
			d.logger.Warn("unbalanced display list: %v", err)
		}
	}

	w, h := d.sink.Size()
	next, err := d.comp.Composite(list, core.Size{W: w, H: h})
	if err != nil {
		return Stats{}, fmt.Errorf("composite: %w", err)
	}

	if d.prev != nil && d.prev.Size() != next.Size() {
		d.logger.Debug("sink resized from %s to %s", d.prev.Size(), next.Size())
		d.prev = nil
	}

	report, runs := d.comp.Frame(d.prev, next)
	if report.Shift != 0 {
		d.scroller.Scroll(report.Shift)
	}
	if err := d.sink.Apply(runs); err != nil {
		d.prev = nil
		return Stats{}, fmt.Errorf("apply runs: %w", err)
	}
	d.sink.Show()

	d.prev = next
	d.frames++
	d.last = Stats{
		Frame:      d.frames,
		DirtyRects: len(report.Rects),
		Runs:       len(runs),
		Cells:      report.Cells(),
		Shift:      report.Shift,
		FullRedraw: report.FullRedraw,
	}
	d.logger.Debug("frame %d: %d rects, %d runs, %d cells, shift %d",
		d.last.Frame, d.last.DirtyRects, d.last.Runs, d.last.Cells, d.last.Shift)

	return d.last, nil
}

// Previous returns the last presented grid, or nil before the first frame
// and after Invalidate. The grid must not be modified.
func (d *Driver) Previous() *grid.Grid {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prev
}

// Last returns the stats of the most recent frame.
func (d *Driver) Last() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Invalidate forgets the previous grid so the next frame is drawn in full.
// Call it when the sink's content was lost, e.g. after a terminal sync.
func (d *Driver) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = nil
}

// Compositor returns the compositor frames are rendered with.
func (d *Driver) Compositor() *compositor.Compositor {
	return d.comp
}

// Close releases the previous grid. The sink is not closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.prev = nil
	return nil
}
