package backend

import (
	"strings"
	"sync"

	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/grid"
)

// Memory is an in-memory sink. It keeps the cells it was sent, which makes
// it useful for headless rendering and for checking that a frame's runs
// reproduce the composited grid.
type Memory struct {
	mu     sync.Mutex
	width  int
	height int
	blank  core.Cell
	cellW  core.WidthFunc
	cells  [][]core.Cell
	shows  int
	events chan Event
	closed bool
}

// NewMemory creates a memory sink filled with blank. width classifies the
// graphemes it receives; nil selects core.TableWidth.
func NewMemory(w, h int, blank core.Cell, width core.WidthFunc) *Memory {
	if width == nil {
		width = core.TableWidth
	}
	m := &Memory{
		width:  w,
		height: h,
		blank:  blank,
		cellW:  width,
		events: make(chan Event, 100),
	}
	m.cells = m.allocate(w, h)
	return m
}

func (m *Memory) allocate(w, h int) [][]core.Cell {
	cells := make([][]core.Cell, h)
	for y := range cells {
		cells[y] = make([]core.Cell, w)
		for x := range cells[y] {
			cells[y][x] = m.blank
		}
	}
	return cells
}

// Size returns the sink dimensions.
func (m *Memory) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// Apply writes runs. Cells outside the sink are ignored.
func (m *Memory) Apply(runs []compositor.RowRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range runs {
		if run.Row < 0 || run.Row >= m.height {
			continue
		}
		row := m.cells[run.Row]
		forEachCell(run, func(x int, cluster string) {
			if x < 0 || x >= m.width {
				return
			}
			row[x] = core.Cell{
				Grapheme: cluster,
				Width:    uint8(m.cellW(cluster)),
				Fg:       run.Fg,
				Bg:       run.Bg,
				Attrs:    run.Attrs,
			}
		})
	}
	return nil
}

// Scroll shifts the retained rows by shift.
func (m *Memory) Scroll(shift int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if shift == 0 || shift >= m.height || -shift >= m.height {
		return
	}
	if shift > 0 {
		for y := m.height - 1; y >= shift; y-- {
			copy(m.cells[y], m.cells[y-shift])
		}
		return
	}
	for y := 0; y < m.height+shift; y++ {
		copy(m.cells[y], m.cells[y-shift])
	}
}

// Show counts the flush.
func (m *Memory) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shows++
}

// Shows returns how many times Show was called.
func (m *Memory) Shows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}

// Cell returns the cell at (x, y), or the blank cell outside the sink.
func (m *Memory) Cell(x, y int) core.Cell {
	m.mu.Lock()
	defer m.mu.Unlock()

	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return m.blank
	}
	return m.cells[y][x]
}

// Grid returns a copy of the retained cells, or nil for an empty sink.
func (m *Memory) Grid() *grid.Grid {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, err := grid.New(m.width, m.height, m.blank)
	if err != nil {
		return nil
	}
	for y, row := range m.cells {
		for x, c := range row {
			g.Set(x, y, c)
		}
	}
	return g
}

// Resize changes the dimensions and clears the content.
func (m *Memory) Resize(w, h int) {
	m.mu.Lock()
	m.width, m.height = w, h
	m.cells = m.allocate(w, h)
	m.mu.Unlock()

	m.post(Event{Type: EventResize, Width: w, Height: h})
}

// String renders the retained text, one line per row.
func (m *Memory) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	for y, row := range m.cells {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range row {
			sb.WriteString(c.Grapheme)
		}
	}
	return sb.String()
}

// PollEvent returns the next posted event.
func (m *Memory) PollEvent() Event {
	ev, ok := <-m.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

// PostEvent queues a synthetic event.
func (m *Memory) PostEvent(ev Event) {
	m.post(ev)
}

// Interrupt queues an EventInterrupt.
func (m *Memory) Interrupt(data any) {
	m.post(Event{Type: EventInterrupt, Data: data})
}

// Close ends the event stream; PollEvent then returns EventClosed.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.events)
}

func (m *Memory) post(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	select {
	case m.events <- ev:
	default:
		// Event dropped if queue is full (non-blocking for testing)
	}
}
