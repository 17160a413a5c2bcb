package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
)

// Terminal implements Sink, Scroller and EventSource using tcell.
type Terminal struct {
	screen        tcell.Screen
	resizeHandler func(width, height int)
	initialized   bool
	mu            sync.Mutex
}

// NewTerminal creates a terminal sink on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing screen, such as a
// tcell.SimulationScreen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Init puts the terminal into raw, alternate-screen mode.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	t.initialized = true
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return
	}
	t.initialized = false
	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

// OnResize registers a callback invoked from PollEvent on resize.
func (t *Terminal) OnResize(callback func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resizeHandler = callback
}

// Apply writes runs into tcell's back buffer. Graphemes are placed one per
// column starting at each run's ColStart.
func (t *Terminal) Apply(runs []compositor.RowRun) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}
	for _, run := range runs {
		style := convertStyle(run.Fg, run.Bg, run.Attrs)
		forEachCell(run, func(x int, cluster string) {
			mainc, combc := splitCluster(cluster)
			t.screen.SetContent(x, run.Row, mainc, combc, style)
		})
	}
	return nil
}

// Scroll shifts the content of tcell's back buffer by shift rows.
func (t *Terminal) Scroll(shift int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := t.screen.Size()
	if shift == 0 || shift >= h || -shift >= h {
		return
	}
	moveRow := func(dst, src int) {
		for x := 0; x < w; x++ {
			mainc, combc, style, _ := t.screen.GetContent(x, src) //nolint:staticcheck // GetContent is the correct API
			t.screen.SetContent(x, dst, mainc, combc, style)
		}
	}
	if shift > 0 {
		for y := h - 1; y >= shift; y-- {
			moveRow(y, y-shift)
		}
		return
	}
	for y := 0; y < h+shift; y++ {
		moveRow(y, y-shift)
	}
}

// Show flushes pending changes to the terminal.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// Sync forces a complete repaint, e.g. after the terminal was disturbed.
func (t *Terminal) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Sync()
}

// Cell reads back a cell of the back buffer.
func (t *Terminal) Cell(x, y int) core.Cell {
	t.mu.Lock()
	defer t.mu.Unlock()

	mainc, combc, style, width := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
	fg, bg, attrs := convertTcellStyle(style)
	if width < 1 {
		width = 1
	}
	return core.Cell{
		Grapheme: string(append([]rune{mainc}, combc...)),
		Width:    uint8(min(width, 2)),
		Fg:       fg,
		Bg:       bg,
		Attrs:    attrs,
	}
}

// HasTrueColor reports whether the terminal supports 24-bit color.
func (t *Terminal) HasTrueColor() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Colors() > 256
}

func (t *Terminal) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	return convertEvent(ev, t)
}

func (t *Terminal) Interrupt(data any) {
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(data)) // best-effort; event queue may be full
}

func splitCluster(cluster string) (rune, []rune) {
	runes := []rune(cluster)
	if len(runes) == 0 {
		return ' ', nil
	}
	if len(runes) == 1 {
		return runes[0], nil
	}
	return runes[0], runes[1:]
}

func tcellColor(c core.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// convertStyle converts run styling to tcell.Style.
func convertStyle(fg, bg core.Color, attrs core.Attribute) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(tcellColor(fg)).
		Background(tcellColor(bg))

	if attrs.Has(core.AttrBold) {
		style = style.Bold(true)
	}
	if attrs.Has(core.AttrDim) {
		style = style.Dim(true)
	}
	if attrs.Has(core.AttrItalic) {
		style = style.Italic(true)
	}
	if attrs.Has(core.AttrUnderline) {
		style = style.Underline(true)
	}
	if attrs.Has(core.AttrBlink) {
		style = style.Blink(true)
	}
	if attrs.Has(core.AttrReverse) {
		style = style.Reverse(true)
	}
	if attrs.Has(core.AttrStrikethrough) {
		style = style.StrikeThrough(true)
	}

	return style
}

// convertTcellStyle converts tcell.Style back to colors and attributes.
func convertTcellStyle(ts tcell.Style) (core.Color, core.Color, core.Attribute) {
	fg, bg, tattrs := ts.Decompose()

	attrs := core.AttrNone
	if tattrs&tcell.AttrBold != 0 {
		attrs |= core.AttrBold
	}
	if tattrs&tcell.AttrDim != 0 {
		attrs |= core.AttrDim
	}
	if tattrs&tcell.AttrItalic != 0 {
		attrs |= core.AttrItalic
	}
	if tattrs&tcell.AttrUnderline != 0 {
		attrs |= core.AttrUnderline
	}
	if tattrs&tcell.AttrBlink != 0 {
		attrs |= core.AttrBlink
	}
	if tattrs&tcell.AttrReverse != 0 {
		attrs |= core.AttrReverse
	}
	if tattrs&tcell.AttrStrikeThrough != 0 {
		attrs |= core.AttrStrikethrough
	}

	return convertTcellColor(fg), convertTcellColor(bg), attrs
}

// convertTcellColor converts tcell.Color to our Color. The terminal default
// maps to black.
func convertTcellColor(tc tcell.Color) core.Color {
	if tc == tcell.ColorDefault {
		return core.ColorBlack
	}
	r, g, b := tc.RGB()
	return core.RGB(uint8(r), uint8(g), uint8(b))
}

// convertEvent converts tcell events to our Event type.
func convertEvent(ev tcell.Event, t *Terminal) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  convertKey(e.Key()),
			Rune: e.Rune(),
		}

	case *tcell.EventResize:
		w, h := e.Size()
		t.mu.Lock()
		handler := t.resizeHandler
		t.mu.Unlock()
		if handler != nil {
			handler(w, h)
		}
		return Event{
			Type:   EventResize,
			Width:  w,
			Height: h,
		}

	case *tcell.EventInterrupt:
		return Event{
			Type: EventInterrupt,
			Data: e.Data(),
		}

	default:
		return Event{Type: EventNone}
	}
}

func convertKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyCtrlC:
		return KeyCtrlC
	case tcell.KeyCtrlL:
		return KeyCtrlL
	default:
		return KeyOther
	}
}
