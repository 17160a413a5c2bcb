package frame

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
)

var blank = compositor.DefaultOptions().Blank

// plainSink hides Memory's Scroll method.
type plainSink struct {
	m *backend.Memory
}

func (p plainSink) Size() (int, int)                     { return p.m.Size() }
func (p plainSink) Apply(runs []compositor.RowRun) error { return p.m.Apply(runs) }
func (p plainSink) Show()                                { p.m.Show() }

// failingSink rejects every Apply.
type failingSink struct {
	*backend.Memory
	fail bool
}

func (f *failingSink) Apply(runs []compositor.RowRun) error {
	if f.fail {
		return errors.New("sink unavailable")
	}
	return f.Memory.Apply(runs)
}

// lines draws one distinct line of text per row.
func lines(texts ...string) displaylist.List {
	b := displaylist.NewBuilder()
	for y, s := range texts {
		b.Text(0, y, s, core.ColorWhite, core.AttrNone)
	}
	return b.Build()
}

func numbered(from, count int) displaylist.List {
	texts := make([]string, count)
	for i := range texts {
		texts[i] = fmt.Sprintf("line %03d", from+i)
	}
	return lines(texts...)
}

func requireSinkMatches(t *testing.T, mem *backend.Memory, d *Driver) {
	t.Helper()
	prev := d.Previous()
	require.NotNil(t, prev)
	got := mem.Grid()
	require.NotNil(t, got)
	require.True(t, got.Equal(prev), "sink:\n%s\nframe:\n%s", got, prev)
}

func TestDriver_FirstFrameIsFullRedraw(t *testing.T) {
	mem := backend.NewMemory(12, 4, blank, nil)
	d := New(mem, nil, nil)

	stats, err := d.Render(numbered(0, 4))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.Frame)
	assert.True(t, stats.FullRedraw)
	assert.Equal(t, 4, stats.DirtyRects)
	assert.Equal(t, 48, stats.Cells)
	assert.Equal(t, 0, stats.Shift)
	assert.Equal(t, 1, mem.Shows())
	assert.Equal(t, stats, d.Last())
	requireSinkMatches(t, mem, d)
}

func TestDriver_UnchangedFrameSendsNothing(t *testing.T) {
	mem := backend.NewMemory(12, 4, blank, nil)
	d := New(mem, nil, nil)

	_, err := d.Render(numbered(0, 4))
	require.NoError(t, err)
	stats, err := d.Render(numbered(0, 4))
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Frame)
	assert.False(t, stats.FullRedraw)
	assert.Zero(t, stats.DirtyRects)
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.Shift)
}

func TestDriver_SingleEdit(t *testing.T) {
	mem := backend.NewMemory(12, 4, blank, nil)
	d := New(mem, nil, nil)

	_, err := d.Render(lines("alpha", "beta", "gamma", "delta"))
	require.NoError(t, err)
	stats, err := d.Render(lines("alpha", "bets", "gamma", "delta"))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DirtyRects)
	assert.Equal(t, 1, stats.Cells)
	assert.Equal(t, 1, stats.Runs)
	requireSinkMatches(t, mem, d)
}

func TestDriver_ScrollsSink(t *testing.T) {
	for _, mode := range []compositor.ScrollMode{compositor.ScrollCompat, compositor.ScrollStrict} {
		t.Run(mode.String(), func(t *testing.T) {
			mem := backend.NewMemory(10, 8, blank, nil)
			comp := compositor.New(compositor.Options{ScrollMode: mode})
			d := New(mem, comp, nil)

			_, err := d.Render(numbered(0, 8))
			require.NoError(t, err)

			// Content moves up one row.
			stats, err := d.Render(numbered(1, 8))
			require.NoError(t, err)
			assert.Equal(t, -1, stats.Shift)
			assert.Equal(t, 1, stats.DirtyRects)
			assert.Equal(t, 10, stats.Cells)
			requireSinkMatches(t, mem, d)

			// And back down two rows.
			stats, err = d.Render(numbered(-1, 8))
			require.NoError(t, err)
			assert.Equal(t, 2, stats.Shift)
			requireSinkMatches(t, mem, d)
		})
	}
}

func TestDriver_SinkWithoutScrollDisablesDetection(t *testing.T) {
	mem := backend.NewMemory(10, 8, blank, nil)
	d := New(plainSink{m: mem}, nil, nil)
	assert.Equal(t, compositor.ScrollOff, d.Compositor().Options().ScrollMode)

	_, err := d.Render(numbered(0, 8))
	require.NoError(t, err)
	stats, err := d.Render(numbered(1, 8))
	require.NoError(t, err)

	assert.Zero(t, stats.Shift)
	assert.Greater(t, stats.DirtyRects, 1)
	requireSinkMatches(t, mem, d)
}

// Whatever the frames, applying a frame's runs to a sink holding the
// previous frame reproduces the new frame.
func TestDriver_RunsReproduceFrame(t *testing.T) {
	modes := []compositor.ScrollMode{compositor.ScrollStrict, compositor.ScrollOff}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, uint64(mode)))
			mem := backend.NewMemory(16, 10, blank, nil)
			d := New(mem, compositor.New(compositor.Options{ScrollMode: mode}), nil)

			for i := 0; i < 50; i++ {
				_, err := d.Render(randomScene(rng, 16, 10))
				require.NoError(t, err)
				requireSinkMatches(t, mem, d)
			}
		})
	}
}

func randomScene(rng *rand.Rand, w, h int) displaylist.List {
	palette := []core.Color{core.ColorRed, core.ColorGreen, core.ColorBlue, core.ColorBlack}
	words := []string{"tessera", "世界", "ok", "été", "│", "#"}

	b := displaylist.NewBuilder()
	for n := rng.IntN(8); n > 0; n-- {
		switch rng.IntN(5) {
		case 0:
			b.Rect(core.NewRect(rng.IntN(w), rng.IntN(h), rng.IntN(w), rng.IntN(h)), palette[rng.IntN(len(palette))])
		case 1:
			b.Border(core.NewRect(rng.IntN(w)-2, rng.IntN(h)-2, rng.IntN(w), rng.IntN(h)), "single", palette[rng.IntN(len(palette))])
		case 2:
			b.PushClip(core.NewRect(rng.IntN(w), rng.IntN(h), rng.IntN(w), rng.IntN(h)))
		case 3:
			b.Pop()
		default:
			b.Text(rng.IntN(w+4)-2, rng.IntN(h), words[rng.IntN(len(words))], palette[rng.IntN(len(palette))], core.Attribute(rng.IntN(4)))
		}
	}
	return b.Build()
}

func TestDriver_AdjacentClustersStayInTheirColumns(t *testing.T) {
	tests := []struct {
		name        string
		left, right string
	}{
		{"combining mark", "a", "\u0301"},
		{"regional indicators", "\U0001F1FA", "\U0001F1F8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := backend.NewMemory(4, 1, blank, nil)
			d := New(mem, nil, nil)

			list := displaylist.NewBuilder().
				Text(0, 0, tt.left, core.ColorWhite, core.AttrNone).
				Text(1, 0, tt.right, core.ColorWhite, core.AttrNone).
				Build()
			_, err := d.Render(list)
			require.NoError(t, err)

			requireSinkMatches(t, mem, d)
			assert.Equal(t, tt.left, mem.Cell(0, 0).Grapheme)
			assert.Equal(t, tt.right, mem.Cell(1, 0).Grapheme)
		})
	}
}

func TestDriver_ResizeRedrawsInFull(t *testing.T) {
	mem := backend.NewMemory(10, 4, blank, nil)
	d := New(mem, nil, nil)

	_, err := d.Render(numbered(0, 4))
	require.NoError(t, err)

	mem.Resize(12, 6)
	stats, err := d.Render(numbered(0, 4))
	require.NoError(t, err)

	assert.True(t, stats.FullRedraw)
	assert.Equal(t, 6, stats.DirtyRects)
	assert.Equal(t, core.Size{W: 12, H: 6}, d.Previous().Size())
	requireSinkMatches(t, mem, d)
}

func TestDriver_Invalidate(t *testing.T) {
	mem := backend.NewMemory(10, 4, blank, nil)
	d := New(mem, nil, nil)

	_, err := d.Render(numbered(0, 4))
	require.NoError(t, err)
	d.Invalidate()
	assert.Nil(t, d.Previous())

	stats, err := d.Render(numbered(0, 4))
	require.NoError(t, err)
	assert.True(t, stats.FullRedraw)
	assert.Equal(t, uint64(2), stats.Frame)
}

func TestDriver_ApplyErrorForcesFullRedraw(t *testing.T) {
	sink := &failingSink{Memory: backend.NewMemory(10, 4, blank, nil)}
	d := New(sink, nil, nil)

	_, err := d.Render(numbered(0, 4))
	require.NoError(t, err)

	sink.fail = true
	_, err = d.Render(numbered(5, 4))
	require.Error(t, err)
	assert.Nil(t, d.Previous())

	sink.fail = false
	stats, err := d.Render(numbered(5, 4))
	require.NoError(t, err)
	assert.True(t, stats.FullRedraw)
	assert.Equal(t, uint64(2), stats.Frame)
}

func TestDriver_EmptySink(t *testing.T) {
	d := New(backend.NewMemory(0, 0, blank, nil), nil, nil)

	_, err := d.Render(numbered(0, 1))
	require.Error(t, err)
}

func TestDriver_Close(t *testing.T) {
	d := New(backend.NewMemory(4, 2, blank, nil), nil, nil)
	require.NoError(t, d.Close())

	_, err := d.Render(displaylist.List{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDriver_WarnsOnUnbalancedListAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	d := New(backend.NewMemory(4, 2, blank, nil), nil, logger)

	list := displaylist.NewBuilder().PushClip(core.NewRect(0, 0, 2, 2)).Build()
	_, err := d.Render(list)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "unclosed push")
	assert.Contains(t, buf.String(), "component=frame")
}

func TestDriver_NoValidationAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	d := New(backend.NewMemory(4, 2, blank, nil), nil, logger)

	_, err := d.Render(displaylist.NewBuilder().Pop().Build())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
