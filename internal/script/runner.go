// Package script runs Lua scene scripts that describe a frame as display
// list operations.
//
// A scene draws through the global ui table:
//
//	ui.clip(x, y, w, h)             push a clip rectangle
//	ui.layer()                      push a layer
//	ui.pop()                        close the innermost clip or layer
//	ui.rect(x, y, w, h, color)      solid fill
//	ui.border(x, y, w, h [, style [, color]])
//	ui.text(x, y, s, fg [, bg [, attrs]])
//	ui.rgb(r, g, b)                 color value
//	ui.blend(a, b, t)               mix a toward b, t in 0..1
//	ui.lighten(c, t), ui.darken(c, t)
//	ui.measure(s)                   display width of s
//	ui.width, ui.height, ui.frame   viewport size and frame number
//
// Colors are "#rrggbb"/"#rgb" strings or ui.rgb values. attrs is a string
// such as "bold|underline".
//
// If the scene defines a global function frame(n), the chunk runs once
// when loaded and frame is called for every build. Otherwise the whole
// chunk runs for every build.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/displaylist"
)

// Default limits for one build.
const (
	DefaultMaxOps  = 100_000
	DefaultTimeout = 250 * time.Millisecond
)

// Options configures a Runner.
type Options struct {
	// MaxOps bounds the operations one build may record. Negative
	// disables the bound; 0 selects DefaultMaxOps.
	MaxOps int

	// Timeout bounds one build. Negative disables the bound; 0 selects
	// DefaultTimeout.
	Timeout time.Duration

	// Width measures strings for ui.measure. nil selects core.TableWidth.
	Width core.WidthFunc

	// Logger receives print output. nil discards it.
	Logger *logging.Logger
}

// Runner holds a compiled scene and the Lua state it runs in.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes builds.
type Runner struct {
	mu sync.Mutex

	L     *lua.LState
	name  string
	chunk *lua.LFunction
	frame *lua.LFunction
	ui    *lua.LTable

	opts    Options
	logger  *logging.Logger
	builder *displaylist.Builder
	ops     int
	overOps bool

	closed bool
}

// Load reads and compiles the scene at path.
func Load(path string, opts Options) (*Runner, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return LoadString(path, string(src), opts)
}

// LoadString compiles a scene from source. name identifies it in errors.
func LoadString(name, src string, opts Options) (*Runner, error) {
	if opts.MaxOps == 0 {
		opts.MaxOps = DefaultMaxOps
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Width == nil {
		opts.Width = core.TableWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NullLogger
	}
	logger = logger.WithComponent("script").WithField("scene", name)

	r := &Runner{
		L:       newState(logger),
		name:    name,
		opts:    opts,
		logger:  logger,
		builder: displaylist.NewBuilder(),
	}

	chunk, err := r.L.LoadString(src)
	if err != nil {
		r.L.Close()
		return nil, &ScriptError{Path: name, Phase: "compile", Err: err}
	}
	r.chunk = chunk
	r.installAPI()

	// Run the chunk once; a scene that defines frame is driven by it.
	if err := r.run(core.Size{}, 0, func() error { return r.call(r.chunk) }); err != nil {
		r.L.Close()
		return nil, &ScriptError{Path: name, Phase: "setup", Err: err}
	}
	if fn, ok := r.L.GetGlobal("frame").(*lua.LFunction); ok {
		r.frame = fn
		if n := r.builder.Len(); n > 0 {
			logger.Debug("discarding %d operations recorded during setup", n)
		}
	}
	return r, nil
}

// Name returns the scene's name.
func (r *Runner) Name() string {
	return r.name
}

// Animated reports whether the scene defines frame(n).
func (r *Runner) Animated() bool {
	return r.frame != nil
}

// Build runs the scene for a viewport of the given size and returns the
// display list it recorded.
func (r *Runner) Build(size core.Size, frameNo uint64) (displaylist.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return displaylist.List{}, ErrClosed
	}

	err := r.run(size, frameNo, func() error {
		if r.frame != nil {
			return r.call(r.frame, lua.LNumber(frameNo))
		}
		return r.call(r.chunk)
	})
	if err != nil {
		return displaylist.List{}, &ScriptError{Path: r.name, Phase: "build", Err: err}
	}
	return r.builder.Build(), nil
}

// run resets the builder, publishes the viewport to ui and runs fn under
// the op and time limits.
func (r *Runner) run(size core.Size, frameNo uint64, fn func() error) error {
	r.builder.Reset()
	r.ops = 0
	r.overOps = false

	r.L.SetField(r.ui, "width", lua.LNumber(size.W))
	r.L.SetField(r.ui, "height", lua.LNumber(size.H))
	r.L.SetField(r.ui, "frame", lua.LNumber(frameNo))

	ctx := context.Background()
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	err := fn()
	switch {
	case err == nil:
		return nil
	case r.overOps:
		return fmt.Errorf("%w: more than %d operations", ErrOpLimit, r.opts.MaxOps)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %v", ErrTimeout, r.opts.Timeout)
	default:
		return err
	}
}

// call invokes fn with panic recovery.
func (r *Runner) call(fn *lua.LFunction, args ...lua.LValue) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return r.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}
