package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/frame"
	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/script"
)

//go:embed demo.lua
var demoScene string

// demoName identifies the built-in scene in logs and errors.
const demoName = "<demo>"

// tickInterval paces animated scenes.
const tickInterval = 100 * time.Millisecond

// app ties the configuration, scene runner and compositor together.
type app struct {
	opts    options
	cfg     config.Config
	comp    *compositor.Compositor
	runner  *script.Runner
	logger  *logging.Logger
	logFile *os.File
	frameNo uint64
}

func newApp(opts options) (*app, error) {
	a := &app{opts: opts}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.cfg = cfg

	if err := a.openLogger(); err != nil {
		return nil, err
	}

	comp, err := newCompositor(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.comp = comp

	runner, err := a.loadScene()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner

	a.logger.Info("scene %s loaded (animated: %t)", runner.Name(), runner.Animated())
	return a, nil
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if a.opts.LogLevel != "" {
		cfg.Logging.Level = a.opts.LogLevel
	}
	return cfg, nil
}

// openLogger logs to logging.file when set. Without a file, the headless
// dump logs to stderr and the interactive mode, which owns the terminal,
// discards logs.
func (a *app) openLogger() error {
	var out io.Writer = io.Discard
	switch {
	case a.cfg.Logging.File != "":
		f, err := os.OpenFile(a.cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		out = f
	case a.opts.Dump != "":
		out = os.Stderr
	}

	a.logger = logging.New(logging.Config{
		Level:  a.cfg.LogLevel(),
		Output: out,
		Prefix: "tessera",
	})
	logging.Set(a.logger)
	return nil
}

func newCompositor(cfg config.Config) (*compositor.Compositor, error) {
	opts, err := cfg.CompositorOptions()
	if err != nil {
		return nil, err
	}
	return compositor.New(opts), nil
}

func (a *app) loadScene() (*script.Runner, error) {
	opts := script.Options{
		MaxOps:  a.cfg.Script.MaxOps,
		Timeout: a.cfg.Script.Timeout(),
		Width:   a.comp.Options().Width,
		Logger:  a.logger,
	}
	// A zero limit in the config means unlimited.
	if opts.MaxOps == 0 {
		opts.MaxOps = -1
	}
	if opts.Timeout == 0 {
		opts.Timeout = -1
	}

	if a.opts.ScenePath == "" {
		return script.LoadString(demoName, demoScene, opts)
	}
	return script.Load(a.opts.ScenePath, opts)
}

// Close releases the scene and the log file.
func (a *app) Close() {
	if a.runner != nil {
		a.runner.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// dump renders a single frame into a memory sink and writes its row runs
// followed by the resulting screen text.
func (a *app) dump(w io.Writer, size core.Size) error {
	opts := a.comp.Options()
	mem := backend.NewMemory(size.W, size.H, opts.Blank, opts.Width)
	driver := frame.New(mem, a.comp, a.logger)
	defer driver.Close()

	list, err := a.runner.Build(size, 1)
	if err != nil {
		return err
	}
	stats, err := driver.Render(list)
	if err != nil {
		return err
	}

	g := driver.Previous()
	runs := a.comp.RowRuns(g, a.comp.Damage(nil, g))

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d ops, %d runs, %d cells\n", list.Len(), len(runs), stats.Cells)
	for _, run := range runs {
		fmt.Fprintf(bw, "row=%d cols=%d..%d fg=%s bg=%s attrs=%s text=%q\n",
			run.Row, run.ColStart, run.ColEnd, run.Fg, run.Bg, run.Attrs, run.Text)
	}
	fmt.Fprintln(bw, "# screen")
	fmt.Fprintln(bw, mem.String())
	return bw.Flush()
}

// runInteractive renders to the terminal until the user quits or a signal
// arrives.
func (a *app) runInteractive() error {
	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := term.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer term.Shutdown()
	w, h := term.Size()
	a.logger.Debug("terminal %dx%d (truecolor: %t)", w, h, term.HasTrueColor())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := frame.New(term, a.comp, a.logger)
	defer func() { _ = driver.Close() }()

	events := make(chan backend.Event, 16)
	go func() {
		for {
			ev := term.PollEvent()
			if ev.Type == backend.EventClosed {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	changes := make(chan string, 4)
	if a.opts.Watch {
		if err := a.startWatcher(ctx, changes); err != nil {
			a.logger.Warn("file watching disabled: %v", err)
		}
	}

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	resetTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if a.runner.Animated() {
			ticker = time.NewTicker(tickInterval)
			tick = ticker.C
		}
	}
	resetTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	a.render(driver, term)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case backend.EventKey:
				switch {
				case ev.Key == backend.KeyEscape, ev.Key == backend.KeyCtrlC,
					ev.Key == backend.KeyRune && ev.Rune == 'q':
					return nil
				case ev.Key == backend.KeyCtrlL:
					term.Sync()
					driver.Invalidate()
					a.render(driver, term)
				}
			case backend.EventResize:
				a.render(driver, term)
			}

		case <-tick:
			a.render(driver, term)

		case path := <-changes:
			if newDriver, ok := a.reload(path, term); ok {
				if newDriver != nil {
					_ = driver.Close()
					driver = newDriver
				}
				resetTicker()
				a.render(driver, term)
			}
		}
	}
}

// render builds the next frame of the scene and presents it. Failures are
// logged; the previous frame stays on screen.
func (a *app) render(driver *frame.Driver, sink backend.Sink) {
	w, h := sink.Size()
	a.frameNo++

	list, err := a.runner.Build(core.Size{W: w, H: h}, a.frameNo)
	if err != nil {
		a.logger.Error("building frame %d: %v", a.frameNo, err)
		return
	}
	if _, err := driver.Render(list); err != nil {
		a.logger.Error("rendering frame %d: %v", a.frameNo, err)
	}
}

func (a *app) startWatcher(ctx context.Context, changes chan<- string) error {
	w, err := config.NewWatcher(0, a.logger)
	if err != nil {
		return err
	}
	for _, p := range []string{a.opts.ScenePath, a.opts.ConfigPath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			a.logger.Warn("not watching %s: %v", p, err)
		}
	}
	go func() {
		if err := w.Run(ctx, func(path string) {
			select {
			case changes <- path:
			case <-ctx.Done():
			}
		}); err != nil {
			a.logger.Warn("watcher stopped: %v", err)
		}
	}()
	return nil
}

// reload reacts to a changed file. It returns a replacement driver when
// the compositor changed, and false when nothing was reloaded.
func (a *app) reload(path string, sink backend.Sink) (*frame.Driver, bool) {
	if samePath(path, a.opts.ConfigPath) {
		cfg, err := a.loadConfig()
		if err != nil {
			a.logger.Error("reloading config: %v", err)
			return nil, false
		}
		comp, err := newCompositor(cfg)
		if err != nil {
			a.logger.Error("reloading config: %v", err)
			return nil, false
		}
		a.cfg, a.comp = cfg, comp
		a.logger.SetLevel(cfg.LogLevel())
		a.logger.Info("config reloaded from %s", path)
		return frame.New(sink, comp, a.logger), true
	}

	if samePath(path, a.opts.ScenePath) {
		runner, err := a.loadScene()
		if err != nil {
			a.logger.Error("reloading scene: %v", err)
			return nil, false
		}
		a.runner.Close()
		a.runner = runner
		a.logger.Info("scene reloaded from %s", path)
		return nil, true
	}
	return nil, false
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
