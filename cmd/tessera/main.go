// Package main is the entry point for the tessera scene renderer.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/core"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	ScenePath  string
	ConfigPath string
	LogLevel   string
	Dump       string
	Watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	a, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	if opts.Dump != "" {
		size, err := parseSize(opts.Dump)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := a.dump(os.Stdout, size); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := a.runInteractive(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ScenePath, "scene", "", "Lua scene script (default: built-in demo)")
	flag.StringVar(&opts.ScenePath, "s", "", "Lua scene script (shorthand)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.Dump, "dump", "", "Render one frame of size WxH and print its row runs")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-render when the scene or config file changes")
	flag.BoolVar(&opts.Watch, "w", false, "Re-render on file changes (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tessera - terminal scene renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tessera [options] [scene.lua]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tessera                       Show the built-in demo\n")
		fmt.Fprintf(os.Stderr, "  tessera -w scene.lua          Render a scene, reloading on save\n")
		fmt.Fprintf(os.Stderr, "  tessera -dump 80x24 scene.lua Print the row runs of one frame\n")
		fmt.Fprintf(os.Stderr, "\nKeys: q, Esc or Ctrl-C quit; Ctrl-L redraws.\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Tessera %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	// A positional argument names the scene.
	if opts.ScenePath == "" && flag.NArg() > 0 {
		opts.ScenePath = flag.Arg(0)
	}

	return opts
}

// parseSize parses "WxH".
func parseSize(s string) (core.Size, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return core.Size{}, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return core.Size{}, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return core.Size{}, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	size := core.Size{W: w, H: h}
	if !size.Valid() {
		return core.Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return size, nil
}
