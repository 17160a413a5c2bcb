// Package config holds the renderer's settings and loads them from TOML or
// YAML files with environment overrides.
//
// Precedence, lowest first:
//
//	defaults -> config file -> TESSERA_* environment variables
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
)

// Width policy names.
const (
	WidthPolicyTable     = "table"
	WidthPolicyRuneWidth = "runewidth"
)

// Script limits.
const (
	// DefaultMaxOps bounds the display-list operations one scene build may
	// record.
	DefaultMaxOps = 100_000

	// DefaultTimeoutMS bounds the wall time of one scene build.
	DefaultTimeoutMS = 250
)

// Config is the complete configuration.
type Config struct {
	Render  RenderConfig  `toml:"render" yaml:"render"`
	Theme   ThemeConfig   `toml:"theme" yaml:"theme"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
}

// RenderConfig configures compositing and damage tracking.
type RenderConfig struct {
	// ScrollDetection is "compat", "strict" or "off".
	ScrollDetection string `toml:"scroll_detection" yaml:"scroll_detection"`

	// MaxScrollShift is the largest shift scroll detection tries.
	MaxScrollShift int `toml:"max_scroll_shift" yaml:"max_scroll_shift"`

	// WidthPolicy is "table" or "runewidth".
	WidthPolicy string `toml:"width_policy" yaml:"width_policy"`

	// EastAsianAmbiguousWide treats ambiguous-width characters as wide
	// under the runewidth policy.
	EastAsianAmbiguousWide bool `toml:"east_asian_ambiguous_wide" yaml:"east_asian_ambiguous_wide"`

	// Placeholder replaces wide glyphs that straddle a clip edge.
	Placeholder string `toml:"placeholder" yaml:"placeholder"`
}

// ThemeConfig holds the colors of a fresh grid's blank cell.
type ThemeConfig struct {
	Background string `toml:"background" yaml:"background"`
	Foreground string `toml:"foreground" yaml:"foreground"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// File receives log output. Empty discards logs while the terminal
	// is in use.
	File string `toml:"file" yaml:"file"`
}

// ScriptConfig configures scene script execution.
type ScriptConfig struct {
	// MaxOps bounds the operations one build may record. 0 disables it.
	MaxOps int `toml:"max_ops" yaml:"max_ops"`

	// TimeoutMS bounds one build in milliseconds. 0 disables it.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
}

// Timeout returns TimeoutMS as a duration.
func (c ScriptConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Render: RenderConfig{
			ScrollDetection: compositor.ScrollCompat.String(),
			MaxScrollShift:  compositor.DefaultMaxScrollShift,
			WidthPolicy:     WidthPolicyTable,
			Placeholder:     compositor.DefaultPlaceholder,
		},
		Theme: ThemeConfig{
			Background: core.ColorBlack.String(),
			Foreground: core.ColorWhite.String(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Script: ScriptConfig{
			MaxOps:    DefaultMaxOps,
			TimeoutMS: DefaultTimeoutMS,
		},
	}
}

// Validate checks every setting and returns all failures joined.
func (c Config) Validate() error {
	var errs []error

	if _, err := compositor.ParseScrollMode(c.Render.ScrollDetection); err != nil {
		errs = append(errs, &ValidationError{
			Path:    "render.scroll_detection",
			Message: "must be compat, strict or off",
			Value:   c.Render.ScrollDetection,
			Code:    ErrCodeInvalidEnum,
		})
	}
	if c.Render.MaxScrollShift < 1 {
		errs = append(errs, &ValidationError{
			Path:    "render.max_scroll_shift",
			Message: "must be at least 1",
			Value:   c.Render.MaxScrollShift,
			Code:    ErrCodeOutOfRange,
		})
	}
	if !validWidthPolicy(c.Render.WidthPolicy) {
		errs = append(errs, &ValidationError{
			Path:    "render.width_policy",
			Message: "must be table or runewidth",
			Value:   c.Render.WidthPolicy,
			Code:    ErrCodeInvalidEnum,
		})
	}
	if !c.validPlaceholder() {
		errs = append(errs, &ValidationError{
			Path:    "render.placeholder",
			Message: "must be a single single-width grapheme",
			Value:   c.Render.Placeholder,
			Code:    ErrCodePatternMismatch,
		})
	}
	for path, v := range map[string]string{
		"theme.background": c.Theme.Background,
		"theme.foreground": c.Theme.Foreground,
	} {
		if _, err := core.ParseHex(v); err != nil {
			errs = append(errs, &ValidationError{
				Path:    path,
				Message: "must be a hex color (#rgb or #rrggbb)",
				Value:   v,
				Code:    ErrCodePatternMismatch,
			})
		}
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Message: "must be debug, info, warn or error",
			Value:   c.Logging.Level,
			Code:    ErrCodeInvalidEnum,
		})
	}
	if c.Script.MaxOps < 0 {
		errs = append(errs, &ValidationError{
			Path:    "script.max_ops",
			Message: "must not be negative",
			Value:   c.Script.MaxOps,
			Code:    ErrCodeOutOfRange,
		})
	}
	if c.Script.TimeoutMS < 0 {
		errs = append(errs, &ValidationError{
			Path:    "script.timeout_ms",
			Message: "must not be negative",
			Value:   c.Script.TimeoutMS,
			Code:    ErrCodeOutOfRange,
		})
	}

	return errors.Join(errs...)
}

func validWidthPolicy(s string) bool {
	switch strings.ToLower(s) {
	case WidthPolicyTable, WidthPolicyRuneWidth:
		return true
	}
	return false
}

func (c Config) validPlaceholder() bool {
	if c.Render.Placeholder == "" {
		return false
	}
	n := 0
	for range core.Graphemes(c.Render.Placeholder) {
		n++
	}
	return n == 1 && core.StringWidth(c.Render.Placeholder, c.WidthFunc()) == 1
}

// WidthFunc returns the grapheme width classifier selected by
// render.width_policy.
func (c Config) WidthFunc() core.WidthFunc {
	if strings.EqualFold(c.Render.WidthPolicy, WidthPolicyRuneWidth) {
		return core.RuneWidthPolicy(c.Render.EastAsianAmbiguousWide)
	}
	return core.TableWidth
}

// CompositorOptions converts the render and theme sections into compositor
// options. The config should have passed Validate.
func (c Config) CompositorOptions() (compositor.Options, error) {
	mode, err := compositor.ParseScrollMode(c.Render.ScrollDetection)
	if err != nil {
		return compositor.Options{}, err
	}
	fg, err := core.ParseHex(c.Theme.Foreground)
	if err != nil {
		return compositor.Options{}, err
	}
	bg, err := core.ParseHex(c.Theme.Background)
	if err != nil {
		return compositor.Options{}, err
	}

	return compositor.Options{
		ScrollMode:     mode,
		MaxScrollShift: c.Render.MaxScrollShift,
		Width:          c.WidthFunc(),
		Placeholder:    c.Render.Placeholder,
		Blank:          core.BlankCell(fg, bg),
	}, nil
}

// LogLevel returns the parsed logging.level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
