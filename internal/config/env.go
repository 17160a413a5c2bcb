package config

import (
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TESSERA_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetter applies one environment value to a config.
type envSetter func(cfg *Config, value string) error

// envMapping maps environment variables to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "LOG_LEVEL": func(cfg *Config, v string) error {
		cfg.Logging.Level = v
		return nil
	},
	EnvPrefix + "LOG_FILE": func(cfg *Config, v string) error {
		cfg.Logging.File = v
		return nil
	},
	EnvPrefix + "SCROLL_DETECTION": func(cfg *Config, v string) error {
		cfg.Render.ScrollDetection = v
		return nil
	},
	EnvPrefix + "MAX_SCROLL_SHIFT": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{
				Path:    "render.max_scroll_shift",
				Message: "must be an integer",
				Value:   v,
				Code:    ErrCodeTypeMismatch,
			}
		}
		cfg.Render.MaxScrollShift = n
		return nil
	},
	EnvPrefix + "WIDTH_POLICY": func(cfg *Config, v string) error {
		cfg.Render.WidthPolicy = v
		return nil
	},
	EnvPrefix + "AMBIGUOUS_WIDE": func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &ValidationError{
				Path:    "render.east_asian_ambiguous_wide",
				Message: "must be a boolean",
				Value:   v,
				Code:    ErrCodeTypeMismatch,
			}
		}
		cfg.Render.EastAsianAmbiguousWide = b
		return nil
	},
}

// EnvVars returns the recognized environment variable names, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overrides cfg from the environment.
// Note: Empty string values are treated as valid values, not as unset.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for _, name := range EnvVars() {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envMapping[name](cfg, v); err != nil {
			return err
		}
	}
	return nil
}
