// Package config loads the handful of knobs the codec's ambient
// collaborator (fix/codec) needs at startup: strict-mode
// policy, the nesting-depth guard, the default delimiter, and logging.
// It follows the same viper+validator+fsnotify hot-reload shape as the
// rest of the stack's configuration loader, trimmed to this package's
// much smaller surface.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full configuration surface for a codec service.
type Config struct {
	// StrictMode makes codec.Service.Decode reject a message whose
	// declared group counts do not match the entries actually parsed
	// (e.g. short groups, which the core accepts). Malformed records,
	// tags and counts are rejected by the core package regardless of
	// this flag.
	StrictMode bool `mapstructure:"strict_mode" toml:"strict_mode"`

	// MaxNestingDepth overrides the core's built-in safety margin (8).
	// Zero means "use the core default".
	MaxNestingDepth int `mapstructure:"max_nesting_depth" toml:"max_nesting_depth" validate:"min=0,max=8"`

	// DefaultDelimiter, when set to "SOH" or "pipe", is the fixed
	// delimiter codec.Service.Decode parses with instead of
	// auto-detecting. The encoder does not read it.
	DefaultDelimiter string `mapstructure:"default_delimiter" toml:"default_delimiter" validate:"omitempty,oneof=SOH pipe"`

	Logging LoggingConfig `mapstructure:"logging" toml:"logging"`
}

// LoggingConfig configures the telemetry logger (see fix/internal/telemetry).
type LoggingConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

var vInstance = viper.New()

// Load reads a TOML config file at path into conf, applies FIXCODEC_-prefixed
// environment overrides, validates the result, and installs a
// fsnotify-backed watcher that re-unmarshals and re-validates on change,
// invoking onReload (if non-nil) with the refreshed config.
func Load(path string, conf *Config, onReload func(*Config)) error {
	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")
	vInstance.SetEnvPrefix("FIXCODEC")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(fsnotify.Event) {
		const debounce = 200 * time.Millisecond
		time.Sleep(debounce)

		reloaded := &Config{}
		if err := vInstance.Unmarshal(reloaded); err != nil {
			return
		}
		if err := validate.Struct(reloaded); err != nil {
			return
		}
		*conf = *reloaded
		if onReload != nil {
			onReload(conf)
		}
	})

	return nil
}

// Depth returns cfg.MaxNestingDepth, or fallback when unset.
func (cfg *Config) Depth(fallback int) int {
	if cfg == nil || cfg.MaxNestingDepth == 0 {
		return fallback
	}
	return cfg.MaxNestingDepth
}

// SOH and Pipe mirror fix.SOH/fix.Pipe without importing the fix
// package, keeping this config package dependency-free of the codec
// core it configures.
const (
	SOH  byte = 0x01
	Pipe byte = '|'
)

// Delimiter resolves DefaultDelimiter to its wire byte. ok is false when
// DefaultDelimiter is unset, meaning callers should auto-detect instead.
func (cfg *Config) Delimiter() (delim byte, ok bool) {
	if cfg == nil {
		return 0, false
	}
	switch cfg.DefaultDelimiter {
	case "SOH":
		return SOH, true
	case "pipe":
		return Pipe, true
	default:
		return 0, false
	}
}
