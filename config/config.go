// Package config loads the ucbasic TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/ucbasic/basic"
	"github.com/ezrec/ucbasic/translate"
)

var f = translate.From

var (
	ErrStackLimit = errors.New(f("stack_limit must be positive"))
	ErrPace       = errors.New(f("pace must not be negative"))
)

// Duration is a time.Duration written as a string, such as "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete configuration.
type Config struct {
	Basic   Basic   `toml:"basic"`
	Storage Storage `toml:"storage"`
	Session Session `toml:"session"`
	Log     Log     `toml:"log"`
}

// Basic configures the BASIC engine.
type Basic struct {
	Pace        Duration `toml:"pace"`
	StrictGosub bool     `toml:"strict_gosub"`
	StackLimit  int      `toml:"stack_limit"`
}

// Storage selects the program file store.
type Storage struct {
	Driver string `toml:"driver"` // "dir" or "sqlite"
	Path   string `toml:"path"`
}

// Session configures the remote session listeners.
type Session struct {
	Telnet         string   `toml:"telnet"`    // TCP listen address, empty to disable.
	WebSocket      string   `toml:"websocket"` // HTTP listen address, empty to disable.
	WsPath         string   `toml:"ws_path"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Log configures the diagnostic log.
type Log struct {
	Verbose bool   `toml:"verbose"`
	Color   bool   `toml:"color"`
	Locale  string `toml:"locale"`
}

// Default returns the built in configuration.
func Default() (cfg *Config) {
	cfg = &Config{
		Basic: Basic{
			Pace:       Duration{basic.PACE},
			StackLimit: basic.STACK_LIMIT,
		},
		Storage: Storage{
			Driver: "dir",
			Path:   ".",
		},
		Session: Session{
			Telnet: ":2323",
			WsPath: "/session",
		},
		Log: Log{
			Color: true,
		},
	}

	return
}

// Parse overlays TOML text onto the defaults.
func Parse(text string) (cfg *Config, err error) {
	cfg = Default()

	_, err = toml.Decode(text, cfg)
	if err != nil {
		cfg = nil
		return
	}

	err = cfg.Validate()
	if err != nil {
		cfg = nil
	}
	return
}

// Load reads a configuration file. An empty path returns the defaults.
func Load(path string) (cfg *Config, err error) {
	if len(path) == 0 {
		cfg = Default()
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("cannot read %s: %w", path, err)
		return
	}

	cfg, err = Parse(string(data))
	if err != nil {
		err = fmt.Errorf("parse error in %s: %w", path, err)
	}
	return
}

// Validate checks value ranges.
func (cfg *Config) Validate() (err error) {
	if cfg.Basic.StackLimit <= 0 {
		err = ErrStackLimit
		return
	}
	if cfg.Basic.Pace.Duration < 0 {
		err = ErrPace
		return
	}
	return
}

// Apply configures an engine from the [basic] section.
func (cfg *Config) Apply(engine *basic.Engine) {
	engine.Pace = cfg.Basic.Pace.Duration
	engine.StrictGosub = cfg.Basic.StrictGosub
	engine.StackLimit = cfg.Basic.StackLimit
	engine.Verbose = cfg.Log.Verbose
}
