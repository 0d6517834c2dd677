// Package config loads fractal_nav settings from defaults and an optional
// TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"

	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
)

// Root is the key all settings live under in the TOML file.
const Root = "fractal"

// Julia is the Julia constant as two reals.
type Julia struct {
	Re float64 `koanf:"re"`
	Im float64 `koanf:"im"`
}

// Tour configures keyframe animation.
type Tour struct {
	Duration time.Duration `koanf:"duration"`
	Steps    int           `koanf:"steps"`
}

// Server configures cmd/server.
type Server struct {
	Addr    string   `koanf:"addr"`
	Static  string   `koanf:"static"`
	Origins []string `koanf:"origins"`
}

// Overlay selects what is drawn over published frames.
type Overlay struct {
	Axes   bool `koanf:"axes"`
	Status bool `koanf:"status"`
}

// Log configures the slog handler installed by the binaries.
type Log struct {
	Level string `koanf:"level"`
}

type Config struct {
	Fractal    string  `koanf:"type"`
	Scheme     string  `koanf:"scheme"`
	Julia      Julia   `koanf:"julia"`
	Width      int     `koanf:"width"`
	Height     int     `koanf:"height"`
	Workers    int     `koanf:"workers"`
	ZoomFactor float64 `koanf:"zoom"`
	History    int     `koanf:"history"`
	Tour       Tour    `koanf:"tour"`
	Server     Server  `koanf:"server"`
	Overlay    Overlay `koanf:"overlay"`
	Log        Log     `koanf:"log"`
}

func defaults() map[string]any {
	return map[string]any{
		Root + ".type":           "mandelbrot",
		Root + ".scheme":         "RAINBOW",
		Root + ".julia.re":       real(escape.DefaultJulia),
		Root + ".julia.im":       imag(escape.DefaultJulia),
		Root + ".width":          800,
		Root + ".height":         600,
		Root + ".workers":        0,
		Root + ".zoom":           0.5,
		Root + ".history":        100,
		Root + ".tour.duration":  "3s",
		Root + ".tour.steps":     60,
		Root + ".server.addr":    ":8080",
		Root + ".server.static":  "./static",
		Root + ".server.origins": []string{"localhost:*", "127.0.0.1:*"},
		Root + ".overlay.axes":   false,
		Root + ".overlay.status": false,
		Root + ".log.level":      "info",
	}
}

// Default returns the built-in configuration.
func Default() Config {
	c, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	return c
}

// Load reads defaults, then overlays the TOML file at path. An empty path
// loads defaults only; a path that does not exist is an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var c Config
	if err := k.UnmarshalWithConf(Root, &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field that has a restricted range.
func (c Config) Validate() error {
	var errs []error
	if _, err := escape.ParseKind(c.Fractal); err != nil {
		errs = append(errs, err)
	}
	if _, err := palette.ParseScheme(c.Scheme); err != nil {
		errs = append(errs, err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("surface %dx%d must be positive", c.Width, c.Height))
	}
	if c.ZoomFactor <= 0 || c.ZoomFactor >= 1 {
		errs = append(errs, fmt.Errorf("zoom factor %g must be in (0, 1)", c.ZoomFactor))
	}
	if c.History < 1 {
		errs = append(errs, fmt.Errorf("history depth %d must be at least 1", c.History))
	}
	if c.Tour.Steps < 1 || c.Tour.Duration < 0 {
		errs = append(errs, fmt.Errorf("tour needs steps >= 1 and duration >= 0, got %d, %s", c.Tour.Steps, c.Tour.Duration))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Kind returns the configured fractal kind.
func (c Config) Kind() escape.Kind {
	k, _ := escape.ParseKind(c.Fractal)
	return k
}

// ColorScheme returns the configured color scheme.
func (c Config) ColorScheme() palette.Scheme {
	s, _ := palette.ParseScheme(c.Scheme)
	return s
}

// JuliaConstant returns the configured Julia constant.
func (c Config) JuliaConstant() complex128 {
	return complex(c.Julia.Re, c.Julia.Im)
}

// Level parses the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
