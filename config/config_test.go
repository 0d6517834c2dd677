package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.Kind() != escape.KindMandelbrot {
		t.Errorf("Kind = %v", c.Kind())
	}
	if c.ColorScheme() != palette.Rainbow {
		t.Errorf("ColorScheme = %v", c.ColorScheme())
	}
	if c.JuliaConstant() != escape.DefaultJulia {
		t.Errorf("JuliaConstant = %v", c.JuliaConstant())
	}
	if c.Tour.Duration != 3*time.Second || c.Tour.Steps != 60 {
		t.Errorf("Tour = %+v", c.Tour)
	}
	if c.History != 100 || c.ZoomFactor != 0.5 {
		t.Errorf("History, ZoomFactor = %d, %g", c.History, c.ZoomFactor)
	}
	if l, err := c.Level(); err != nil || l != slog.LevelInfo {
		t.Errorf("Level = %v, %v", l, err)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fractal.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeFile(t, `
[fractal]
type = "julia"
scheme = "fire"
width = 1024

[fractal.julia]
re = 0.285
im = 0.01

[fractal.tour]
duration = "1500ms"

[fractal.overlay]
axes = true

[fractal.server]
origins = ["fractal.example.com"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Kind() != escape.KindJulia || c.ColorScheme() != palette.Fire {
		t.Errorf("kind, scheme = %v, %v", c.Kind(), c.ColorScheme())
	}
	if c.JuliaConstant() != complex(0.285, 0.01) {
		t.Errorf("JuliaConstant = %v", c.JuliaConstant())
	}
	if c.Width != 1024 || c.Height != 600 {
		t.Errorf("size = %dx%d, want 1024x600", c.Width, c.Height)
	}
	if c.Tour.Duration != 1500*time.Millisecond || c.Tour.Steps != 60 {
		t.Errorf("Tour = %+v", c.Tour)
	}
	if !c.Overlay.Axes || c.Overlay.Status {
		t.Errorf("Overlay = %+v", c.Overlay)
	}
	if len(c.Server.Origins) != 1 || c.Server.Origins[0] != "fractal.example.com" || c.Server.Addr != ":8080" {
		t.Errorf("Server = %+v", c.Server)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"kind":   "[fractal]\ntype = \"newton\"\n",
		"scheme": "[fractal]\nscheme = \"plasma\"\n",
		"size":   "[fractal]\nwidth = 0\n",
		"zoom":   "[fractal]\nzoom = 1.5\n",
		"level":  "[fractal.log]\nlevel = \"loud\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, body)); err == nil {
				t.Errorf("Load accepted invalid %s", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
}
