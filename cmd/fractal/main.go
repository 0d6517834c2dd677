// Command fractal renders a landmark, or a tour through several landmarks, to
// PNG files.
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexflint/go-arg"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/config"
	"github.com/marben/fractal_nav/overlay"
	"github.com/marben/fractal_nav/render"
	"github.com/marben/fractal_nav/tour"
)

type args struct {
	Config   string   `arg:"-c,--config" help:"TOML configuration file"`
	Out      string   `arg:"-o,--out" default:"fractal.png" help:"output file; tour frames are written as <name>-NNNN.png"`
	Landmark string   `arg:"-l,--landmark" default:"home" help:"region to render"`
	Tour     []string `arg:"--tour" help:"landmarks to tour through, at least two"`
	Steps    int      `arg:"--steps" help:"interpolation steps per tour leg, overrides tour.steps"`
	Fractal  string   `arg:"--fractal" help:"mandelbrot or julia, overrides type"`
	Scheme   string   `arg:"--scheme" help:"RAINBOW, GRAYSCALE, FIRE, ICE or CUSTOM, overrides scheme"`
	Width    int      `arg:"--width" help:"image width in pixels"`
	Height   int      `arg:"--height" help:"image height in pixels"`
	Iter     int      `arg:"--iter" help:"maximum iterations, 0 derives them from the zoom level"`
	Axes     bool     `arg:"--axes" help:"draw the real and imaginary axes"`
	Status   bool     `arg:"--status" help:"draw region and iteration count"`
}

func (args) Description() string {
	return "renders fractal landmarks and tours to PNG files\nlandmarks: " + strings.Join(fractal.LandmarkNames(), ", ")
}

func main() {
	var a args
	arg.MustParse(&a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

// settings merges the configuration file with the command line.
func settings(a args) (config.Config, error) {
	cfg, err := config.Load(a.Config)
	if err != nil {
		return config.Config{}, err
	}
	if a.Fractal != "" {
		cfg.Fractal = a.Fractal
	}
	if a.Scheme != "" {
		cfg.Scheme = a.Scheme
	}
	if a.Width > 0 {
		cfg.Width = a.Width
	}
	if a.Height > 0 {
		cfg.Height = a.Height
	}
	if a.Steps > 0 {
		cfg.Tour.Steps = a.Steps
	}
	cfg.Overlay.Axes = cfg.Overlay.Axes || a.Axes
	cfg.Overlay.Status = cfg.Overlay.Status || a.Status
	return cfg, cfg.Validate()
}

func run(ctx context.Context, a args) error {
	cfg, err := settings(a)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	out := &fileSurface{overlay: cfg.Overlay}
	sched := render.New(out, render.WithWorkers(cfg.Workers))
	job := func(r fractal.Region) render.Request {
		return render.Request{
			Region:  fitAspect(r, cfg.Width, cfg.Height),
			Width:   cfg.Width,
			Height:  cfg.Height,
			Kind:    cfg.Kind(),
			Julia:   cfg.JuliaConstant(),
			Scheme:  cfg.ColorScheme(),
			MaxIter: a.Iter,
		}
	}

	if len(a.Tour) == 0 {
		r, err := landmark(a.Landmark)
		if err != nil {
			return err
		}
		out.path = func() string { return a.Out }
		res, err := sched.Render(ctx, job(r))
		if err != nil {
			return fmt.Errorf("render %s: %w", a.Landmark, err)
		}
		log.Printf("rendered %s in %s, saved to %q", a.Landmark, res.Elapsed, a.Out)
		return nil
	}

	keyframes := make([]fractal.Region, 0, len(a.Tour))
	for _, name := range a.Tour {
		r, err := landmark(name)
		if err != nil {
			return err
		}
		keyframes = append(keyframes, r)
	}
	if len(keyframes) < 2 {
		return fmt.Errorf("a tour needs at least two landmarks, got %d", len(keyframes))
	}

	ext := filepath.Ext(a.Out)
	base := strings.TrimSuffix(a.Out, ext)
	frame := 0
	out.path = func() string {
		p := fmt.Sprintf("%s-%04d%s", base, frame, ext)
		frame++
		return p
	}

	// Frames are written as fast as they render; the configured duration only
	// paces interactive tours.
	eng := tour.New(tour.WithDuration(0), tour.WithSteps(cfg.Tour.Steps))
	var renderErr error
	start := time.Now()
	eng.Start(ctx, keyframes, func(ctx context.Context, r fractal.Region) error {
		_, err := sched.Render(ctx, job(r))
		if err != nil {
			renderErr = err
		}
		return err
	})
	<-eng.Done()
	if renderErr != nil {
		return fmt.Errorf("tour: %w", renderErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("tour of %d frames rendered in %s", frame, time.Since(start))
	return nil
}

func landmark(name string) (fractal.Region, error) {
	r, ok := fractal.Landmark(name)
	if !ok {
		return fractal.Region{}, fmt.Errorf("unknown landmark %q, want one of %s", name, strings.Join(fractal.LandmarkNames(), ", "))
	}
	return r, nil
}

// fitAspect grows r around its center so that it has the aspect ratio of a
// w x h image.
func fitAspect(r fractal.Region, w, h int) fractal.Region {
	aspect := float64(w) / float64(h)
	c := r.Center()
	hw, hh := r.Width()/2, r.Height()/2
	if hw/hh < aspect {
		hw = hh * aspect
	} else {
		hh = hw / aspect
	}
	return fractal.Region{Xmin: real(c) - hw, Xmax: real(c) + hw, Ymin: imag(c) - hh, Ymax: imag(c) + hh}
}

// fileSurface writes every published frame to the next path.
type fileSurface struct {
	overlay config.Overlay
	path    func() string
}

func (s *fileSurface) Present(img *image.RGBA, info fractal.FrameInfo) error {
	if s.overlay.Axes {
		if err := overlay.DrawAxes(img, info.Region); err != nil {
			return err
		}
	}
	if s.overlay.Status {
		overlay.DrawStatus(img, overlay.StatusLines(info)...)
	}

	filename := s.path()
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	fractal.Logger().Debug("frame saved", "file", filename, "region", info.Region, "fractal", info.Kind, "scheme", info.Scheme)
	return nil
}
