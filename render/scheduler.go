// Package render computes fractal frames in parallel row bands and publishes
// only the most recently requested one.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"sync"
	"time"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
	"github.com/marben/fractal_nav/plane"
)

// ErrInvalidRequest is returned for a request whose surface has no pixels.
var ErrInvalidRequest = errors.New("invalid render request")

// Outcome is what happened to a render job.
type Outcome int

const (
	// Published: the frame reached the surface.
	Published Outcome = iota
	// Superseded: a newer job started first; the partial result was discarded.
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Published:
		return "published"
	case Superseded:
		return "superseded"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Request holds everything a render job reads. It is copied once when the
// job starts, so later changes by the caller never reach running workers.
type Request struct {
	Region fractal.Region
	Width  int
	Height int

	Kind   escape.Kind
	Julia  complex128
	Scheme palette.Scheme

	// MaxIter bounds the iteration; 0 selects MaxIterations(Region).
	MaxIter int

	// Preview renders on a single band with two-tone coloring.
	Preview bool
}

func (r Request) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: %dx%d surface", ErrInvalidRequest, r.Width, r.Height)
	}
	return r.Region.Validate()
}

// Pixel is a single draw command of a frame.
type Pixel struct {
	X, Y  int
	Color color.RGBA
}

// Frame is a completed render.
type Frame struct {
	Image *image.RGBA
	Info  fractal.FrameInfo
}

// Pixels returns the frame as draw commands in row-major order.
func (f *Frame) Pixels() []Pixel {
	b := f.Image.Bounds()
	px := make([]Pixel, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px = append(px, Pixel{X: x, Y: y, Color: f.Image.RGBAAt(x, y)})
		}
	}
	return px
}

// Result reports how a job ended.
type Result struct {
	Outcome Outcome
	Frame   *Frame
	Elapsed time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the number of row bands rendered concurrently.
// n <= 0 selects runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// Scheduler runs at most one render job at a time. Starting a job cancels
// the previous one, and a job publishes to the surface only while it is
// still the latest.
type Scheduler struct {
	surface fractal.Surface
	workers int

	m      sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New returns a scheduler publishing to surface.
func New(surface fractal.Surface, opts ...Option) *Scheduler {
	s := &Scheduler{
		surface: surface,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Workers returns the number of concurrent bands used for full renders.
func (s *Scheduler) Workers() int { return s.workers }

// Generation returns the id of the latest started job.
func (s *Scheduler) Generation() uint64 {
	s.m.Lock()
	defer s.m.Unlock()
	return s.gen
}

// IsCurrent reports whether gen is still the latest started job.
func (s *Scheduler) IsCurrent(gen uint64) bool {
	return s.Generation() == gen
}

// Cancel cancels the in-flight job, if any.
func (s *Scheduler) Cancel() {
	s.m.Lock()
	defer s.m.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Render supersedes any running job and renders req, blocking until the
// frame is published or superseded. Supersession is reported through
// Result.Outcome, not as an error.
func (s *Scheduler) Render(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	// A caller that already gave up must not supersede the running job.
	if ctx.Err() != nil {
		return Result{Outcome: Superseded}, context.Cause(ctx)
	}
	jobCtx, gen := s.begin(ctx)
	res, err := s.run(jobCtx, gen, req)
	if err == nil && res.Outcome == Superseded && ctx.Err() != nil {
		return res, context.Cause(ctx)
	}
	return res, err
}

// Submit supersedes any running job and renders req in the background.
// It returns the generation of the new job.
func (s *Scheduler) Submit(ctx context.Context, req Request) (uint64, error) {
	if err := req.validate(); err != nil {
		return 0, err
	}
	jobCtx, gen := s.begin(ctx)
	go func() {
		if _, err := s.run(jobCtx, gen, req); err != nil {
			fractal.Logger().Warn("render: present failed", "gen", gen, "err", err)
		}
	}()
	return gen, nil
}

func (s *Scheduler) begin(ctx context.Context) (context.Context, uint64) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return jobCtx, s.gen
}

func (s *Scheduler) run(ctx context.Context, gen uint64, req Request) (Result, error) {
	start := time.Now()
	log := fractal.Logger()

	maxIter := req.MaxIter
	if maxIter <= 0 {
		maxIter = MaxIterations(req.Region)
	}
	workers := s.workers
	if req.Preview {
		workers = 1
	}
	log.Debug("render: job started", "gen", gen, "region", req.Region, "kind", req.Kind,
		"maxIter", maxIter, "bands", workers)

	img, err := compute(ctx, req, maxIter, workers)
	if err != nil {
		return Result{}, err
	}
	if img == nil {
		log.Debug("render: job superseded", "gen", gen, "elapsed", time.Since(start))
		return Result{Outcome: Superseded, Elapsed: time.Since(start)}, nil
	}

	frame := &Frame{
		Image: img,
		Info: fractal.FrameInfo{
			Region:     req.Region,
			Kind:       req.Kind,
			Scheme:     req.Scheme,
			MaxIter:    maxIter,
			Generation: gen,
			Preview:    req.Preview,
		},
	}
	return s.publish(ctx, gen, frame, start)
}

// publish hands the frame to the surface if gen is still the latest job.
// The check and the hand-off happen under the same lock, so an older job can
// never overwrite a newer one.
func (s *Scheduler) publish(ctx context.Context, gen uint64, frame *Frame, start time.Time) (Result, error) {
	s.m.Lock()
	defer s.m.Unlock()

	elapsed := time.Since(start)
	if s.gen != gen || ctx.Err() != nil {
		fractal.Logger().Debug("render: job superseded before publish", "gen", gen, "elapsed", elapsed)
		return Result{Outcome: Superseded, Elapsed: elapsed}, nil
	}
	s.cancel()
	s.cancel = nil

	fractal.Logger().Debug("render: job published", "gen", gen, "elapsed", elapsed)
	if s.surface != nil {
		if err := s.surface.Present(frame.Image, frame.Info); err != nil {
			return Result{Outcome: Published, Frame: frame, Elapsed: elapsed}, fmt.Errorf("present: %w", err)
		}
	}
	return Result{Outcome: Published, Frame: frame, Elapsed: elapsed}, nil
}

// compute renders req into a new image, or returns nil if ctx was cancelled
// before every band finished.
func compute(ctx context.Context, req Request, maxIter, workers int) (*image.RGBA, error) {
	conv, err := plane.NewConverter(plane.New(req.Region, float64(req.Width), float64(req.Height)))
	if err != nil {
		return nil, err
	}
	eval := escape.For(req.Kind, req.Julia)
	paint := palette.For(req.Scheme)
	if req.Preview {
		paint = palette.Binary
	}

	bounds := image.Rect(0, 0, req.Width, req.Height)
	bands := Bands(bounds, workers)
	tiles := make([]*image.RGBA, len(bands))

	var wg sync.WaitGroup
	for i, band := range bands {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tiles[i] = renderBand(ctx, conv, band, eval, paint, maxIter)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, nil
	}

	img := image.NewRGBA(bounds)
	for _, tile := range tiles {
		if tile == nil {
			return nil, nil
		}
		draw.Draw(img, tile.Bounds(), tile, tile.Bounds().Min, draw.Src)
	}
	return img, nil
}

// renderBand renders the rows of band into an image with global coordinates.
// It returns nil as soon as it observes cancellation.
func renderBand(ctx context.Context, conv plane.Converter, band image.Rectangle,
	eval escape.Func, paint palette.Func, maxIter int) *image.RGBA {
	img := image.NewRGBA(band)
	for py := band.Min.Y; py < band.Max.Y; py++ {
		if ctx.Err() != nil {
			return nil
		}
		y := conv.ScreenToPlaneY(float64(py))
		for px := band.Min.X; px < band.Max.X; px++ {
			c := complex(conv.ScreenToPlaneX(float64(px)), y)
			img.SetRGBA(px, py, paint(eval(c, maxIter), maxIter))
		}
	}
	return img
}
