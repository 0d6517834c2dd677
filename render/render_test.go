package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
)

type recordingSurface struct {
	mu     sync.Mutex
	frames []*image.RGBA
	infos  []fractal.FrameInfo
}

func (s *recordingSurface) Present(img *image.RGBA, info fractal.FrameInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, img)
	s.infos = append(s.infos, info)
	return nil
}

func (s *recordingSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestBandsCoverEveryRowOnce(t *testing.T) {
	for _, h := range []int{1, 2, 7, 100, 601, 1080} {
		for _, n := range []int{-1, 0, 1, 3, 8, 16, 2000} {
			r := image.Rect(0, 0, 5, h)
			bands := Bands(r, n)
			if len(bands) == 0 {
				t.Fatalf("Bands(h=%d, n=%d) returned no bands", h, n)
			}
			next := 0
			minH, maxH := h, 0
			for _, b := range bands {
				if b.Min.Y != next {
					t.Fatalf("Bands(h=%d, n=%d): band %v starts at %d, want %d", h, n, b, b.Min.Y, next)
				}
				if b.Dx() != 5 {
					t.Fatalf("Bands(h=%d, n=%d): band %v has width %d", h, n, b, b.Dx())
				}
				next = b.Max.Y
				minH, maxH = min(minH, b.Dy()), max(maxH, b.Dy())
			}
			if next != h {
				t.Errorf("Bands(h=%d, n=%d) cover %d rows", h, n, next)
			}
			if maxH-minH > 1 {
				t.Errorf("Bands(h=%d, n=%d) unbalanced: %d..%d rows", h, n, minH, maxH)
			}
		}
	}
	if got := Bands(image.Rect(0, 0, 0, 10), 4); got != nil {
		t.Errorf("Bands on empty rect = %v, want nil", got)
	}
}

func TestMaxIterations(t *testing.T) {
	tests := []struct {
		name string
		r    fractal.Region
		want int
	}{
		{"home", fractal.DefaultRegion, 147},
		{"width two", fractal.Region{Xmin: -1, Xmax: 1, Ymin: -1, Ymax: 1}, 200},
		{"wide clamps low", fractal.Region{Xmin: -100, Xmax: 100, Ymin: -1, Ymax: 1}, 50},
		{"deep clamps high", fractal.Region{Xmin: 0, Xmax: 1e-12, Ymin: 0, Ymax: 1e-12}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxIterations(tt.r); got != tt.want {
				t.Errorf("MaxIterations(%v) = %d, want %d", tt.r, got, tt.want)
			}
		})
	}
}

func TestRenderPublishes(t *testing.T) {
	surf := &recordingSurface{}
	s := New(surf, WithWorkers(4))
	res, err := s.Render(context.Background(), Request{
		Region: fractal.DefaultRegion,
		Width:  300,
		Height: 200,
		Scheme: palette.Fire,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Outcome != Published {
		t.Fatalf("Outcome = %v, want published", res.Outcome)
	}
	if surf.count() != 1 {
		t.Fatalf("surface got %d frames, want 1", surf.count())
	}
	img := surf.frames[0]
	if img.Bounds() != image.Rect(0, 0, 300, 200) {
		t.Errorf("frame bounds = %v", img.Bounds())
	}
	// Pixel (200, 100) is the origin of the plane, inside the set.
	if got := img.RGBAAt(200, 100); got != (color.RGBA{A: 255}) {
		t.Errorf("origin pixel = %v, want black", got)
	}
	// Pixel (0, 0) is -2+1i, outside the set.
	if got := img.RGBAAt(0, 0); got == (color.RGBA{A: 255}) {
		t.Errorf("corner pixel is black, want escaped color")
	}
	if info := surf.infos[0]; info.MaxIter != 147 || info.Scheme != palette.Fire || info.Generation != s.Generation() {
		t.Errorf("frame info = %+v", info)
	}
}

func TestBandCountDoesNotChangeImage(t *testing.T) {
	req := Request{
		Region: fractal.SeahorseValley,
		Width:  97,
		Height: 61,
		Kind:   escape.KindJulia,
		Julia:  escape.DefaultJulia,
		Scheme: palette.Rainbow,
	}
	var imgs []*image.RGBA
	for _, n := range []int{1, 3, 16} {
		res, err := New(nil, WithWorkers(n)).Render(context.Background(), req)
		if err != nil || res.Outcome != Published {
			t.Fatalf("Render with %d workers: %v, %v", n, res.Outcome, err)
		}
		imgs = append(imgs, res.Frame.Image)
	}
	for i := 1; i < len(imgs); i++ {
		if !bytes.Equal(imgs[0].Pix, imgs[i].Pix) {
			t.Errorf("image %d differs from single band render", i)
		}
	}
}

func TestNewerJobSupersedesOlder(t *testing.T) {
	surf := &recordingSurface{}
	s := New(surf, WithWorkers(2))

	// Job A: every pixel sits inside the main cardioid, so each one costs
	// the full 5000 iterations.
	slow := Request{
		Region:  fractal.Region{Xmin: -0.3, Xmax: 0.1, Ymin: -0.2, Ymax: 0.2},
		Width:   400,
		Height:  400,
		Scheme:  palette.Fire,
		MaxIter: 5000,
	}
	ctxA, genA := s.begin(context.Background())
	resA := make(chan Result, 1)
	go func() {
		res, _ := s.run(ctxA, genA, slow)
		resA <- res
	}()

	fast := Request{
		Region: fractal.DefaultRegion,
		Width:  60,
		Height: 40,
		Scheme: palette.Grayscale,
	}
	resB, err := s.Render(context.Background(), fast)
	if err != nil {
		t.Fatalf("Render B: %v", err)
	}
	if resB.Outcome != Published {
		t.Fatalf("B outcome = %v, want published", resB.Outcome)
	}
	if got := <-resA; got.Outcome != Superseded {
		t.Fatalf("A outcome = %v, want superseded", got.Outcome)
	}

	if surf.count() != 1 {
		t.Fatalf("surface got %d frames, want only B", surf.count())
	}
	if info := surf.infos[0]; info.Generation == genA || info.Scheme != palette.Grayscale {
		t.Errorf("published frame info = %+v, want job B", info)
	}

	want, err := New(nil).Render(context.Background(), fast)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(surf.frames[0].Pix, want.Frame.Image.Pix) {
		t.Errorf("published frame is not a pure render of B")
	}
}

func TestSubmitRunsInBackground(t *testing.T) {
	done := make(chan fractal.FrameInfo, 1)
	s := New(fractal.SurfaceFunc(func(_ *image.RGBA, info fractal.FrameInfo) error {
		done <- info
		return nil
	}))
	gen, err := s.Submit(context.Background(), Request{Region: fractal.DefaultRegion, Width: 30, Height: 20})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if info := <-done; info.Generation != gen {
		t.Errorf("published generation %d, want %d", info.Generation, gen)
	}
}

func TestPreviewUsesTwoTones(t *testing.T) {
	res, err := New(nil).Render(context.Background(), Request{
		Region:  fractal.DefaultRegion,
		Width:   60,
		Height:  40,
		Preview: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	red := color.RGBA{R: 255, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	seen := map[color.RGBA]bool{}
	for _, p := range res.Frame.Pixels() {
		if p.Color != red && p.Color != white {
			t.Fatalf("preview pixel (%d, %d) = %v", p.X, p.Y, p.Color)
		}
		seen[p.Color] = true
	}
	if !seen[red] || !seen[white] {
		t.Errorf("preview colors seen = %v, want both tones", seen)
	}
	if !res.Frame.Info.Preview {
		t.Errorf("frame info does not report preview")
	}
}

func TestPixelsRowMajor(t *testing.T) {
	res, err := New(nil).Render(context.Background(), Request{Region: fractal.DefaultRegion, Width: 4, Height: 3})
	if err != nil {
		t.Fatal(err)
	}
	px := res.Frame.Pixels()
	if len(px) != 12 {
		t.Fatalf("len(Pixels) = %d, want 12", len(px))
	}
	if px[5].X != 1 || px[5].Y != 1 {
		t.Errorf("Pixels[5] at (%d, %d), want (1, 1)", px[5].X, px[5].Y)
	}
}

func TestRenderRejectsDegenerateRequest(t *testing.T) {
	s := New(nil)
	if _, err := s.Render(context.Background(), Request{Region: fractal.DefaultRegion}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty surface error = %v", err)
	}
	bad := fractal.Region{Xmin: 1, Xmax: -1, Ymin: 0, Ymax: 1}
	if _, err := s.Render(context.Background(), Request{Region: bad, Width: 10, Height: 10}); !errors.Is(err, fractal.ErrDegenerateRegion) {
		t.Errorf("inverted region error = %v", err)
	}
	if s.Generation() != 0 {
		t.Errorf("rejected requests started a job")
	}
}

func TestRenderCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(nil).Render(ctx, Request{Region: fractal.DefaultRegion, Width: 10, Height: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if res.Outcome != Superseded {
		t.Errorf("outcome = %v, want superseded", res.Outcome)
	}
}

func TestCancelledRenderKeepsRunningJob(t *testing.T) {
	done := make(chan fractal.FrameInfo, 1)
	s := New(fractal.SurfaceFunc(func(_ *image.RGBA, info fractal.FrameInfo) error {
		done <- info
		return nil
	}), WithWorkers(2))

	gen, err := s.Submit(context.Background(), Request{Region: fractal.DefaultRegion, Width: 200, Height: 150})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Render(ctx, Request{Region: fractal.SeahorseValley, Width: 10, Height: 10}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render error = %v, want context.Canceled", err)
	}
	if s.Generation() != gen || !s.IsCurrent(gen) {
		t.Errorf("cancelled Render moved the generation from %d to %d", gen, s.Generation())
	}
	if info := <-done; info.Generation != gen || info.Region != fractal.DefaultRegion {
		t.Errorf("published %+v, want the submitted job", info)
	}
}

func BenchmarkRender(b *testing.B) {
	s := New(nil)
	req := Request{Region: fractal.SeahorseValley, Width: 320, Height: 240}
	for b.Loop() {
		if _, err := s.Render(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
