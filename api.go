package fractal

import (
	"image"

	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
)

// FrameInfo describes the parameters a published frame was rendered with.
type FrameInfo struct {
	Region     Region
	Kind       escape.Kind
	Scheme     palette.Scheme
	MaxIter    int
	Generation uint64
	Preview    bool
}

// Surface receives completed frames. Present is called at most once per
// completed render job and never for a superseded one.
type Surface interface {
	Present(img *image.RGBA, info FrameInfo) error
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(img *image.RGBA, info FrameInfo) error

func (f SurfaceFunc) Present(img *image.RGBA, info FrameInfo) error { return f(img, info) }
