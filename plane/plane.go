// Package plane holds the mutable viewport model and the mapping between
// screen pixels and complex-plane coordinates.
package plane

import (
	"errors"
	"fmt"

	fractal "github.com/marben/fractal_nav"
)

// ErrDegenerateSurface is returned when the pixel surface has a non-positive dimension.
var ErrDegenerateSurface = errors.New("degenerate surface")

// Plane is the rectangle of the complex plane currently mapped onto a
// Width x Height pixel surface. A Plane has a single writer; readers that run
// concurrently with it must work on a copy.
type Plane struct {
	Xmin, Xmax float64
	Ymin, Ymax float64

	Width, Height float64
}

// New returns a plane showing r on a w x h surface.
func New(r fractal.Region, w, h float64) Plane {
	p := Plane{Width: w, Height: h}
	p.SetRegion(r)
	return p
}

// Region returns a snapshot of the plane bounds.
func (p *Plane) Region() fractal.Region {
	return fractal.Region{Xmin: p.Xmin, Xmax: p.Xmax, Ymin: p.Ymin, Ymax: p.Ymax}
}

// SetRegion replaces the plane bounds with r.
func (p *Plane) SetRegion(r fractal.Region) {
	p.Xmin, p.Xmax = r.Xmin, r.Xmax
	p.Ymin, p.Ymax = r.Ymin, r.Ymax
}

// Resize attaches the plane to a surface of w x h pixels.
func (p *Plane) Resize(w, h float64) error {
	if !(w > 0) || !(h > 0) {
		return fmt.Errorf("%w: %gx%g", ErrDegenerateSurface, w, h)
	}
	p.Width, p.Height = w, h
	return nil
}

// XDen is the number of pixels per unit along the real axis.
func (p *Plane) XDen() float64 { return p.Width / (p.Xmax - p.Xmin) }

// YDen is the number of pixels per unit along the imaginary axis.
func (p *Plane) YDen() float64 { return p.Height / (p.Ymax - p.Ymin) }

// Aspect is the screen aspect ratio, width over height.
func (p *Plane) Aspect() float64 { return p.Width / p.Height }

// Validate reports whether the plane can be used for coordinate conversion.
func (p *Plane) Validate() error {
	if err := p.Region().Validate(); err != nil {
		return err
	}
	if !(p.Width > 0) || !(p.Height > 0) {
		return fmt.Errorf("%w: %gx%g", ErrDegenerateSurface, p.Width, p.Height)
	}
	return nil
}
