// Package overlay draws axes and status text over rendered frames.
package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/gogpu/gg"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/plane"
)

// TickStep is the plane distance between adjacent ticks.
const TickStep = 0.1

// minTickSpacing is the smallest pixel distance at which a tick category is
// still drawn.
const minTickSpacing = 3

type tick struct {
	every  int // in TickSteps
	length float64
	r      float64
	g      float64
	b      float64
}

// Ticks on multiples of 1.0, 0.5 and 0.1, drawn in that order of precedence.
var ticks = []tick{
	{every: 10, length: 8, r: 1},
	{every: 5, length: 5, b: 1},
	{every: 1, length: 3},
}

func category(k int) tick {
	for _, t := range ticks {
		if k%t.every == 0 {
			return t
		}
	}
	return ticks[len(ticks)-1]
}

// DrawAxes draws the real and imaginary axes of r onto img, with ticks every
// TickStep. Axes outside r are skipped.
func DrawAxes(img *image.RGBA, r fractal.Region) error {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	p := plane.New(r, w, h)
	conv, err := plane.NewConverter(p)
	if err != nil {
		return fmt.Errorf("axes: %w", err)
	}
	showReal := r.Ymin <= 0 && 0 <= r.Ymax
	showImag := r.Xmin <= 0 && 0 <= r.Xmax
	if !showReal && !showImag {
		return nil
	}

	dc := gg.NewContextForImage(img)
	defer dc.Close()

	x0, y0 := conv.PlaneToScreen(0)
	dc.SetLineWidth(1)
	dc.SetRGB(0, 0, 0)
	if showReal {
		dc.DrawLine(0, y0, w, y0)
	}
	if showImag {
		dc.DrawLine(x0, 0, x0, h)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("axes: %w", err)
	}

	for _, t := range ticks {
		spacing := float64(t.every) * TickStep
		if spacing*p.XDen() < minTickSpacing || spacing*p.YDen() < minTickSpacing {
			continue
		}
		dc.SetRGB(t.r, t.g, t.b)
		if showReal {
			for k := tickFrom(r.Xmin); float64(k)*TickStep <= r.Xmax; k++ {
				if category(k) != t {
					continue
				}
				x := conv.PlaneToScreenX(float64(k) * TickStep)
				dc.DrawLine(x, y0-t.length, x, y0+t.length)
			}
		}
		if showImag {
			for k := tickFrom(r.Ymin); float64(k)*TickStep <= r.Ymax; k++ {
				if category(k) != t {
					continue
				}
				y := conv.PlaneToScreenY(float64(k) * TickStep)
				dc.DrawLine(x0-t.length, y, x0+t.length, y)
			}
		}
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("axes: %w", err)
		}
	}

	draw.Draw(img, b, dc.Image(), image.Point{}, draw.Src)
	return nil
}

func tickFrom(v float64) int {
	return int(math.Ceil(v / TickStep))
}
