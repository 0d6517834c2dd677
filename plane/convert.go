package plane

// Converter maps between screen pixels and the complex plane for a fixed
// snapshot of a Plane. Screen y grows downward while the imaginary axis grows
// upward, so y is the one inverted axis, in both directions.
type Converter struct {
	p Plane
}

// NewConverter snapshots p. It fails for a degenerate plane instead of
// producing infinities later.
func NewConverter(p Plane) (Converter, error) {
	if err := p.Validate(); err != nil {
		return Converter{}, err
	}
	return Converter{p: p}, nil
}

// Plane returns the snapshot the converter works on.
func (c Converter) Plane() Plane { return c.p }

func (c Converter) ScreenToPlaneX(x float64) float64 {
	return c.p.Xmin + x/c.p.Width*(c.p.Xmax-c.p.Xmin)
}

func (c Converter) ScreenToPlaneY(y float64) float64 {
	return c.p.Ymax - y/c.p.Height*(c.p.Ymax-c.p.Ymin)
}

func (c Converter) PlaneToScreenX(x float64) float64 {
	return (x - c.p.Xmin) / (c.p.Xmax - c.p.Xmin) * c.p.Width
}

func (c Converter) PlaneToScreenY(y float64) float64 {
	return (c.p.Ymax - y) / (c.p.Ymax - c.p.Ymin) * c.p.Height
}

// ScreenToPlane converts the pixel (x, y) to a point of the complex plane.
func (c Converter) ScreenToPlane(x, y float64) complex128 {
	return complex(c.ScreenToPlaneX(x), c.ScreenToPlaneY(y))
}

// PlaneToScreen converts z to pixel coordinates.
func (c Converter) PlaneToScreen(z complex128) (x, y float64) {
	return c.PlaneToScreenX(real(z)), c.PlaneToScreenY(imag(z))
}
