package fractal

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDegenerateRegion is returned for a region with an empty or inverted extent.
var ErrDegenerateRegion = errors.New("degenerate region")

// Region within the complex plane. A Region is a value: history entries and
// tour keyframes are Regions and are never mutated after creation.
type Region struct {
	Xmin float64 `json:"xmin"`
	Xmax float64 `json:"xmax"`
	Ymin float64 `json:"ymin"`
	Ymax float64 `json:"ymax"`
}

// DefaultRegion is the view restored by a reset.
var DefaultRegion = Region{Xmin: -2, Xmax: 1, Ymin: -1, Ymax: 1}

func (r Region) Width() float64  { return r.Xmax - r.Xmin }
func (r Region) Height() float64 { return r.Ymax - r.Ymin }

// Center returns the midpoint of the region as a complex number.
func (r Region) Center() complex128 {
	return complex((r.Xmin+r.Xmax)/2, (r.Ymin+r.Ymax)/2)
}

// Validate reports whether r can be mapped onto a pixel surface.
func (r Region) Validate() error {
	for _, v := range [...]float64{r.Xmin, r.Xmax, r.Ymin, r.Ymax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound in %v", ErrDegenerateRegion, r)
		}
	}
	if r.Xmax <= r.Xmin {
		return fmt.Errorf("%w: xmax %g <= xmin %g", ErrDegenerateRegion, r.Xmax, r.Xmin)
	}
	if r.Ymax <= r.Ymin {
		return fmt.Errorf("%w: ymax %g <= ymin %g", ErrDegenerateRegion, r.Ymax, r.Ymin)
	}
	return nil
}

// Lerp interpolates every bound of r toward to by t.
func (r Region) Lerp(to Region, t float64) Region {
	return Region{
		Xmin: lerp(r.Xmin, to.Xmin, t),
		Xmax: lerp(r.Xmax, to.Xmax, t),
		Ymin: lerp(r.Ymin, to.Ymin, t),
		Ymax: lerp(r.Ymax, to.Ymax, t),
	}
}

func (r Region) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g]", r.Xmin, r.Xmax, r.Ymin, r.Ymax)
}

// lerp is exact at both ends: lerp(a, b, 0) == a and lerp(a, b, 1) == b.
func lerp(a, b, t float64) float64 { return a*(1-t) + b*t }

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

var landmarks = map[string]Region{
	"home":       DefaultRegion,
	"seahorse":   SeahorseValley,
	"elephant":   ElephantValley,
	"minibrot":   SpiralMinibrot,
	"triple":     TripleSpiral,
	"dragon":     ValleyOfTheDragon,
	"minispiral": MinibrotInMiniSpiral,
}

// Landmark looks up a named landmark region.
func Landmark(name string) (Region, bool) {
	r, ok := landmarks[name]
	return r, ok
}

// LandmarkNames returns the known landmark names in sorted order.
func LandmarkNames() []string {
	names := make([]string, 0, len(landmarks))
	for n := range landmarks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
