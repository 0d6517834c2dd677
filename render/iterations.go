package render

import (
	"math"

	fractal "github.com/marben/fractal_nav"
)

const (
	baseIterations = 200
	minIterations  = 50
	maxIterations  = 5000
)

// MaxIterations picks the iteration bound for r. Deeper zoom needs more
// iterations to resolve detail; the bound is clamped to [50, 5000].
func MaxIterations(r fractal.Region) int {
	zoom := 2 / r.Width()
	n := baseIterations * math.Log2(zoom+1)
	switch {
	case math.IsNaN(n) || n < minIterations:
		return minIterations
	case n > maxIterations:
		return maxIterations
	}
	return int(n)
}
