// Package palette maps escape-time iteration counts to colors.
//
// Every function here is pure and may be called from any number of render
// workers at once.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// ErrUnknownScheme is returned by ParseScheme for an unrecognized name.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Scheme selects a color mapping.
type Scheme int

const (
	Rainbow Scheme = iota
	Grayscale
	Fire
	Ice    // reserved, renders as Rainbow
	Custom // reserved, renders as Rainbow
)

var schemeNames = [...]string{
	Rainbow:   "RAINBOW",
	Grayscale: "GRAYSCALE",
	Fire:      "FIRE",
	Ice:       "ICE",
	Custom:    "CUSTOM",
}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
	return schemeNames[s]
}

// ParseScheme maps a configuration name to a Scheme. Matching is case-insensitive.
func ParseScheme(s string) (Scheme, error) {
	for i, name := range schemeNames {
		if strings.EqualFold(s, name) {
			return Scheme(i), nil
		}
	}
	return Rainbow, fmt.Errorf("%w %q (want one of %s)", ErrUnknownScheme, s, strings.Join(schemeNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var black = color.RGBA{A: 255}

// Func colors an iteration count.
type Func func(iter, maxIter int) color.RGBA

var schemes = map[Scheme]Func{
	Rainbow:   rainbow,
	Grayscale: grayscale,
	Fire:      fire,
}

// For returns the color function for s. Schemes without a mapping fall back to Rainbow.
func For(s Scheme) Func {
	if f, ok := schemes[s]; ok {
		return f
	}
	return rainbow
}

// Color maps iter out of maxIter to a color under scheme s. Points that never
// escaped (iter == maxIter) are black in every scheme.
func Color(s Scheme, iter, maxIter int) color.RGBA {
	return For(s)(iter, maxIter)
}

func rainbow(iter, maxIter int) color.RGBA {
	if iter >= maxIter {
		return black
	}
	hue := math.Mod(float64(iter)*360/float64(maxIter), 360)
	return toRGBA(gg.HSL(hue, 0.8, 0.5))
}

func grayscale(iter, maxIter int) color.RGBA {
	if iter >= maxIter {
		return black
	}
	v := uint8(iter * 255 / maxIter)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

func fire(iter, maxIter int) color.RGBA {
	if iter >= maxIter {
		return black
	}
	ratio := float64(iter) / float64(maxIter)
	return toRGBA(gg.RGB(math.Min(1, ratio*2), math.Min(1, ratio*1.5), ratio))
}

// Binary is the two-tone preview coloring: red inside the set, white outside.
func Binary(iter, maxIter int) color.RGBA {
	if iter >= maxIter {
		return color.RGBA{R: 255, A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func toRGBA(c gg.RGBA) color.RGBA {
	return color.RGBA{R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: 255}
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
