// Package escape implements the escape-time iteration for the quadratic
// family z -> z² + c.
package escape

import (
	"errors"
	"fmt"
	"strings"
)

// Threshold is the squared escape radius: an orbit with |z|² >= 4 diverges.
const Threshold = 4.0

// DefaultJulia is the Julia constant used unless configured otherwise.
const DefaultJulia = complex(-0.7, 0.027015)

// ErrUnknownKind is returned by ParseKind for an unrecognized fractal name.
var ErrUnknownKind = errors.New("unknown fractal kind")

// Func returns the number of iterations before the orbit seeded at c escapes,
// or maxIter when it never does.
type Func func(c complex128, maxIter int) int

// AbsSq returns |z|², avoiding the square root of cmplx.Abs.
func AbsSq(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

// Mandelbrot iterates z <- z² + c from z = 0.
func Mandelbrot(c complex128, maxIter int) int {
	var z complex128
	n := 0
	for n < maxIter && AbsSq(z) < Threshold {
		z = z*z + c
		n++
	}
	return n
}

// Julia returns the evaluator for the Julia set of k: the pixel coordinate
// seeds the orbit and k is the constant term.
func Julia(k complex128) Func {
	return func(c complex128, maxIter int) int {
		z := c
		n := 0
		for n < maxIter && AbsSq(z) < Threshold {
			z = z*z + k
			n++
		}
		return n
	}
}

// Kind selects an escape-time variant.
type Kind int

const (
	KindMandelbrot Kind = iota
	KindJulia
)

var kindNames = [...]string{
	KindMandelbrot: "mandelbrot",
	KindJulia:      "julia",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a configuration name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w %q (want one of %s)", ErrUnknownKind, s, strings.Join(kindNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// For returns the evaluator for kind. julia is only used by KindJulia;
// unknown kinds evaluate as Mandelbrot.
func For(kind Kind, julia complex128) Func {
	switch kind {
	case KindJulia:
		return Julia(julia)
	default:
		return Mandelbrot
	}
}
