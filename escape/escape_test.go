package escape

import (
	"errors"
	"testing"
)

func TestMandelbrotOriginNeverEscapes(t *testing.T) {
	for _, maxIter := range []int{1, 2, 50, 200, 5000} {
		if got := Mandelbrot(0, maxIter); got != maxIter {
			t.Errorf("Mandelbrot(0, %d) = %d, want %d", maxIter, got, maxIter)
		}
	}
}

func TestMandelbrotFarPointEscapesImmediately(t *testing.T) {
	if got := Mandelbrot(complex(2, 2), 100); got > 1 {
		t.Errorf("Mandelbrot(2+2i) = %d, want <= 1", got)
	}
}

func TestMonotoneInMaxIter(t *testing.T) {
	points := []complex128{
		complex(0.3, 0.5),
		complex(-0.75, 0.1),
		complex(-1.2, 0.3),
		complex(0.26, 0),
		complex(-0.7435, 0.1314),
	}
	evals := map[string]Func{
		"mandelbrot": Mandelbrot,
		"julia":      Julia(DefaultJulia),
	}
	for name, f := range evals {
		for _, c := range points {
			prev := 0
			for maxIter := 1; maxIter <= 2048; maxIter *= 2 {
				got := f(c, maxIter)
				if got < prev {
					t.Errorf("%s(%v): maxIter %d gave %d < %d", name, c, maxIter, got, prev)
				}
				if again := f(c, maxIter); again != got {
					t.Errorf("%s(%v, %d) not stable: %d then %d", name, c, maxIter, got, again)
				}
				prev = got
			}
		}
	}
}

func TestJuliaSeedsWithPixel(t *testing.T) {
	// With k = 0 the orbit of c is c^(2^n): it escapes iff |c| > 1.
	f := Julia(0)
	if got := f(complex(0.5, 0), 100); got != 100 {
		t.Errorf("Julia(0)(0.5) = %d, want 100", got)
	}
	if got := f(complex(3, 0), 100); got != 0 {
		t.Errorf("Julia(0)(3) = %d, want 0", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"mandelbrot", KindMandelbrot},
		{"Julia", KindJulia},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseKind("burning-ship"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(burning-ship) error = %v", err)
	}
}

func BenchmarkMandelbrot(b *testing.B) {
	for b.Loop() {
		Mandelbrot(complex(-0.7435, 0.1314), 1000)
	}
}
