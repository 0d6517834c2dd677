// Package tour animates the view through a list of keyframe regions.
package tour

import (
	"context"
	"math"
	"sync"
	"time"

	fractal "github.com/marben/fractal_nav"
)

const (
	DefaultDuration = 3 * time.Second
	DefaultSteps    = 60
)

// ApplyFunc writes one animation step. It must return promptly once ctx is
// done; a non-nil error stops the tour.
type ApplyFunc func(ctx context.Context, r fractal.Region) error

// Option configures an Engine.
type Option func(*Engine)

// WithDuration sets the time spent between two consecutive keyframes.
func WithDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.duration = d
		}
	}
}

// WithSteps sets the number of interpolation steps per keyframe pair.
func WithSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.steps = n
		}
	}
}

// Engine runs at most one tour at a time. It is Idle until Start succeeds,
// Running while animating, and Idle again once the last keyframe is reached
// or the tour is stopped.
type Engine struct {
	duration time.Duration
	steps    int

	m       sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New returns an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		duration: DefaultDuration,
		steps:    DefaultSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Running reports whether a tour is in progress.
func (e *Engine) Running() bool {
	e.m.Lock()
	defer e.m.Unlock()
	return e.running
}

// Done returns a channel closed when the most recently started tour ends.
// It is nil before the first Start.
func (e *Engine) Done() <-chan struct{} {
	e.m.Lock()
	defer e.m.Unlock()
	return e.done
}

// Start animates through keyframes, calling apply for every step. Any running
// tour is stopped first. Start is a no-op returning false for fewer than two
// keyframes.
func (e *Engine) Start(ctx context.Context, keyframes []fractal.Region, apply ApplyFunc) bool {
	if len(keyframes) < 2 {
		return false
	}
	kf := append([]fractal.Region(nil), keyframes...)

	e.Stop()

	e.m.Lock()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.running = true
	e.cancel = cancel
	e.done = done
	e.m.Unlock()

	fractal.Logger().Info("tour: started", "keyframes", len(kf), "duration", e.duration, "steps", e.steps)
	go e.run(ctx, kf, apply, done)
	return true
}

// Stop cancels the running tour and waits until it can no longer call apply.
func (e *Engine) Stop() {
	e.m.Lock()
	cancel, done := e.cancel, e.done
	e.m.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (e *Engine) run(ctx context.Context, kf []fractal.Region, apply ApplyFunc, done chan struct{}) {
	defer close(done)
	defer func() {
		e.m.Lock()
		if e.done == done {
			e.running = false
			e.cancel()
			e.cancel = nil
		}
		e.m.Unlock()
	}()

	interval := e.duration / time.Duration(e.steps)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	last := len(kf) - 2
	for i := 0; i <= last; i++ {
		from, to := kf[i], kf[i+1]
		// Later legs start where the previous one ended.
		first := 0
		if i > 0 {
			first = 1
		}
		for step := first; step <= e.steps; step++ {
			t := EaseInOutCubic(float64(step) / float64(e.steps))
			if err := apply(ctx, from.Lerp(to, t)); err != nil {
				fractal.Logger().Info("tour: stopped", "err", err)
				return
			}
			if i == last && step == e.steps {
				break
			}
			timer.Reset(interval)
			select {
			case <-ctx.Done():
				fractal.Logger().Info("tour: cancelled")
				return
			case <-timer.C:
			}
		}
	}
	fractal.Logger().Info("tour: finished")
}

// EaseInOutCubic maps t in [0, 1] onto a cubic ease-in/ease-out curve.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
