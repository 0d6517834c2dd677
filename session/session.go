// Package session runs the single owner loop of an interactive fractal view.
//
// All view mutations (input events, tour steps) are applied by Run on one
// goroutine. Renders run in the background on a snapshot of the view, and
// finished frames come back through the loop before they reach the surface.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/config"
	"github.com/marben/fractal_nav/escape"
	"github.com/marben/fractal_nav/palette"
	"github.com/marben/fractal_nav/render"
	"github.com/marben/fractal_nav/tour"
	"github.com/marben/fractal_nav/view"
)

// ErrClosed is returned by Send after Run has returned.
var ErrClosed = errors.New("session closed")

// ErrUnknownEvent is reported for an event with an unrecognized type.
var ErrUnknownEvent = errors.New("unknown event")

// Status is a read-only view of the session state for status displays.
type Status struct {
	Region      fractal.Region `json:"region"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Kind        escape.Kind    `json:"fractal"`
	Scheme      palette.Scheme `json:"scheme"`
	JuliaRe     float64        `json:"juliaRe"`
	JuliaIm     float64        `json:"juliaIm"`
	MaxIter     int            `json:"maxIter"`
	TourRunning bool           `json:"tourRunning"`
	History     int            `json:"history"`
	Keyframes   int            `json:"keyframes"`
	Err         string         `json:"error,omitempty"`
}

type tourStep struct {
	gen    uint64
	region fractal.Region
	done   bool
}

// Session binds a Navigator, a tour Engine and a render Scheduler to a
// Surface.
type Session struct {
	surface fractal.Surface
	box     *mailbox
	sched   *render.Scheduler
	nav     *view.Navigator
	tour    *tour.Engine

	kind   escape.Kind
	scheme palette.Scheme
	julia  complex128

	tourGen     uint64
	tourRunning bool
	maxIter     int
	lastErr     error

	events chan Event
	steps  chan tourStep
	closed chan struct{}

	statusM sync.Mutex
	status  Status
}

// New returns a session configured by cfg that presents frames to surface.
func New(surface fractal.Surface, cfg config.Config) *Session {
	box := newMailbox()
	s := &Session{
		surface: surface,
		box:     box,
		sched:   render.New(box, render.WithWorkers(cfg.Workers)),
		nav: view.New(
			view.WithSize(float64(cfg.Width), float64(cfg.Height)),
			view.WithZoomFactor(cfg.ZoomFactor),
			view.WithHistoryCap(cfg.History),
		),
		tour: tour.New(
			tour.WithDuration(cfg.Tour.Duration),
			tour.WithSteps(cfg.Tour.Steps),
		),
		kind:   cfg.Kind(),
		scheme: cfg.ColorScheme(),
		julia:  cfg.JuliaConstant(),
		events: make(chan Event, 64),
		steps:  make(chan tourStep),
		closed: make(chan struct{}),
	}
	s.updateStatus()
	return s
}

// Send queues ev for the owner loop.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the state as of the last handled event.
func (s *Session) Status() Status {
	s.statusM.Lock()
	defer s.statusM.Unlock()
	return s.status
}

// Run is the owner loop. It renders the initial view, then applies events
// until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer s.tour.Stop()
	defer s.sched.Cancel()
	defer close(s.closed)

	log := fractal.Logger()
	log.Info("session: started", "region", s.nav.Region(), "fractal", s.kind, "scheme", s.scheme)
	s.render(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("session: stopped", "cause", context.Cause(ctx))
			return nil
		case ev := <-s.events:
			changed, err := s.handle(ctx, ev)
			s.lastErr = err
			if err != nil {
				log.Warn("session: event rejected", "type", ev.Type, "err", err)
			}
			if changed {
				s.render(ctx)
			}
			s.updateStatus()
		case st := <-s.steps:
			s.step(ctx, st)
		case <-s.box.ready:
			s.present()
		}
	}
}

// handle applies ev and reports whether the view needs a new render.
func (s *Session) handle(ctx context.Context, ev Event) (bool, error) {
	if ev.navigates() && s.tourRunning {
		s.stopTour()
	}

	switch ev.Type {
	case EventResize:
		if err := s.nav.Resize(float64(ev.Width), float64(ev.Height)); err != nil {
			return false, err
		}
	case EventDragStart:
		s.nav.DragStart(ev.X, ev.Y)
		return false, nil
	case EventDragMove:
		if !s.nav.Dragging() {
			return false, nil
		}
		s.nav.DragMove(ev.X, ev.Y)
	case EventDragEnd:
		s.nav.DragEnd()
	case EventSelect:
		if err := s.nav.SelectRect(ev.X, ev.Y, ev.X2, ev.Y2); err != nil {
			return false, err
		}
	case EventZoomIn:
		s.nav.ZoomIn()
	case EventZoomOut:
		s.nav.ZoomOut()
	case EventReset:
		s.nav.Reset()
	case EventUndo:
		return s.nav.Undo(), nil
	case EventSetFractal:
		k, err := escape.ParseKind(ev.Name)
		if err != nil {
			return false, err
		}
		s.kind = k
	case EventSetScheme:
		sc, err := palette.ParseScheme(ev.Name)
		if err != nil {
			return false, err
		}
		s.scheme = sc
	case EventSetJulia:
		s.julia = complex(ev.Re, ev.Im)
		return s.kind == escape.KindJulia, nil
	case EventAddKeyframe:
		s.nav.AddKeyframe()
		return false, nil
	case EventAddLandmark:
		r, ok := fractal.Landmark(ev.Name)
		if !ok {
			return false, fmt.Errorf("unknown landmark %q", ev.Name)
		}
		return false, s.nav.AppendKeyframe(r)
	case EventClearKeyframes:
		s.nav.ClearKeyframes()
		return false, nil
	case EventStartTour:
		s.startTour(ctx)
		return false, nil
	case EventStopTour:
		s.stopTour()
		return false, nil
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownEvent, ev.Type)
	}
	return true, nil
}

func (s *Session) startTour(ctx context.Context) {
	kf := s.nav.Keyframes()
	s.tourGen++
	gen := s.tourGen

	apply := func(ctx context.Context, r fractal.Region) error {
		select {
		case s.steps <- tourStep{gen: gen, region: r}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-s.closed:
			return ErrClosed
		}
	}
	if !s.tour.Start(ctx, kf, apply) {
		fractal.Logger().Info("session: tour needs two keyframes", "keyframes", len(kf))
		return
	}
	s.tourRunning = true

	done := s.tour.Done()
	go func() {
		<-done
		select {
		case s.steps <- tourStep{gen: gen, done: true}:
		case <-s.closed:
		}
	}()
}

func (s *Session) stopTour() {
	s.tourGen++
	s.tourRunning = false
	s.tour.Stop()
}

// step applies a tour step unless it belongs to a tour that was stopped or
// replaced.
func (s *Session) step(ctx context.Context, st tourStep) {
	if st.gen != s.tourGen {
		return
	}
	if st.done {
		s.tourRunning = false
		s.updateStatus()
		return
	}
	if err := s.nav.SetRegion(st.region); err != nil {
		fractal.Logger().Warn("session: tour step rejected", "region", st.region, "err", err)
		return
	}
	s.render(ctx)
	s.updateStatus()
}

func (s *Session) render(ctx context.Context) {
	p := s.nav.Plane()
	req := render.Request{
		Region:  p.Region(),
		Width:   int(p.Width),
		Height:  int(p.Height),
		Kind:    s.kind,
		Julia:   s.julia,
		Scheme:  s.scheme,
		Preview: s.nav.Dragging(),
	}
	if _, err := s.sched.Submit(ctx, req); err != nil {
		s.lastErr = err
		fractal.Logger().Warn("session: render request rejected", "err", err)
	}
}

// present hands the latest frame to the surface if no newer render started
// since it was published.
func (s *Session) present() {
	img, info, ok := s.box.take()
	if !ok || !s.sched.IsCurrent(info.Generation) {
		return
	}
	s.maxIter = info.MaxIter
	if s.surface != nil {
		if err := s.surface.Present(img, info); err != nil {
			fractal.Logger().Warn("session: present failed", "err", err)
		}
	}
	s.updateStatus()
}

func (s *Session) updateStatus() {
	p := s.nav.Plane()
	st := Status{
		Region:      p.Region(),
		Width:       int(p.Width),
		Height:      int(p.Height),
		Kind:        s.kind,
		Scheme:      s.scheme,
		JuliaRe:     real(s.julia),
		JuliaIm:     imag(s.julia),
		MaxIter:     s.maxIter,
		TourRunning: s.tourRunning,
		History:     s.nav.HistoryLen(),
		Keyframes:   len(s.nav.Keyframes()),
	}
	if s.lastErr != nil {
		st.Err = s.lastErr.Error()
	}
	s.statusM.Lock()
	s.status = st
	s.statusM.Unlock()
}
