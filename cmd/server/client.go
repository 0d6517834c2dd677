package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/config"
	"github.com/marben/fractal_nav/overlay"
	"github.com/marben/fractal_nav/session"
)

const (
	writeTimeout   = 5 * time.Second
	statusInterval = 250 * time.Millisecond
)

// frameMsg follows every binary PNG message and describes it.
type frameMsg struct {
	Type    string         `json:"type"`
	Region  fractal.Region `json:"region"`
	Fractal string         `json:"fractal"`
	Scheme  string         `json:"scheme"`
	MaxIter int            `json:"maxIter"`
	Preview bool           `json:"preview"`
}

// statusMsg is pushed whenever the session status changes.
type statusMsg struct {
	Type   string         `json:"type"`
	Status session.Status `json:"status"`
}

// client is one websocket connection and the session it drives. It is the
// session's Surface: Present only parks the frame, writeLoop encodes and
// sends it, so a slow peer never holds up the session loop.
type client struct {
	conn    *websocket.Conn
	overlay config.Overlay
	sess    *session.Session
	enc     png.Encoder

	m     sync.Mutex
	img   *image.RGBA
	info  fractal.FrameInfo
	ready chan struct{}
}

func newClient(conn *websocket.Conn, cfg config.Config) *client {
	c := &client{
		conn:    conn,
		overlay: cfg.Overlay,
		enc:     png.Encoder{CompressionLevel: png.BestSpeed},
		ready:   make(chan struct{}, 1),
	}
	c.sess = session.New(c, cfg)
	return c
}

// serve runs the session and feeds it events read from the connection. It
// returns nil when the peer closes the connection or ctx is done.
func (c *client) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- c.sess.Run(ctx)
	}()
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writeLoop(ctx)
		cancel() // a peer that cannot take frames is done
	}()
	go c.statusLoop(ctx)

	err := c.readLoop(ctx)
	cancel()
	<-writeDone
	if runErr := <-runDone; runErr != nil {
		return fmt.Errorf("session: %w", runErr)
	}
	return err
}

func (c *client) readLoop(ctx context.Context) error {
	for {
		var ev session.Event
		if err := wsjson.Read(ctx, c.conn, &ev); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if err := c.sess.Send(ctx, ev); err != nil {
			if errors.Is(err, session.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send event: %w", err)
		}
	}
}

// statusLoop pushes the session status to the browser when it changes.
func (c *client) statusLoop(ctx context.Context) {
	t := time.NewTicker(statusInterval)
	defer t.Stop()

	var last session.Status
	for first := true; ; first = false {
		if st := c.sess.Status(); first || st != last {
			last = st
			if err := c.writeJSON(ctx, statusMsg{Type: "status", Status: st}); err != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Present implements fractal.Surface. It replaces any frame that has not
// been written yet and never blocks.
func (c *client) Present(img *image.RGBA, info fractal.FrameInfo) error {
	c.m.Lock()
	c.img, c.info = img, info
	c.m.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
	return nil
}

func (c *client) take() (*image.RGBA, fractal.FrameInfo, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	img, info := c.img, c.info
	c.img = nil
	return img, info, img != nil
}

// writeLoop sends parked frames until ctx is done or a write fails.
func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ready:
		}
		img, info, ok := c.take()
		if !ok {
			continue
		}
		if err := c.writeFrame(ctx, img, info); err != nil {
			if ctx.Err() == nil {
				log.Printf("write frame: %v", err)
			}
			return
		}
	}
}

func (c *client) writeFrame(ctx context.Context, img *image.RGBA, info fractal.FrameInfo) error {
	if c.overlay.Axes {
		if err := overlay.DrawAxes(img, info.Region); err != nil {
			return err
		}
	}
	if c.overlay.Status {
		overlay.DrawStatus(img, overlay.StatusLines(info)...)
	}

	var buf bytes.Buffer
	if err := c.enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("png.Encode: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(wctx, websocket.MessageBinary, buf.Bytes()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return c.writeJSON(ctx, frameMsg{
		Type:    "frame",
		Region:  info.Region,
		Fractal: info.Kind.String(),
		Scheme:  info.Scheme.String(),
		MaxIter: info.MaxIter,
		Preview: info.Preview,
	})
}

func (c *client) writeJSON(ctx context.Context, v any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.conn, v)
}
