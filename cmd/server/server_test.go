package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/config"
	"github.com/marben/fractal_nav/session"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Width, cfg.Height = 48, 32
	cfg.Workers = 2
	cfg.Server.Origins = nil
	cfg.Overlay.Axes = true

	ctx, cancel := context.WithCancel(context.Background())
	ts := httptest.NewServer(webServer(ctx, cfg).Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ts
}

func TestIndex(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `id="canvas"`) {
		t.Errorf("GET / = %d, %q", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope = %d", resp.StatusCode)
	}
}

func TestPresentParksLatestFrame(t *testing.T) {
	cfg := config.Default()
	cfg.Width, cfg.Height = 8, 8
	c := newClient(nil, cfg)

	// Nothing drains the client here; Present must still return at once.
	for i, r := range []fractal.Region{fractal.DefaultRegion, fractal.SeahorseValley} {
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		if err := c.Present(img, fractal.FrameInfo{Region: r, Generation: uint64(i + 1)}); err != nil {
			t.Fatalf("Present %d: %v", i, err)
		}
	}
	if len(c.ready) != 1 {
		t.Errorf("ready signals = %d, want 1", len(c.ready))
	}
	_, info, ok := c.take()
	if !ok || info.Region != fractal.SeahorseValley || info.Generation != 2 {
		t.Errorf("take = %+v, %v, want the newest frame", info, ok)
	}
	if _, _, ok := c.take(); ok {
		t.Errorf("frame taken twice")
	}
}

// reader splits the server's message stream into frames and JSON messages.
type reader struct {
	t    *testing.T
	conn *websocket.Conn
}

func (r reader) next(ctx context.Context) (image.Image, map[string]json.RawMessage) {
	r.t.Helper()
	typ, data, err := r.conn.Read(ctx)
	if err != nil {
		r.t.Fatalf("read: %v", err)
	}
	if typ == websocket.MessageBinary {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			r.t.Fatalf("png.Decode: %v", err)
		}
		return img, nil
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.t.Fatalf("json.Unmarshal(%s): %v", data, err)
	}
	return nil, msg
}

// frameAt reads until a frame message reports region r and returns the image
// sent just before it.
func (r reader) frameAt(ctx context.Context, want fractal.Region) image.Image {
	r.t.Helper()
	var last image.Image
	for {
		img, msg := r.next(ctx)
		if img != nil {
			last = img
			continue
		}
		if string(msg["type"]) != `"frame"` {
			continue
		}
		var got fractal.Region
		if err := json.Unmarshal(msg["region"], &got); err != nil {
			r.t.Fatal(err)
		}
		if got == want {
			return last
		}
	}
}

func TestWebsocketSession(t *testing.T) {
	ts := testServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 24)
	r := reader{t: t, conn: conn}

	img := r.frameAt(ctx, fractal.DefaultRegion)
	if img == nil || img.Bounds() != image.Rect(0, 0, 48, 32) {
		t.Fatalf("initial frame = %v", img)
	}

	if err := wsjson.Write(ctx, conn, session.Event{Type: session.EventResize, Width: 64, Height: 40}); err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Write(ctx, conn, session.Event{Type: session.EventZoomIn}); err != nil {
		t.Fatal(err)
	}
	zoomed := fractal.Region{Xmin: -1.25, Xmax: 0.25, Ymin: -0.5, Ymax: 0.5}
	img = r.frameAt(ctx, zoomed)
	if img == nil || img.Bounds() != image.Rect(0, 0, 64, 40) {
		t.Fatalf("zoomed frame = %v", img)
	}

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Logf("Close: %v", err)
	}
}
