//go:build js && wasm

// Command webclient is the browser side of the fractal explorer. It forwards
// mouse and keyboard input to the server as session events and paints the
// frames it gets back.
//
// Build it with
//
//	GOOS=js GOARCH=wasm go build -o static/main.wasm ./cmd/webclient
//	cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" static/
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"syscall/js"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/session"
)

// serverMsg is any JSON message sent by the server; Type selects the fields
// that are set.
type serverMsg struct {
	Type    string         `json:"type"`
	Region  fractal.Region `json:"region"`
	MaxIter int            `json:"maxIter"`
	Preview bool           `json:"preview"`
	Status  session.Status `json:"status"`
}

// pointer tracks the mouse between down and up.
type pointer struct {
	down      bool
	selecting bool
	x0, y0    float64
}

type webClient struct {
	events chan session.Event

	m     sync.Mutex
	last  *image.RGBA
	mouse pointer
}

// main connects to the server, installs input handlers and paints frames
// until the socket closes.
func main() {
	logScreenf("Starting WASM web client...")

	loc := js.Global().Get("window").Get("location")
	host := loc.Get("host").String()
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + host + "/ws"

	logScreenf("Connecting to fractal server at %s...", websocketUrl)
	conn := newWSConn(js.Global().Get("WebSocket").New(websocketUrl))

	wc := &webClient{events: make(chan session.Event, 64)}
	go wc.sendLoop(conn)

	canvas := canvasElement()
	wc.emit(session.Event{
		Type:   session.EventResize,
		Width:  canvas.Get("width").Int(),
		Height: canvas.Get("height").Int(),
	})
	wc.installHandlers(canvas)

	if err := wc.readLoop(conn); err != nil {
		logFatalf("readLoop: %v", err)
	}
	logScreenf("connection closed")
	select {}
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}

// emit queues ev without blocking, so it is safe to call from JS callbacks.
func (wc *webClient) emit(ev session.Event) {
	select {
	case wc.events <- ev:
	default:
		logScreenf("event queue full, dropped %s", ev.Type)
	}
}

func (wc *webClient) sendLoop(conn *wsConn) {
	for ev := range wc.events {
		if err := conn.Send(ev); err != nil {
			logScreenf("send %s: %v", ev.Type, err)
			return
		}
	}
}

// readLoop paints binary frames and applies JSON messages to the HUD.
func (wc *webClient) readLoop(conn *wsConn) error {
	for {
		m, err := conn.Read()
		if err != nil {
			return nil
		}
		if m.binary {
			img, err := decodeFrame(m.data)
			if err != nil {
				logScreenf("frame: %v", err)
				continue
			}
			wc.m.Lock()
			wc.last = img
			selecting := wc.mouse.selecting
			wc.m.Unlock()
			if !selecting {
				displayImage(img)
			}
			continue
		}

		var msg serverMsg
		if err := json.Unmarshal(m.data, &msg); err != nil {
			return fmt.Errorf("json.Unmarshal: %w", err)
		}
		switch msg.Type {
		case "frame":
			hudSetText("iter", fmt.Sprint(msg.MaxIter))
		case "status":
			hudSetStatus(msg.Status)
		}
	}
}

func (wc *webClient) installHandlers(canvas js.Value) {
	on := func(target js.Value, event string, fn func(e js.Value)) {
		target.Call("addEventListener", event, js.FuncOf(func(this js.Value, args []js.Value) any {
			fn(args[0])
			return nil
		}), map[string]any{"passive": false})
	}
	doc := js.Global().Get("document")
	byID := func(id string) js.Value { return doc.Call("getElementById", id) }

	on(canvas, "mousedown", func(e js.Value) {
		x, y := e.Get("offsetX").Float(), e.Get("offsetY").Float()
		wc.m.Lock()
		wc.mouse = pointer{down: true, selecting: e.Get("shiftKey").Bool(), x0: x, y0: y}
		selecting := wc.mouse.selecting
		wc.m.Unlock()
		if !selecting {
			wc.emit(session.Event{Type: session.EventDragStart, X: x, Y: y})
		}
	})
	on(canvas, "mousemove", func(e js.Value) {
		x, y := e.Get("offsetX").Float(), e.Get("offsetY").Float()
		wc.m.Lock()
		p, last := wc.mouse, wc.last
		wc.m.Unlock()
		switch {
		case !p.down:
		case p.selecting:
			drawSelection(last, p.x0, p.y0, x, y)
		default:
			wc.emit(session.Event{Type: session.EventDragMove, X: x, Y: y})
		}
	})
	release := func(e js.Value) {
		x, y := e.Get("offsetX").Float(), e.Get("offsetY").Float()
		wc.m.Lock()
		p, last := wc.mouse, wc.last
		wc.mouse = pointer{}
		wc.m.Unlock()
		switch {
		case !p.down:
		case p.selecting:
			if last != nil {
				displayImage(last)
			}
			if math.Abs(x-p.x0) >= 1 && math.Abs(y-p.y0) >= 1 {
				wc.emit(session.Event{Type: session.EventSelect, X: p.x0, Y: p.y0, X2: x, Y2: y})
			}
		default:
			wc.emit(session.Event{Type: session.EventDragEnd})
		}
	}
	on(canvas, "mouseup", release)
	on(canvas, "mouseleave", release)
	on(canvas, "wheel", func(e js.Value) {
		e.Call("preventDefault")
		if e.Get("deltaY").Float() < 0 {
			wc.emit(session.Event{Type: session.EventZoomIn})
		} else {
			wc.emit(session.Event{Type: session.EventZoomOut})
		}
	})

	keys := map[string]session.EventType{
		"u": session.EventUndo,
		"r": session.EventReset,
		"k": session.EventAddKeyframe,
		"t": session.EventStartTour,
		"s": session.EventStopTour,
		"+": session.EventZoomIn,
		"-": session.EventZoomOut,
	}
	on(doc, "keydown", func(e js.Value) {
		if t, ok := keys[e.Get("key").String()]; ok {
			wc.emit(session.Event{Type: t})
		}
	})

	for _, t := range []session.EventType{
		session.EventZoomIn, session.EventZoomOut, session.EventUndo, session.EventReset,
		session.EventAddKeyframe, session.EventClearKeyframes, session.EventStartTour, session.EventStopTour,
	} {
		on(byID(string(t)), "click", func(js.Value) { wc.emit(session.Event{Type: t}) })
	}
	on(byID("addLandmark"), "click", func(js.Value) {
		wc.emit(session.Event{Type: session.EventAddLandmark, Name: byID("landmark").Get("value").String()})
	})
	on(byID("fractal"), "change", func(e js.Value) {
		wc.emit(session.Event{Type: session.EventSetFractal, Name: e.Get("target").Get("value").String()})
	})
	on(byID("scheme"), "change", func(e js.Value) {
		wc.emit(session.Event{Type: session.EventSetScheme, Name: e.Get("target").Get("value").String()})
	})
}

func hudSetText(id, text string) {
	js.Global().Get("document").Call("getElementById", id).Set("textContent", text)
}

// hudSetStatus shows the session status next to the canvas.
func hudSetStatus(st session.Status) {
	hudSetText("re", fmt.Sprintf("[%.10g, %.10g]", st.Region.Xmin, st.Region.Xmax))
	hudSetText("im", fmt.Sprintf("[%.10g, %.10g]", st.Region.Ymin, st.Region.Ymax))
	hudSetText("iter", fmt.Sprint(st.MaxIter))
	hudSetText("history", fmt.Sprint(st.History))
	hudSetText("keyframes", fmt.Sprint(st.Keyframes))
	if st.TourRunning {
		hudSetText("tour", "touring")
	} else {
		hudSetText("tour", "")
	}
	hudSetText("error", st.Err)
}
