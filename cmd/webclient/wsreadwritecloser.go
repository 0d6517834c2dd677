//go:build js && wasm

package main

import (
	"encoding/json"
	"io"
	"sync"
	"syscall/js"
)

// message is one websocket message; text messages carry JSON, binary ones PNG.
type message struct {
	binary bool
	data   []byte
}

// wsConn wraps a browser WebSocket with message-oriented reads and JSON
// writes.
type wsConn struct {
	ws js.Value

	mu     sync.Mutex // needed because js onClose event can preempt Send() call
	closed bool

	readCh chan message

	openCh chan struct{} // closed when connected
	err    error
}

func newWSConn(ws js.Value) *wsConn {
	c := &wsConn{
		ws:     ws,
		readCh: make(chan message, 64),
		openCh: make(chan struct{}),
	}

	ws.Set("binaryType", "arraybuffer")

	ws.Set("onopen", js.FuncOf(func(js.Value, []js.Value) any {
		close(c.openCh)
		return nil
	}))

	ws.Set("onerror", js.FuncOf(func(js.Value, []js.Value) any {
		c.mu.Lock()
		c.err = io.ErrUnexpectedEOF
		c.mu.Unlock()
		select {
		case <-c.openCh:
		default:
			close(c.openCh)
		}
		return nil
	}))

	ws.Set("onmessage", js.FuncOf(func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")
		if data.Type() == js.TypeString {
			c.deliver(message{data: []byte(data.String())})
			return nil
		}
		jsDataToBytes(data, func(b []byte) {
			c.deliver(message{binary: true, data: b})
		})
		return nil
	}))

	ws.Set("onclose", js.FuncOf(func(js.Value, []js.Value) any {
		logScreenf("ws onClose received")
		c.mu.Lock()
		if !c.closed {
			c.closed = true
			close(c.readCh)
		}
		c.mu.Unlock()
		return nil
	}))

	return c
}

func (c *wsConn) deliver(m message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.readCh <- m
	}
}

// Read returns the next message, or io.EOF once the socket is closed.
func (c *wsConn) Read() (message, error) {
	m, ok := <-c.readCh
	if !ok {
		return message{}, io.EOF
	}
	return m, nil
}

// Send writes v as a JSON text message. It blocks until the socket is open,
// so it must not be called from a JS callback.
func (c *wsConn) Send(v any) error {
	if err := c.waitOpen(); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}
	c.ws.Call("send", string(b))
	return nil
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true

	select {
	case <-c.openCh:
	default:
		close(c.openCh)
	}

	close(c.readCh)
	c.mu.Unlock()

	c.ws.Call("close")
	return nil
}

func (c *wsConn) waitOpen() error {
	<-c.openCh

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	if c.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func jsDataToBytes(data js.Value, deliver func([]byte)) {
	// Uint8Array / Uint8ClampedArray
	if data.InstanceOf(js.Global().Get("Uint8Array")) ||
		data.InstanceOf(js.Global().Get("Uint8ClampedArray")) {

		b := make([]byte, data.Get("byteLength").Int())
		js.CopyBytesToGo(b, data)
		deliver(b)
		return
	}

	// ArrayBuffer
	if data.InstanceOf(js.Global().Get("ArrayBuffer")) {
		u8 := js.Global().Get("Uint8Array").New(data)
		b := make([]byte, u8.Get("byteLength").Int())
		js.CopyBytesToGo(b, u8)
		deliver(b)
		return
	}

	// Blob -> async
	if data.InstanceOf(js.Global().Get("Blob")) {
		promise := data.Call("arrayBuffer")
		var then js.Func
		then = js.FuncOf(func(this js.Value, args []js.Value) any {
			defer then.Release()
			u8 := js.Global().Get("Uint8Array").New(args[0])
			b := make([]byte, u8.Get("byteLength").Int())
			js.CopyBytesToGo(b, u8)
			deliver(b)
			return nil
		})
		promise.Call("then", then)
		return
	}

	logScreenf("unsupported binary message type %s", data.Type())
}
