package main

import (
	"context"
	_ "embed"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/marben/fractal_nav/config"
)

//go:embed static/index.html
var indexHTML []byte

// webServer serves the explorer page at /, the wasm client from the static
// directory at /static/ and the websocket endpoint at /ws. Connections are
// closed when ctx is done.
func webServer(ctx context.Context, cfg config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(cfg))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Server.Static))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	return srv
}

// websocketHandler upgrades the request and runs a session on the connection
// until either side goes away.
func websocketHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: cfg.Server.Origins,
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		log.Printf("got connection from: %s", r.RemoteAddr)
		if err := newClient(c, cfg).serve(r.Context()); err != nil {
			log.Printf("client %s: %v", r.RemoteAddr, err)
			c.Close(websocket.StatusInternalError, "session failed")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
		log.Printf("client %s disconnected", r.RemoteAddr)
	}
}
