// Command server serves an interactive fractal explorer over websockets.
//
// Every browser connection gets its own session: input events arrive as JSON
// text messages, rendered frames leave as binary PNG messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	fractal "github.com/marben/fractal_nav"
	"github.com/marben/fractal_nav/config"
)

type args struct {
	Config string `arg:"-c,--config" help:"TOML configuration file"`
	Addr   string `arg:"--addr" help:"listen address, overrides server.addr"`
	Static string `arg:"--static" help:"directory holding main.wasm and wasm_exec.js, overrides server.static"`
}

func (args) Description() string {
	return "fractal explorer server"
}

func main() {
	var a args
	arg.MustParse(&a)
	if err := run(a); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(a args) error {
	cfg, err := config.Load(a.Config)
	if err != nil {
		return err
	}
	if a.Addr != "" {
		cfg.Server.Addr = a.Addr
	}
	if a.Static != "" {
		cfg.Server.Static = a.Static
	}
	level, _ := cfg.Level()
	fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := webServer(ctx, cfg)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpServer: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.Shutdown: %w", err)
	}
	return nil
}
