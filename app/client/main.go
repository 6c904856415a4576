//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"strconv"
	"syscall/js"
	"time"

	"go.uber.org/zap"

	"github.com/recera/vecremote/internal/logging"
	"github.com/recera/vecremote/pkg/bridge"
)

func main() {
	log := logging.NewConsole(rootAttr("data-log-level", "info")).Named("client")
	log.Info("vecremote client starting")

	base, err := bridge.BaseURL()
	if err != nil {
		log.Error("resolve base url", zap.Error(err))
		return
	}

	sender := bridge.NewHTTPSender(base, bridge.WithSenderLogger(log.Logger))
	cfg := bridge.DefaultConfig()
	if ms, err := strconv.Atoi(rootAttr("data-tick-ms", "")); err == nil && ms > 0 {
		cfg.Interval = time.Duration(ms) * time.Millisecond
	}
	b := bridge.New(cfg, bridge.UserAgent(), bridge.NewDOMPage(), sender,
		bridge.WithLogger(log.Logger),
	)

	if _, err := bridge.Listen(b); err != nil {
		log.Error("install key listeners", zap.Error(err))
	}
	bridge.ExportClear(b, "vecremoteClear")

	// Run never returns: the page owns the lifetime.
	if err := b.Run(context.Background()); err != nil {
		log.Error("refresh loop stopped", zap.Error(err))
	}
}

// rootAttr reads an attribute of the <html> element the server rendered.
func rootAttr(name, fallback string) string {
	root := js.Global().Get("document").Get("documentElement")
	v := root.Call("getAttribute", name)
	if v.IsNull() || v.IsUndefined() {
		return fallback
	}
	return v.String()
}
