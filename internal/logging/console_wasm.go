//go:build js && wasm
// +build js,wasm

package logging

import (
	"strings"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleSink writes encoded entries to the browser console.
type consoleSink struct {
	console js.Value
}

func (s consoleSink) Write(p []byte) (int, error) {
	s.console.Call("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (s consoleSink) Sync() error { return nil }

// NewConsole returns a logger that writes to console.log in the browser.
func NewConsole(level string) *Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := encoderConfig(true)
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.TimeKey = zapcore.OmitKey
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		consoleSink{console: js.Global().Get("console")},
		lvl,
	)
	return &Logger{Logger: zap.New(core)}
}
