//go:build !js || !wasm
// +build !js !wasm

package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsole returns a development logger on stderr outside the browser.
func NewConsole(level string) *Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(true)),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return &Logger{Logger: zap.New(core)}
}
