// Package wasmbuild compiles the browser client and stages it with the Go
// runtime shim the page loads.
package wasmbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/recera/vecremote/internal/cache"
)

const (
	// DefaultPackage is the client main package
	DefaultPackage = "./app/client"
	wasmName       = "app.wasm"
	execName       = "wasm_exec.js"
)

// DefaultSources are the inputs of the client build.
var DefaultSources = []string{"app/client", "pkg/bridge", "internal/logging", "go.mod", "go.sum"}

// ErrNoWasmExec is returned when GOROOT ships no wasm_exec.js.
var ErrNoWasmExec = errors.New("wasm_exec.js not found in GOROOT")

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// Options control a build
type Options struct {
	Package  string
	Output   string
	Optimize bool
	GoBin    string
}

// Result describes the staged artefacts
type Result struct {
	WasmPath  string
	ExecPath  string
	WasmSize  int64
	GzipSize  int64
	TotalSize int64
	Cached    bool
}

// Builder runs client builds
type Builder struct {
	opts    Options
	log     *zap.Logger
	run     Runner
	cache   *cache.Cache
	sources []string
}

// Option configures a Builder
type Option func(*Builder)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(b *Builder) { b.run = r }
}

// WithCache reuses artifacts from c while the hashed sources are unchanged.
// No sources means DefaultSources.
func WithCache(c *cache.Cache, sources ...string) Option {
	return func(b *Builder) {
		b.cache = c
		if len(sources) > 0 {
			b.sources = sources
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates a builder
func New(opts Options, options ...Option) *Builder {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.Output == "" {
		opts.Output = "dist"
	}
	if opts.GoBin == "" {
		opts.GoBin = "go"
	}
	b := &Builder{opts: opts, log: zap.NewNop(), run: execRunner, sources: DefaultSources}
	for _, o := range options {
		o(b)
	}
	return b
}

// Build compiles the client into Output/app.wasm and copies wasm_exec.js
// next to it.
func (b *Builder) Build(ctx context.Context) (Result, error) {
	out := b.opts.Output
	if err := os.MkdirAll(out, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := Result{
		WasmPath: filepath.Join(out, wasmName),
		ExecPath: filepath.Join(out, execName),
	}

	goroot, err := b.run(ctx, os.Environ(), b.opts.GoBin, "env", "GOROOT")
	if err != nil {
		return Result{}, fmt.Errorf("go env GOROOT: %w", err)
	}
	root := strings.TrimSpace(string(goroot))

	key, err := b.cacheKey(root)
	if err != nil {
		return Result{}, err
	}
	if key != "" {
		if data, ok := b.cache.Get(key); ok {
			if err := os.WriteFile(res.WasmPath, data, 0o644); err != nil {
				return Result{}, fmt.Errorf("failed to restore cached build: %w", err)
			}
			res.Cached = true
			b.log.Info("client unchanged, reusing cached build", zap.String("key", key[:12]))
		}
	}

	if !res.Cached {
		if err := b.compile(ctx, res.WasmPath); err != nil {
			return Result{}, err
		}
		if key != "" {
			if data, err := os.ReadFile(res.WasmPath); err == nil {
				if err := b.cache.Put(key, data); err != nil {
					b.log.Warn("cache build", zap.Error(err))
				}
			}
		}
	}

	src, err := FindWasmExec(root)
	if err != nil {
		return Result{}, err
	}
	if err := copyFile(src, res.ExecPath); err != nil {
		return Result{}, fmt.Errorf("failed to copy %s: %w", execName, err)
	}

	if err := res.measure(out); err != nil {
		return Result{}, err
	}
	b.log.Info("client built",
		zap.String("wasm", FormatSize(res.WasmSize)),
		zap.String("gzip", FormatSize(res.GzipSize)),
		zap.String("total", FormatSize(res.TotalSize)),
		zap.String("output", out),
	)
	return res, nil
}

func (b *Builder) compile(ctx context.Context, wasmPath string) error {
	args := []string{"build", "-o", wasmPath}
	if b.opts.Optimize {
		args = append(args, "-trimpath", "-ldflags=-s -w")
	}
	args = append(args, b.opts.Package)

	b.log.Info("building client", zap.String("package", b.opts.Package), zap.Bool("optimize", b.opts.Optimize))
	env := append(os.Environ(), "GOOS=js", "GOARCH=wasm")
	if output, err := b.run(ctx, env, b.opts.GoBin, args...); err != nil {
		return fmt.Errorf("go build failed: %w\nOutput: %s", err, output)
	}
	return nil
}

// cacheKey is empty when caching is off.
func (b *Builder) cacheKey(goroot string) (string, error) {
	if b.cache == nil {
		return "", nil
	}
	sources, err := cache.KeyFromSources(b.sources...)
	if err != nil {
		return "", fmt.Errorf("hash client sources: %w", err)
	}
	return cache.Key(sources, goroot, b.opts.Package, fmt.Sprint(b.opts.Optimize)), nil
}

// FindWasmExec locates wasm_exec.js under goroot. Go 1.24 moved it from
// misc/wasm to lib/wasm.
func FindWasmExec(goroot string) (string, error) {
	if goroot == "" {
		return "", ErrNoWasmExec
	}
	for _, dir := range []string{"lib/wasm", "misc/wasm"} {
		p := filepath.Join(goroot, dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoWasmExec, goroot)
}

func (r *Result) measure(out string) error {
	data, err := os.ReadFile(r.WasmPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", wasmName, err)
	}
	r.WasmSize = int64(len(data))
	r.GzipSize, err = GzipSize(data)
	if err != nil {
		return err
	}

	return filepath.Walk(out, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			r.TotalSize += info.Size()
		}
		return nil
	})
}

// GzipSize returns the compressed size of data at best compression.
func GzipSize(data []byte) (int64, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := gz.Write(data); err != nil {
		return 0, err
	}
	if err := gz.Close(); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// FormatSize renders a byte count in binary units.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	return cmd.CombinedOutput()
}
