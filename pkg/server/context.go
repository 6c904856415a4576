package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrStop is a sentinel error used by middleware to stop the chain
	ErrStop = errors.New("vecremote: stop middleware chain")
)

// maxBodyBytes bounds request bodies read by Bind.
const maxBodyBytes = 1 << 20

// Stop returns the sentinel error to halt middleware chain execution
func Stop() error {
	return ErrStop
}

// Ctx is the canonical interface passed through routing, middleware, and handlers
type Ctx interface {
	// === Request ===
	Request() *http.Request  // raw request pointer (read-only)
	Path() string            // path without query string
	Route() string           // matched route pattern, empty when unmatched
	Method() string          // GET, POST, etc.
	Query() url.Values       // parsed query params
	Param(key string) string // route param, panics if missing
	Bind(v any) error        // decode a JSON body into v

	// === Response ===
	Writer() http.ResponseWriter     // underlying writer, for mounted handlers
	Status(code int)                 // set HTTP status (default 200)
	StatusCode() int                 // current status
	Header() http.Header             // writeable headers
	SetHeader(key, val string)       // convenience
	Redirect(url string, code int)   // sets 30x + Location header
	JSON(code int, v any) error      // serialise & write JSON
	Text(code int, msg string) error // write text/plain
	Blob(code int, contentType string, data []byte) error
	NoContent(code int)
	Written() bool

	// === Internal ===
	Done() <-chan struct{} // request cancellation
	Logger() *zap.Logger   // request scoped logger
}

// ctxImpl is the internal implementation of Ctx
type ctxImpl struct {
	req           *http.Request
	w             http.ResponseWriter
	route         string
	params        map[string]string
	statusCode    int
	logger        *zap.Logger
	headerWritten bool
	mu            sync.RWMutex
}

// NewContext creates a new context for handling a request
func NewContext(w http.ResponseWriter, r *http.Request, logger *zap.Logger) Ctx {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ctxImpl{
		req:        r,
		w:          w,
		params:     make(map[string]string),
		statusCode: http.StatusOK,
		logger: logger.With(
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		),
	}
}

// WithParams returns ctx with the matched route pattern and parameters set
func WithParams(ctx Ctx, route string, params map[string]string) Ctx {
	if impl, ok := ctx.(*ctxImpl); ok {
		impl.mu.Lock()
		impl.route = route
		impl.params = params
		impl.mu.Unlock()
	}
	return ctx
}

// === Request Methods ===

func (c *ctxImpl) Request() *http.Request {
	return c.req
}

func (c *ctxImpl) Path() string {
	return c.req.URL.Path
}

func (c *ctxImpl) Route() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.route
}

func (c *ctxImpl) Method() string {
	return c.req.Method
}

func (c *ctxImpl) Query() url.Values {
	return c.req.URL.Query()
}

func (c *ctxImpl) Param(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.params[key]
	if !ok {
		panic("vecremote: route parameter '" + key + "' not found")
	}
	return val
}

func (c *ctxImpl) Bind(v any) error {
	if c.req.Body == nil {
		return fmt.Errorf("bind: %w", io.EOF)
	}
	dec := json.NewDecoder(io.LimitReader(c.req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	return nil
}

// === Response Methods ===

func (c *ctxImpl) Writer() http.ResponseWriter {
	return c.w
}

func (c *ctxImpl) Status(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.headerWritten {
		c.logger.Warn("attempted to set status after headers written", zap.Int("code", code))
		return
	}
	c.statusCode = code
}

func (c *ctxImpl) StatusCode() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusCode
}

func (c *ctxImpl) Header() http.Header {
	return c.w.Header()
}

func (c *ctxImpl) SetHeader(key, val string) {
	c.w.Header().Set(key, val)
}

func (c *ctxImpl) Redirect(url string, code int) {
	c.markWritten(code)
	http.Redirect(c.w, c.req, url, code)
}

func (c *ctxImpl) JSON(code int, v any) error {
	c.markWritten(code)

	c.w.Header().Set("Content-Type", "application/json")
	c.w.WriteHeader(code)

	encoder := json.NewEncoder(c.w)
	return encoder.Encode(v)
}

func (c *ctxImpl) Text(code int, msg string) error {
	return c.Blob(code, "text/plain; charset=utf-8", []byte(msg))
}

func (c *ctxImpl) Blob(code int, contentType string, data []byte) error {
	c.markWritten(code)

	c.w.Header().Set("Content-Type", contentType)
	c.w.WriteHeader(code)

	_, err := c.w.Write(data)
	return err
}

func (c *ctxImpl) NoContent(code int) {
	c.markWritten(code)
	c.w.WriteHeader(code)
}

func (c *ctxImpl) Written() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headerWritten
}

func (c *ctxImpl) markWritten(code int) {
	c.mu.Lock()
	c.statusCode = code
	c.headerWritten = true
	c.mu.Unlock()
}

func (c *ctxImpl) Done() <-chan struct{} {
	return c.req.Context().Done()
}

func (c *ctxImpl) Logger() *zap.Logger {
	return c.logger
}
