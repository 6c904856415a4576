// Package bridge forwards keyboard input to the control server and keeps
// the camera image fresh. The logic here is platform independent; the
// syscall/js adapters live in the *_wasm.go files.
package bridge

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Page is the slice of the hosting document the bridge mutates.
type Page interface {
	// ShowWarning makes the flagged-browser warning visible
	ShowWarning() error
	// SetImageSource points the camera image at src
	SetImageSource(src string) error
	// ClearText empties the camera element's text content
	ClearText() error
}

// Sender dispatches a POST without waiting for the outcome. A nil body
// sends an empty request.
type Sender interface {
	Send(path string, body any)
}

// Bridge holds the per-page state shared by the tick loop and the key
// handlers. Build one with New at startup.
type Bridge struct {
	cfg    Config
	page   Page
	sender Sender
	log    *zap.Logger
	now    func() time.Time

	flagged bool

	// skipFrame is only touched from Tick
	skipFrame bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithClock overrides time.Now for the cache-busting timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// New classifies the browser once and, for flagged browsers, reveals the
// warning element.
func New(cfg Config, userAgent string, page Page, sender Sender, opts ...Option) *Bridge {
	b := &Bridge{
		cfg:    cfg.withDefaults(),
		page:   page,
		sender: sender,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.flagged = b.cfg.Detect(userAgent)
	if b.flagged {
		b.log.Info("flagged browser, throttling image refresh", zap.String("userAgent", userAgent))
		if err := b.page.ShowWarning(); err != nil {
			b.log.Error("show warning", zap.Error(err))
		}
	}
	return b
}

// Flagged reports the browser classification computed by New.
func (b *Bridge) Flagged() bool {
	return b.flagged
}

// Tick runs one refresh step. Flagged browsers get a fresh image on every
// other tick; the update ping goes out on every tick.
func (b *Bridge) Tick() {
	if b.flagged && !b.skipFrame {
		b.skipFrame = true
		src := b.cfg.ImagePath + "?" + strconv.FormatInt(b.now().UnixMilli(), 10)
		if err := b.page.SetImageSource(src); err != nil {
			b.log.Error("refresh image", zap.Error(err))
		}
	} else if b.skipFrame {
		b.skipFrame = false
	}

	b.sender.Send(b.cfg.UpdatePath, nil)
}

// Run ticks every Config.Interval until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	b.log.Debug("refresh loop started", zap.Duration("interval", b.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Tick()
		}
	}
}

// HandleKey forwards a key event to the endpoint named after its type.
func (b *Bridge) HandleKey(ev KeyEvent) {
	payload := ev.Payload()
	b.log.Debug("key event",
		zap.String("type", string(ev.Type)),
		zap.Int("keyCode", payload.KeyCode),
	)
	b.sender.Send(string(ev.Type), payload)
}

// ClearDisplay empties the camera element's text. Safe to call repeatedly.
func (b *Bridge) ClearDisplay() error {
	return b.page.ClearText()
}
