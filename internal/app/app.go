// Package app wires the vecremote host: the page, the bridge endpoints, the
// event feed and the frame watcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/recera/vecremote/internal/config"
	"github.com/recera/vecremote/internal/frames"
	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/internal/metrics"
	"github.com/recera/vecremote/internal/robot"
	"github.com/recera/vecremote/pkg/server"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// App is the assembled host.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	ctrl    *robot.Controller
	frames  *frames.Store
	hub     *hub.Hub
	metrics *metrics.Metrics
	router  *server.Router
}

// New assembles the host around motors.
func New(cfg *config.Config, motors robot.Motors, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	km, err := robot.ParseKeymap(cfg.Robot.Keymap)
	if err != nil {
		return nil, fmt.Errorf("keymap: %w", err)
	}

	store, err := frames.NewStoreWithPlaceholder(cfg.Frames.Width, cfg.Frames.Height, cfg.Frames.Gradient)
	if err != nil {
		return nil, fmt.Errorf("placeholder frame: %w", err)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		frames:  store,
		metrics: metrics.New(),
	}
	a.ctrl = robot.NewController(motors,
		robot.WithKeymap(km),
		robot.WithLogger(log.Named("robot")),
		robot.WithCommandHook(a.metrics.ObserveMotor),
	)
	a.hub = hub.New(
		hub.WithLogger(log.Named("hub")),
		hub.OnCountChange(a.metrics.SetSubscribers),
		hub.WithSnapshot(func() *robot.State {
			s := a.ctrl.State()
			return &s
		}),
	)
	a.router = a.routes()
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Controller exposes the robot controller.
func (a *App) Controller() *robot.Controller {
	return a.ctrl
}

// Frames exposes the frame store.
func (a *App) Frames() *frames.Store {
	return a.frames
}

// Listen opens the configured address.
func (a *App) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.cfg.Addr(), err)
	}
	return ln, nil
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	if dir := a.cfg.Frames.Dir; dir != "" {
		w := frames.NewWatcher(dir, a.frames, a.log.Named("frames"))
		g.Go(func() error {
			// a dead watcher leaves the last frame up; it does not stop serving
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("frame watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	// requests inherit ctx so open frame streams end on shutdown
	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutting down")
		a.hub.Close()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	a.log.Info("serving",
		zap.String("addr", ln.Addr().String()),
		zap.Strings("routes", a.router.Routes()),
	)
	return g.Wait()
}
