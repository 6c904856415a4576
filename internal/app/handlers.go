package app

import (
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/recera/vecremote/app/routes"
	"github.com/recera/vecremote/internal/frames"
	"github.com/recera/vecremote/internal/hub"
	"github.com/recera/vecremote/pkg/bridge"
	"github.com/recera/vecremote/pkg/server"
	"github.com/recera/vecremote/pkg/vdom"
)

func (a *App) routes() *server.Router {
	r := server.NewRouter(a.log.Named("http"))
	r.Use(a.countRequests())

	get := server.MethodGuard(http.MethodGet)
	post := server.MethodGuard(http.MethodPost)
	limit := server.RateLimit(a.cfg.Server.RateLimit, a.cfg.Server.RateBurst)

	r.AddRoute("/", a.index, get)
	r.Handle("/app.wasm", a.static("app.wasm"), get)
	r.Handle("/wasm_exec.js", a.static("wasm_exec.js"), get)

	r.AddAPIRoute("/"+string(bridge.EventKeyDown), a.key(bridge.EventKeyDown), post, limit)
	r.AddAPIRoute("/"+string(bridge.EventKeyUp), a.key(bridge.EventKeyUp), post, limit)
	r.AddAPIRoute("/"+bridge.PathUpdateVector, a.updateVector, post, limit)
	r.AddAPIRoute("/"+bridge.PathVectorImage, a.vectorImage, get)
	r.AddAPIRoute("/battery", a.battery, get)

	r.Handle("/events", a.hub, get)
	r.Handle("/metrics", a.metrics.Handler(), get)
	return r
}

func (a *App) countRequests() server.Middleware {
	return server.Hooks{
		BeforeFn: func(ctx server.Ctx) error {
			endpoint := ctx.Route()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			a.metrics.Requests.WithLabelValues(endpoint).Inc()
			return nil
		},
	}
}

func (a *App) index(ctx server.Ctx) (*vdom.VNode, error) {
	ctx.SetHeader("Cache-Control", "no-cache")
	return routes.IndexPage(routes.IndexOptions{
		Interval: a.cfg.Client.Interval,
		LogLevel: a.cfg.Client.LogLevel,
		Width:    a.cfg.Frames.Width,
		Height:   a.cfg.Frames.Height,
		Bindings: a.ctrl.Keymap().Bindings(),
	}), nil
}

func (a *App) static(name string) http.Handler {
	path := filepath.Join(a.cfg.Server.StaticDir, name)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, path)
	})
}

func (a *App) key(typ bridge.EventType) server.APIHandlerFunc {
	down := typ == bridge.EventKeyDown
	return func(ctx server.Ctx) (any, error) {
		var p bridge.KeyPayload
		if err := ctx.Bind(&p); err != nil {
			ctx.Logger().Debug("bad key payload", zap.Error(err))
			return nil, ctx.Text(http.StatusBadRequest, "invalid key payload")
		}

		a.ctrl.HandleKey(p.KeyCode, p.HasShift != 0, p.HasAlt != 0, down)
		a.metrics.KeyEvents.WithLabelValues(string(typ)).Inc()

		now := time.Now()
		state := a.ctrl.State()
		a.hub.Broadcast(hub.Event{Type: string(typ), Time: now, Key: &p})
		a.hub.Broadcast(hub.Event{Type: hub.EventState, Time: now, State: &state})
		return nil, nil
	}
}

func (a *App) updateVector(ctx server.Ctx) (any, error) {
	if a.ctrl.Update() {
		state := a.ctrl.State()
		a.hub.Broadcast(hub.Event{Type: hub.EventState, State: &state})
	}
	return nil, nil
}

// frameBoundary separates the parts of the camera stream.
const frameBoundary = "frame"

// vectorImage streams frames to plain GETs. Cache-busted requests
// (vectorImage?<millis>) come from browsers that cannot render the stream
// and get the latest frame on its own.
func (a *App) vectorImage(ctx server.Ctx) (any, error) {
	if ctx.Method() == http.MethodGet && ctx.Request().URL.RawQuery == "" {
		return nil, a.streamFrames(ctx)
	}

	frame, err := a.frames.Latest()
	if errors.Is(err, frames.ErrNoFrame) {
		return nil, ctx.Text(http.StatusNotFound, "no frame yet")
	}
	if err != nil {
		return nil, err
	}
	ctx.SetHeader("Cache-Control", "no-store")
	return nil, ctx.Blob(http.StatusOK, frame.ContentType, frame.Data)
}

// streamFrames writes every new frame as a multipart/x-mixed-replace part
// until the client goes away or the server shuts down.
func (a *App) streamFrames(ctx server.Ctx) error {
	mw := multipart.NewWriter(ctx.Writer())
	if err := mw.SetBoundary(frameBoundary); err != nil {
		return err
	}
	ctx.SetHeader("Content-Type", "multipart/x-mixed-replace; boundary="+frameBoundary)
	ctx.SetHeader("Cache-Control", "no-store")
	ctx.NoContent(http.StatusOK)

	rc := http.NewResponseController(ctx.Writer())
	done := ctx.Request().Context()
	var seq uint64
	for {
		frame, err := a.frames.Next(done, seq)
		if err != nil {
			return nil
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {frame.ContentType},
			"Content-Length": {strconv.Itoa(len(frame.Data))},
		})
		if err == nil {
			_, err = part.Write(frame.Data)
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			ctx.Logger().Debug("frame stream closed", zap.Error(err))
			return nil
		}
		seq = frame.Seq
	}
}

func (a *App) battery(ctx server.Ctx) (any, error) {
	b, err := a.ctrl.Battery()
	if err != nil {
		return nil, err
	}
	return b, nil
}
