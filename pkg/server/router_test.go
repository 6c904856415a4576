package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vecremote/pkg/vdom"
)

func page(text string) HandlerFunc {
	return func(ctx Ctx) (*vdom.VNode, error) {
		return vdom.NewElement("div", nil, vdom.NewText(text)), nil
	}
}

func serve(r *Router, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Match(t *testing.T) {
	router := NewRouter(nil)
	router.AddRoute("/", page("home"))
	router.AddRoute("/battery", page("battery"))
	router.AddRoute("/frames/[seq:int]", page("frame"))
	router.AddRoute("/static/[...file]", page("static"))

	tests := []struct {
		path        string
		wantPattern string
		wantParams  map[string]string
	}{
		{"/", "/", map[string]string{}},
		{"/battery", "/battery", map[string]string{}},
		{"/frames/42", "/frames/[seq:int]", map[string]string{"seq": "42"}},
		{"/static/js/wasm_exec.js", "/static/[...file]", map[string]string{"file": "js/wasm_exec.js"}},
		{"/frames/latest", "", map[string]string{}},
		{"/notfound", "", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, pattern, params, _ := router.Match(tt.path)
			assert.Equal(t, tt.wantPattern, pattern)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestRouter_ServePage(t *testing.T) {
	router := NewRouter(nil)
	router.AddRoute("/test", page("Test Page"))

	w := serve(router, http.MethodGet, "/test", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<div>Test Page</div>", w.Body.String())
}

func TestRouter_DocumentGetsDoctype(t *testing.T) {
	router := NewRouter(nil)
	router.AddRoute("/", func(ctx Ctx) (*vdom.VNode, error) {
		return vdom.NewElement("html", nil), nil
	})

	w := serve(router, http.MethodGet, "/", "")
	assert.True(t, strings.HasPrefix(w.Body.String(), "<!DOCTYPE html>"))
}

func TestRouter_NotFound(t *testing.T) {
	router := NewRouter(nil)

	w := serve(router, http.MethodGet, "/notfound", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	router.SetNotFound(page("gone"))
	w = serve(router, http.MethodGet, "/notfound", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<div>gone</div>", w.Body.String())
}

func TestRouter_APIRoute(t *testing.T) {
	router := NewRouter(nil)
	router.AddAPIRoute("/battery", func(ctx Ctx) (any, error) {
		return map[string]float64{"volt": 3.9}, nil
	})
	router.AddAPIRoute("/keydown", func(ctx Ctx) (any, error) {
		var body struct {
			KeyCode int `json:"keyCode"`
		}
		if err := ctx.Bind(&body); err != nil {
			return nil, err
		}
		if body.KeyCode != 90 {
			return nil, errors.New("wrong key")
		}
		return nil, nil
	})

	w := serve(router, http.MethodGet, "/battery", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"volt":3.9}`, w.Body.String())

	w = serve(router, http.MethodPost, "/keydown", `{"keyCode":90}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(router, http.MethodPost, "/keydown", `not json`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_Handle(t *testing.T) {
	router := NewRouter(nil)
	router.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := serve(router, http.MethodGet, "/raw", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRouter_MethodGuard(t *testing.T) {
	router := NewRouter(nil)
	router.AddAPIRoute("/updateVector", func(ctx Ctx) (any, error) {
		return nil, nil
	}, MethodGuard(http.MethodPost))
	router.AddRoute("/", page("home"), MethodGuard(http.MethodGet))

	w := serve(router, http.MethodGet, "/updateVector", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))

	w = serve(router, http.MethodPost, "/updateVector", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodHead, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodPost, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	var calls []string
	hook := func(name string) Middleware {
		return Hooks{
			BeforeFn: func(ctx Ctx) error {
				calls = append(calls, name+".before")
				return nil
			},
			AfterFn: func(ctx Ctx) error {
				calls = append(calls, name+".after")
				return nil
			},
		}
	}

	router := NewRouter(nil)
	router.Use(hook("global"))
	router.AddRoute("/", func(ctx Ctx) (*vdom.VNode, error) {
		calls = append(calls, "handler:"+ctx.Route())
		return vdom.NewText("ok"), nil
	}, hook("route"))

	serve(router, http.MethodGet, "/", "")
	assert.Equal(t, []string{
		"global.before", "route.before", "handler:/", "route.after", "global.after",
	}, calls)
}

func TestRouter_RecoversPanics(t *testing.T) {
	router := NewRouter(nil)
	router.AddRoute("/boom", func(ctx Ctx) (*vdom.VNode, error) {
		panic("boom")
	})
	router.SetErrorPage(page("oops"))

	w := serve(router, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "<div>oops</div>", w.Body.String())
}

func TestRouter_Routes(t *testing.T) {
	router := NewRouter(nil)
	router.AddRoute("/vectorImage", page("x"))
	router.AddRoute("/", page("x"))
	router.AddAPIRoute("/keyup", func(ctx Ctx) (any, error) { return nil, nil })

	require.Equal(t, []string{"/", "/keyup", "/vectorImage"}, router.Routes())
}

func TestRouter_RateLimit(t *testing.T) {
	router := NewRouter(nil)
	limit := RateLimit(0.001, 2)
	router.AddRoute("/a", page("a"), limit)
	router.AddRoute("/b", page("b"), limit)
	router.AddRoute("/free", page("free"), RateLimit(0, 0))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/a", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/b", "").Code)

	w := serve(router, http.MethodGet, "/a", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/b", "").Code)

	for range 5 {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/free", "").Code)
	}
}
