package server

import (
	"maps"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/time/rate"
)

// MethodGuard rejects requests whose method is not in methods with 405.
// HEAD is accepted wherever GET is.
func MethodGuard(methods ...string) Middleware {
	allowed := make(map[string]bool, len(methods)+1)
	for _, m := range methods {
		allowed[strings.ToUpper(m)] = true
	}
	if allowed[http.MethodGet] {
		allowed[http.MethodHead] = true
	}
	allow := strings.Join(slices.Sorted(maps.Keys(allowed)), ", ")
	return &methodGuard{allowed: allowed, allow: allow}
}

type methodGuard struct {
	allowed map[string]bool
	allow   string
}

func (g *methodGuard) Before(ctx Ctx) error {
	if g.allowed[ctx.Method()] {
		return nil
	}
	ctx.SetHeader("Allow", g.allow)
	_ = ctx.Text(http.StatusMethodNotAllowed, "Method Not Allowed")
	return ErrStop
}

func (g *methodGuard) After(Ctx) error { return nil }

// Hooks adapts plain functions to Middleware. Either may be nil.
type Hooks struct {
	BeforeFn func(ctx Ctx) error
	AfterFn  func(ctx Ctx) error
}

func (h Hooks) Before(ctx Ctx) error {
	if h.BeforeFn == nil {
		return nil
	}
	return h.BeforeFn(ctx)
}

func (h Hooks) After(ctx Ctx) error {
	if h.AfterFn == nil {
		return nil
	}
	return h.AfterFn(ctx)
}

// RateLimit rejects requests beyond limit per second (with burst) with 429.
// Every route sharing the returned middleware shares one bucket. A
// non-positive limit lets everything through.
func RateLimit(limit float64, burst int) Middleware {
	if limit <= 0 {
		return Hooks{}
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return Hooks{
		BeforeFn: func(ctx Ctx) error {
			if limiter.Allow() {
				return nil
			}
			ctx.Logger().Debug("rate limit exceeded")
			_ = ctx.Text(http.StatusTooManyRequests, "rate limit exceeded")
			return Stop()
		},
	}
}
