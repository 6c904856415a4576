// Package server provides the request router used by the vecremote host.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/recera/vecremote/pkg/renderer/html"
	"github.com/recera/vecremote/pkg/vdom"
)

// HandlerFunc is the signature for page handlers
type HandlerFunc func(ctx Ctx) (*vdom.VNode, error)

// APIHandlerFunc is the signature for API route handlers
type APIHandlerFunc func(ctx Ctx) (any, error)

// Middleware interface for before/after hooks
type Middleware interface {
	Before(ctx Ctx) error // return Stop() to abort chain
	After(ctx Ctx) error  // always called if Before succeeded
}

// RouteNode represents a node in the radix tree
type RouteNode struct {
	segment    string
	pattern    string
	param      bool
	catchAll   bool
	paramName  string
	paramType  string // "string", "int", "uuid"
	handler    HandlerFunc
	children   []*RouteNode
	middleware []Middleware
}

// Router manages all routes and middleware
type Router struct {
	root       *RouteNode
	notFound   HandlerFunc
	errorPage  HandlerFunc
	middleware []Middleware
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewRouter creates a new router instance. A nil logger discards output.
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		root: &RouteNode{
			children: make([]*RouteNode, 0),
		},
		middleware: make([]Middleware, 0),
		logger:     logger,
	}
}

// AddRoute registers a page handler for a path
func (r *Router) AddRoute(path string, handler HandlerFunc, middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	for _, segment := range splitPath(path) {
		node = r.findOrCreateChild(node, segment)
	}

	node.pattern = "/" + strings.Join(splitPath(path), "/")
	node.handler = handler
	node.middleware = middleware
}

// AddAPIRoute registers an API handler for a path. A nil result with a nil
// error means the handler wrote the response itself.
func (r *Router) AddAPIRoute(path string, handler APIHandlerFunc, middleware ...Middleware) {
	r.AddRoute(path, wrapAPIHandler(handler), middleware...)
}

// Handle mounts a plain http.Handler at path, behind the router middleware.
func (r *Router) Handle(path string, h http.Handler, middleware ...Middleware) {
	r.AddRoute(path, func(ctx Ctx) (*vdom.VNode, error) {
		h.ServeHTTP(ctx.Writer(), ctx.Request())
		return nil, nil
	}, middleware...)
}

// Use adds global middleware
func (r *Router) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// SetNotFound sets the 404 handler
func (r *Router) SetNotFound(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = handler
}

// SetErrorPage sets the 500 error handler
func (r *Router) SetErrorPage(handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorPage = handler
}

// Match finds a handler for the given path. The returned pattern is empty
// when nothing matched.
func (r *Router) Match(path string) (HandlerFunc, string, map[string]string, []Middleware) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	params := make(map[string]string)

	node, matched := r.matchNode(r.root, splitPath(path), params)
	if !matched || node.handler == nil {
		return r.notFound, "", map[string]string{}, r.middleware
	}

	// Collect middleware from root to matched node
	allMiddleware := append([]Middleware{}, r.middleware...)
	allMiddleware = append(allMiddleware, node.middleware...)

	return node.handler, node.pattern, params, allMiddleware
}

// Routes lists the registered route patterns in sorted order.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var routes []string
	var walk func(n *RouteNode)
	walk = func(n *RouteNode) {
		if n.handler != nil {
			routes = append(routes, n.pattern)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	walk(r.root)
	sort.Strings(routes)
	return routes
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := NewContext(w, req, r.logger)

	handler, pattern, params, middleware := r.Match(req.URL.Path)
	if handler == nil {
		handler = defaultNotFound
	}
	if pattern == "" {
		ctx.Status(http.StatusNotFound)
	}

	ctx = WithParams(ctx, pattern, params)

	// Handle panics
	defer func() {
		if rec := recover(); rec != nil {
			ctx.Logger().Error("panic in handler", zap.Any("panic", rec))
			r.handleError(ctx, fmt.Errorf("internal server error: %v", rec))
		}
	}()

	finalHandler := handler
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := finalHandler
		finalHandler = func(c Ctx) (*vdom.VNode, error) {
			if err := mw.Before(c); err != nil {
				if errors.Is(err, ErrStop) {
					return nil, nil // Middleware handled response
				}
				return nil, err
			}

			result, err := next(c)

			if afterErr := mw.After(c); afterErr != nil {
				c.Logger().Error("error in After middleware", zap.Error(afterErr))
			}

			return result, err
		}
	}

	vnode, err := finalHandler(ctx)
	if err != nil {
		r.handleError(ctx, err)
		return
	}

	// If vnode is nil, assume the handler wrote the response
	if vnode == nil {
		return
	}

	r.writePage(ctx, ctx.StatusCode(), vnode)
}

func (r *Router) writePage(ctx Ctx, code int, vnode *vdom.VNode) {
	var (
		content string
		err     error
	)
	if vnode.IsElement() && vnode.Tag == "html" {
		content, err = html.RenderDocument(vnode)
	} else {
		content, err = html.RenderToString(vnode)
	}
	if err != nil {
		r.handleError(ctx, fmt.Errorf("render page: %w", err))
		return
	}

	if err := ctx.Blob(code, "text/html; charset=utf-8", []byte(content)); err != nil {
		ctx.Logger().Debug("write page", zap.Error(err))
	}
}

// findOrCreateChild finds or creates a child node
func (r *Router) findOrCreateChild(parent *RouteNode, segment string) *RouteNode {
	if strings.HasPrefix(segment, "[") && strings.HasSuffix(segment, "]") {
		paramDef := segment[1 : len(segment)-1]

		if strings.HasPrefix(paramDef, "...") {
			paramName := paramDef[3:]
			for _, child := range parent.children {
				if child.catchAll && child.paramName == paramName {
					return child
				}
			}
			node := &RouteNode{
				segment:   segment,
				catchAll:  true,
				paramName: paramName,
				paramType: "string",
				children:  make([]*RouteNode, 0),
			}
			parent.children = append(parent.children, node)
			return node
		}

		paramName, paramType := parseParamDef(paramDef)
		for _, child := range parent.children {
			if child.param && child.paramName == paramName {
				return child
			}
		}

		node := &RouteNode{
			segment:   segment,
			param:     true,
			paramName: paramName,
			paramType: paramType,
			children:  make([]*RouteNode, 0),
		}
		parent.children = append(parent.children, node)
		return node
	}

	for _, child := range parent.children {
		if !child.param && !child.catchAll && child.segment == segment {
			return child
		}
	}

	node := &RouteNode{
		segment:  segment,
		children: make([]*RouteNode, 0),
	}
	parent.children = append(parent.children, node)
	return node
}

// matchNode attempts to match a path against the tree.
// Static segments win over params, params over catch-alls.
func (r *Router) matchNode(node *RouteNode, segments []string, params map[string]string) (*RouteNode, bool) {
	if len(segments) == 0 {
		return node, true
	}

	segment := segments[0]
	remaining := segments[1:]

	for _, child := range node.children {
		if !child.param && !child.catchAll && child.segment == segment {
			if result, ok := r.matchNode(child, remaining, params); ok && result.handler != nil {
				return result, true
			}
		}
	}

	for _, child := range node.children {
		if child.param && validateParam(segment, child.paramType) {
			params[child.paramName] = segment
			if result, ok := r.matchNode(child, remaining, params); ok && result.handler != nil {
				return result, true
			}
			delete(params, child.paramName)
		}
	}

	for _, child := range node.children {
		if child.catchAll {
			params[child.paramName] = strings.Join(segments, "/")
			return child, true
		}
	}

	return nil, false
}

// handleError renders the error page
func (r *Router) handleError(ctx Ctx, err error) {
	ctx.Logger().Error("handler error", zap.Error(err))
	if ctx.Written() {
		return
	}

	if r.errorPage != nil {
		if vnode, perr := r.errorPage(ctx); perr == nil && vnode != nil {
			r.writePage(ctx, http.StatusInternalServerError, vnode)
			return
		}
	}

	_ = ctx.Text(http.StatusInternalServerError, "Internal Server Error")
}

func defaultNotFound(ctx Ctx) (*vdom.VNode, error) {
	return nil, ctx.Text(http.StatusNotFound, "Not Found")
}

// Helper functions

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

func parseParamDef(def string) (name, paramType string) {
	parts := strings.Split(def, ":")
	name = parts[0]
	paramType = "string"

	if len(parts) > 1 {
		paramType = parts[1]
	}

	return name, paramType
}

func validateParam(value, paramType string) bool {
	switch paramType {
	case "int":
		for _, r := range value {
			if r < '0' || r > '9' {
				return false
			}
		}
		return len(value) > 0
	case "uuid":
		// 8-4-4-4-12
		if len(value) != 36 {
			return false
		}
		return value[8] == '-' && value[13] == '-' && value[18] == '-' && value[23] == '-'
	default:
		return len(value) > 0
	}
}

func wrapAPIHandler(handler APIHandlerFunc) HandlerFunc {
	return func(ctx Ctx) (*vdom.VNode, error) {
		result, err := handler(ctx)
		if err != nil {
			return nil, err
		}
		if result == nil {
			if !ctx.Written() {
				ctx.NoContent(http.StatusOK)
			}
			return nil, nil
		}

		if err := ctx.JSON(http.StatusOK, result); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
