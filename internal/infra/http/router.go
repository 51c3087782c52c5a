// Package http wires the API's router, middleware chain and server.
package http

import (
	"net/http"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Router registers routes. Route middleware applies in order, the first one
// outermost.
type Router interface {
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PUT(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PATCH(path string, handler http.HandlerFunc, middlewares ...Middleware)
	DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Handle mounts a plain http.Handler, such as the Prometheus exporter.
	Handle(path string, handler http.Handler)

	// Group creates a route group under prefix.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	Use(middlewares ...Middleware)
	With(middlewares ...Middleware) Router

	Handler() http.Handler

	// Walk calls fn for every registered route.
	Walk(fn func(method, path string, handler http.Handler) error) error
}

// Chain applies middlewares to a handler, the first one outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
