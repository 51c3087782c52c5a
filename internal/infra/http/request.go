package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PathParam returns a path parameter set by chi or, failing that, by the
// standard library mux.
func PathParam(r *http.Request, key string) string {
	if v := chi.URLParam(r, key); v != "" {
		return v
	}
	return r.PathValue(key)
}
