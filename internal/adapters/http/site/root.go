// Package site serves the embedded landing page.
package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the landing page routes to r.
// Routes:
//
//	GET /         -> index.html
//	GET /site/*   -> embedded assets
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	files := http.FileServer(FS())
	r.Get("/", NewRootHandler(files).HandleRoot)
	r.Handle("/site/*", http.StripPrefix("/site", files))
}

// RootHandler serves the landing page.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a root handler over the embedded file server.
func NewRootHandler(files http.Handler) *RootHandler {
	return &RootHandler{files: files}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.files.ServeHTTP(w, r)
}
