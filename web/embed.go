// Package web embeds the built storefront frontend (dist/) and serves it as a
// single-page application.
//
// In development the dist/ directory holds only a placeholder; run the Vite
// dev server with FRONTEND_URL pointing at it instead.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

// SPAHandler returns an http.Handler that serves the embedded frontend.
// Paths that do not match a file fall back to index.html so that
// client-side routes like /admin resolve.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if _, err := fs.Stat(subFS, path); err != nil {
			// Not a static asset, hand the route to the SPA.
			r.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, r)
	})
}
