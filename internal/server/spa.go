package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleSPA serves the admin front end from dir, falling back to
// index.html for client-side routes. Unknown API paths stay JSON 404s.
func handleSPA(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		path := filepath.Join(dir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
