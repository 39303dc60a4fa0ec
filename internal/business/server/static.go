package server

import (
	"net/http"
	"path"
	"path/filepath"

	"github.com/openkcm/access-gate/internal/config"
)

const indexPage = "index.html"

// servePage serves the file backing a protected page.
func servePage(dir string, page config.ProtectedPage) http.HandlerFunc {
	file := filepath.Join(dir, filepath.FromSlash(page.File))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, file)
	}
}

// staticHandler serves dir but answers 404 for the files that back protected
// pages, so they are reachable through the gate only. A backing index.html is
// also hidden under its directory URL, which the file server answers with it.
func staticHandler(dir string, pages []config.ProtectedPage) http.Handler {
	hidden := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		file := "/" + page.File
		hidden[file] = struct{}{}
		if path.Base(file) == indexPage {
			hidden[path.Dir(file)] = struct{}{}
		}
	}

	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := hidden[path.Clean("/"+r.URL.Path)]; ok {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
