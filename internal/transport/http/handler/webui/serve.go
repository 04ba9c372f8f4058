package webui

import (
	"io/fs"
	"net/http"
	"strings"
)

// ChatPage serves the chat page at "/" and its assets under /static/.
// Unknown paths outside /static/ fall back to index.html.
func (h *Handlers) ChatPage() http.Handler {
	fileServer := http.FileServer(http.FS(h.FS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filePath := r.URL.Path

		if strings.HasPrefix(filePath, "/static/") {
			fileServer.ServeHTTP(w, r)
			return
		}

		if filePath != "/" {
			if _, err := fs.Stat(h.FS, strings.TrimPrefix(filePath, "/")); err != nil {
				filePath = "/"
			}
		}

		// Serve a copy so the caller's request keeps its original path
		r2 := r.Clone(r.Context())
		r2.URL.Path = filePath
		fileServer.ServeHTTP(w, r2)
	})
}
