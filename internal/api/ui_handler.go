package api

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/kirychukyurii/webitel-scheduler-console/ui"
)

// ServeUI returns a handler that serves the embedded console shell. Paths
// without a matching file get index.html so client routes such as
// /collections/{id}/jobs survive a reload.
func (h *Handler) ServeUI() http.HandlerFunc {
	fsys, err := ui.FileSystem()
	if err != nil {
		h.logger.Errorw("failed to get UI filesystem", "error", err.Error())
		return func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "UI not available", http.StatusNotFound)
		}
	}

	indexHTML, err := h.renderIndex(fsys)
	if err != nil {
		h.logger.Errorw("failed to prepare index.html", "error", err.Error())
	}

	fileServer := http.FileServer(http.FS(fsys))

	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// chi.Mount doesn't strip the base path
		if h.basePath != "" {
			path = strings.TrimPrefix(path, h.basePath)
		}
		if path == "" {
			path = "/"
		}

		cleanPath := strings.TrimPrefix(path, "/")
		serveIndex := cleanPath == "" || cleanPath == "index.html"
		if !serveIndex {
			if _, err := fs.Stat(fsys, cleanPath); err != nil {
				serveIndex = true
			}
		}

		if serveIndex && len(indexHTML) > 0 {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(indexHTML)
			return
		}

		r.URL.Path = path
		fileServer.ServeHTTP(w, r)
	}
}

// renderIndex rewrites asset links below the base path and exposes it to
// scripts as window._BASE_PATH
func (h *Handler) renderIndex(fsys fs.FS) ([]byte, error) {
	file, err := fsys.Open("index.html")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	if h.basePath != "" {
		content = bytes.ReplaceAll(content, []byte(`"/assets/`), []byte(`"`+h.basePath+`/assets/`))
		content = bytes.ReplaceAll(content, []byte(`href="/favicon.`), []byte(fmt.Sprintf(`href="%s/favicon.`, h.basePath)))
	}

	script := fmt.Sprintf("<script>window._BASE_PATH=%q;</script>", h.basePath)
	return bytes.Replace(content, []byte("</head>"), []byte(script+"</head>"), 1), nil
}
