package http

import (
	"net/http"
	"strings"

	"tably-service/internal/app"
)

// RouterConfig carries the upload settings of NewRouter.
type RouterConfig struct {
	UploadDir      string
	PublicPrefix   string
	MaxUploadBytes int64
}

// NewRouter mounts REST, upload, avatar files and the websocket endpoint.
func NewRouter(service *app.QuizService, cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(service).Register(mux)

	mux.Handle("/upload", NewUploadHandler(service, cfg.UploadDir, cfg.PublicPrefix, cfg.MaxUploadBytes))

	prefix := strings.TrimRight(cfg.PublicPrefix, "/") + "/"
	mux.Handle("GET "+prefix, http.StripPrefix(prefix, noListing(http.FileServer(http.Dir(cfg.UploadDir)))))

	mux.HandleFunc("GET /ws", NewWSHandler(service).ServeWS)
	return mux
}

// noListing serves files only; directory paths get a 404 instead of an index.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
