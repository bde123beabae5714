package api

import (
	"log/slog"
	"net/http"
	"time"

	httpx "github.com/Spok95/factory/internal/infra/http"
)

func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := httpx.NewStatusWriter(w)
			next.ServeHTTP(sw, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status,
				"duration", time.Since(start),
			)
		})
	}
}
