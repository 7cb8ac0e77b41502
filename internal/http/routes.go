package http

import (
	stdhttp "net/http"

	"github.com/dropDatabas3/legacybridge/internal/http/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers agrupa los handlers montados por el router.
type Handlers struct {
	Login      stdhttp.Handler
	UserLookup stdhttp.Handler
	Readyz     stdhttp.Handler
}

// NewRouter arma el router con los middlewares base (request id + logging).
func NewRouter(h Handlers) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())

	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		WriteJSON(w, stdhttp.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Readyz != nil {
		r.Method(stdhttp.MethodGet, "/readyz", h.Readyz)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Method(stdhttp.MethodPost, "/v1/auth/login", h.Login)
	r.Method(stdhttp.MethodGet, "/v1/users/{usernameOrEmail}", h.UserLookup)

	return r
}
