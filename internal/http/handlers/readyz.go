package handlers

import (
	"context"
	"net/http"
	"time"

	httpx "github.com/dropDatabas3/legacybridge/internal/http"
)

// Pinger es lo mínimo que un backend debe exponer para el readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readyz responde 200 cuando todos los backends registrados contestan.
type Readyz struct {
	Checks map[string]Pinger
}

func (h *Readyz) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	out := make(map[string]string, len(h.Checks))
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			out[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		out[name] = "ok"
	}
	httpx.WriteJSON(w, status, out)
}
