package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves liveness and readiness probes.
type Handler struct {
	log       *slog.Logger
	pinger    Pinger
	opTimeout time.Duration
}

func New(log *slog.Logger, p Pinger, opTimeout time.Duration) *Handler {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &Handler{log: log, pinger: p, opTimeout: opTimeout}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.Live)
	r.Get("/readyz", h.Ready)
}

// Live reports that the process is up.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports whether the backing store is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		if h.log != nil {
			h.log.WarnContext(ctx, "readiness failed", "err", err)
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
