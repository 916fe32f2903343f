package common

import (
	"context"
	"net/http"

	"cepas/pkg/logger"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	db  Pinger
	log logger.Logger
}

func New(db Pinger, log logger.Logger) *Handlers {
	return &Handlers{db: db, log: log}
}

// Ping checks database connectivity.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.InternalError("ping: database unreachable", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("database unreachable: " + err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
