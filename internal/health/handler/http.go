// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable; satisfied by db.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves /health.
type Handler struct {
	db     Pinger
	logger *zap.Logger
}

// New returns a health handler probing the given database.
func New(db Pinger, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Health returns 200 when the database answers a ping, 503 otherwise.
// Kubernetes probes and load balancers poll this endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body = map[string]string{"status": "degraded", "database": "unreachable"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
