package handler

import (
	"net/http"
	"time"

	natsclient "github.com/astrodesk/consult-platform/internal/nats"
)

type healthStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	natsClient *natsclient.Client
	started    time.Time
}

// NewHealthHandler creates a health handler. natsClient may be nil when
// event publishing is disabled; readiness then ignores it.
func NewHealthHandler(natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
		started:    time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{
		Status: "healthy",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready handles GET /ready
//
// The service can serve chat without NATS, but a configured broker
// that is down means audit events are being dropped, so readiness
// fails loudly instead.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{
			Status: "not ready",
			Reason: "nats not connected",
		})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{Status: "ready"})
}
