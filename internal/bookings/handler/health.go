package handler

import (
	"context"
	"net/http"
	"staybook/pkg/contracts"
	httputil "staybook/pkg/http"
	kafkamw "staybook/pkg/kafka/middleware"
	"staybook/pkg/logger"
	"time"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status       string                   `json:"status"`
	Dependencies map[string]string        `json:"dependencies,omitempty"`
	Events       *kafkamw.MetricsSnapshot `json:"events,omitempty"`
}

type HealthHandler struct {
	deps    []contracts.Dependency
	metrics *kafkamw.Metrics
	log     *logger.Logger
}

// NewHealthHandler reports on deps at /ready. metrics may be nil when no
// broker is configured.
func NewHealthHandler(deps []contracts.Dependency, metrics *kafkamw.Metrics, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		metrics: metrics,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{Status: "ok"}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		resp.Events = &snapshot
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.deps))}

	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", dep.Name(),
				"error", err,
				"path", r.URL.Path,
			)
			resp.Dependencies[dep.Name()] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[dep.Name()] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
