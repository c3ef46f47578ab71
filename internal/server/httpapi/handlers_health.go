package httpapi

import "net/http"

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r.Context()); err != nil {
			h.log.Warn(r.Context(), "health check failed", "error", err)
			respondJSON(r.Context(), h.log, w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]string{"status": "ok"})
}
