package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/flippy/internal/server/models"
)

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.deps.Admin.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if admin, ok := userFrom(r.Context()); ok {
		h.log.Debug(r.Context(), "users listed", "admin_id", admin.ID, "count", len(users))
	}
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{"users": newUserDTOs(users)})
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	if err := h.deps.Admin.DeleteUser(r.Context(), req.credentials(), req.UserID); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	upd := models.UserUpdate{Role: req.UserType, QuotaDelta: req.APICallsIncrement}
	if upd.Role == nil {
		upd.Role = req.Role
	}

	if err := h.deps.Admin.UpdateUser(r.Context(), req.credentials(), req.UserID, upd); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, messageResponse{Message: "User updated successfully"})
}

func (h *handler) generateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req generateAPIKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	key, err := h.deps.Admin.GenerateAPIKey(r.Context(), req.credentials(), req.UserID, req.KeyName)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"message": "API key generated successfully",
		"apiKey":  key,
	})
}

func (h *handler) endpointStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Admin.EndpointStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]endpointStatDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, endpointStatDTO{
			Method:          s.Method,
			Endpoint:        s.Endpoint,
			RequestCount:    s.RequestCount,
			AvgResponseTime: s.AvgResponseTime,
			LastRequest:     s.LastRequest,
		})
	}
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{"stats": out})
}

func (h *handler) userAPIUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.deps.Admin.UserAPIUsage(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]userUsageDTO, 0, len(usage))
	for _, u := range usage {
		out = append(out, userUsageDTO{
			ID:                u.UserID,
			Email:             u.Email,
			Role:              u.Role,
			RemainingAPICalls: u.RemainingAPICalls,
			TotalRequests:     u.TotalRequests,
			APIKey:            u.APIKey,
		})
	}
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{"users": out})
}
