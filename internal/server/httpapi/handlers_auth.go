package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
)

func (h *handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.deps.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		msg := bodyErrorMessage(err)
		respondJSON(r.Context(), h.log, w, http.StatusBadRequest, errorResponse{Error: msg, Message: msg})
		return
	}

	id, err := h.deps.Auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := statusAndMessage(err)
		if status >= http.StatusInternalServerError {
			h.log.Error(r.Context(), "signup failed", "error", err)
		}
		respondJSON(r.Context(), h.log, w, status, errorResponse{Error: msg, Message: msg})
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"message": "Data inserted successfully.",
		"userId":  id,
	})
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), h.log, w, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	res, err := h.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"message":  "Sign in successful",
		"email":    res.Email,
		"role":     res.Role,
		"userType": res.Role,
		"userId":   res.UserID,
	})
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		h.deps.Auth.SignOut(c.Value)
	}
	h.clearSessionCookie(w)
	respondJSON(r.Context(), h.log, w, http.StatusOK, messageResponse{Message: "Signed out successfully"})
}

func (h *handler) verifySession(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFrom(r.Context())
	if !ok {
		respondJSON(r.Context(), h.log, w, http.StatusUnauthorized, map[string]any{"valid": false})
		return
	}
	respondJSON(r.Context(), h.log, w, http.StatusOK, map[string]any{
		"valid":  true,
		"email":  s.Email,
		"userId": s.UserID,
	})
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	s, _ := sessionFrom(r.Context())

	p, err := h.deps.Auth.GetProfile(r.Context(), s.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthenticated) {
			h.clearSessionCookie(w)
		}
		h.fail(w, r, err)
		return
	}

	respondJSON(r.Context(), h.log, w, http.StatusOK, profileResponse{
		Email:             p.Email,
		Role:              p.Role,
		RemainingAPICalls: p.RemainingAPICalls,
	})
}
