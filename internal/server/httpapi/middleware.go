package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/metrics"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	sessionKey ctxKey = "session"
	userKey    ctxKey = "user"
)

// sessionFrom returns the live session attached by loadSession.
func sessionFrom(ctx context.Context) (sessions.Session, bool) {
	s, ok := ctx.Value(sessionKey).(sessions.Session)
	return s, ok
}

// userFrom returns the account loaded by requireAdmin.
func userFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// statusResponseWriter wraps http.ResponseWriter to capture the status code.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.statusCode = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// requestLogContext copies chi's request id into the logging context so
// every log line of the request carries it.
func requestLogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := chimiddleware.GetReqID(ctx); id != "" {
			ctx = logging.ContextWithAttrs(ctx, "request_id", id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverJSON turns a handler panic into a JSON 500.
func (h *handler) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.log.Error(r.Context(), "panic while serving request",
				"panic", rec, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
			respondError(r.Context(), h.log, w, http.StatusInternalServerError, "Server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// loadSession attaches the caller's session, if the cookie names a live
// one. It never rejects a request.
func (h *handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.deps.Sessions.Resolve(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, s)
		ctx = logging.ContextWithAttrs(ctx, "user_id", s.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument records request metrics and a usage log row for every request
// except health checks and metric scrapes.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		ww := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		metrics.RecordAPIRequest(r.Method, pattern, ww.statusCode, elapsed)

		if h.deps.Usage == nil {
			return
		}
		entry := models.UsageLogEntry{
			Method:         r.Method,
			Endpoint:       r.URL.Path,
			StatusCode:     ww.statusCode,
			ResponseTimeMs: elapsed.Milliseconds(),
			IPAddress:      clientIP(r),
		}
		if s, ok := sessionFrom(r.Context()); ok {
			uid := s.UserID
			entry.UserID = &uid
		}
		h.deps.Usage.Record(entry)
	})
}

// requireSession rejects requests without a live session.
func (h *handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFrom(r.Context()); !ok {
			respondError(r.Context(), h.log, w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin loads the session's user and rejects non-admins with 403.
// It must run after requireSession.
func (h *handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := sessionFrom(r.Context())
		u, err := h.deps.Auth.CurrentUser(r.Context(), s.UserID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !u.IsAdmin() {
			h.log.Warn(r.Context(), "admin route refused", "user_id", u.ID, "path", r.URL.Path)
			respondError(r.Context(), h.log, w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}
