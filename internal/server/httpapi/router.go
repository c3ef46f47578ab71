// Package httpapi exposes the Flippy services over HTTP/JSON using chi.
package httpapi

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/services"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the router dispatches to. Usage and Health
// may be nil.
type Deps struct {
	Auth     *services.AuthService
	Cards    *services.CardService
	Admin    *services.AdminService
	Usage    *services.UsageLogger
	Sessions *sessions.Registry
	Logger   logging.Logger

	ClientOrigin   string
	RequestTimeout time.Duration
	SecureCookies  bool
	Health         func(ctx context.Context) error

	// AuthRatePerMinute caps credential-checking requests per client IP;
	// zero disables the limit.
	AuthRatePerMinute int
	// TrustedProxies are the peers allowed to name the client through
	// X-Forwarded-For / X-Real-IP. Empty means forwarding headers are ignored.
	TrustedProxies []netip.Prefix
}

type handler struct {
	deps Deps
	log  logging.Logger
}

// NewRouter builds the HTTP handler with the full middleware stack.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Nop{}
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}
	h := &handler{deps: deps, log: deps.Logger.With("module", "http")}

	r := chi.NewRouter()

	r.Use(h.stack()...)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	var limiter *ipRateLimiter
	if deps.AuthRatePerMinute > 0 {
		limiter = newIPRateLimiter(deps.AuthRatePerMinute)
	}

	r.Post("/signout", h.signOut)
	r.Get("/verify-session", h.verifySession)

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimited(limiter))

		r.Post("/signup", h.signUp)
		r.Post("/signin", h.signIn)

		// admin re-authenticates with credentials in the body
		r.Delete("/admin/users", h.deleteUser)
		r.Put("/admin/users", h.updateUser)
		r.Post("/admin/generate-api-key", h.generateAPIKey)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/profile", h.profile)
		r.Get("/card-groups", h.listCardGroups)
		r.Post("/create-card-group", h.createCardGroup)
		r.Post("/generate-explanation", h.generateExplanation)
		r.Post("/generate-cards", h.generateCards)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/admin/users", h.listUsers)
			r.Get("/admin/endpoint-stats", h.endpointStats)
			r.Get("/admin/user-api-usage", h.userAPIUsage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), h.log, w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), h.log, w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// stack is the middleware every route runs through, outermost first.
// recoverJSON sits inside instrument so a panic still produces a 500 usage
// row and metric.
func (h *handler) stack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimiddleware.RequestID,
		requestLogContext,
		trustedRealIP(h.deps.TrustedProxies),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{h.deps.ClientOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		h.loadSession,
		h.instrument,
		h.recoverJSON,
		chimiddleware.Timeout(h.deps.RequestTimeout),
	}
}

// fail writes the response for a service error. Server-side failures are
// already logged by the services; this adds the request context.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusAndMessage(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	respondError(r.Context(), h.log, w, status, msg)
}
