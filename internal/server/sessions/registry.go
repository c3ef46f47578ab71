// Package sessions keeps the in-process map of opaque session tokens.
// Sessions live only as long as the process; a restart signs everyone out.
package sessions

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/server/metrics"
)

// tokenBytes is the entropy of a session token (hex-encoded to 64 chars).
const tokenBytes = 32

// ErrRegistryClosed is returned by Create after Shutdown.
var ErrRegistryClosed = errors.New("session registry closed")

type Session struct {
	Token     string
	UserID    int64
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Registry maps tokens to sessions. Expired sessions are removed lazily
// when they are looked up.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
	closed   bool
}

type Option func(*Registry)

// WithTTL overrides common.DefaultSessionTTL.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func withTokenSource(f func() (string, error)) Option {
	return func(r *Registry) { r.newToken = f }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]Session),
		ttl:      common.DefaultSessionTTL,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandHexString(tokenBytes) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL is the lifetime given to new sessions.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

func (r *Registry) Create(userID int64, email string) (Session, error) {
	token, err := r.newToken()
	if err != nil {
		return Session{}, err
	}

	now := r.now()
	s := Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Session{}, ErrRegistryClosed
	}
	r.sessions[token] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))

	return s, nil
}

// Validate returns the live session for token. An expired session is
// deleted and reported as absent.
func (r *Registry) Validate(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	if r.now().After(s.ExpiresAt) {
		r.mu.Lock()
		// another caller may have replaced or removed it meanwhile
		if cur, ok := r.sessions[token]; ok && cur.ExpiresAt.Equal(s.ExpiresAt) {
			delete(r.sessions, token)
			metrics.ActiveSessions.Set(float64(len(r.sessions)))
		}
		r.mu.Unlock()
		return Session{}, false
	}

	return s, true
}

// Resolve reads the session cookie from req and validates it.
func (r *Registry) Resolve(req *http.Request) (Session, bool) {
	c, err := req.Cookie(common.SessionCookieName)
	if err != nil {
		return Session{}, false
	}
	return r.Validate(c.Value)
}

// ResolveUserID returns the user id behind the request's session cookie.
func (r *Registry) ResolveUserID(req *http.Request) (int64, bool) {
	s, ok := r.Resolve(req)
	return s.UserID, ok
}

func (r *Registry) Destroy(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown drops every session and rejects further Create calls.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.sessions = make(map[string]Session)
	r.closed = true
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()
}
