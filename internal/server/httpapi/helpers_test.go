package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/memory"
	"github.com/dmitrijs2005/flippy/internal/server/services"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

const testOrigin = "http://localhost:8000"

type stubGenerator struct {
	mu     sync.Mutex
	drafts []models.CardDraft
	err    error
}

func (g *stubGenerator) GenerateCards(context.Context, string) ([]models.CardDraft, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drafts, g.err
}

func (g *stubGenerator) reply(drafts []models.CardDraft, err error) {
	g.mu.Lock()
	g.drafts, g.err = drafts, err
	g.mu.Unlock()
}

type testAPI struct {
	srv      *httptest.Server
	store    *memory.Store
	sessions *sessions.Registry
	auth     *services.AuthService
	usage    *services.UsageLogger
	gen      *stubGenerator

	mu     sync.Mutex
	health error
}

func (a *testAPI) setHealth(err error) {
	a.mu.Lock()
	a.health = err
	a.mu.Unlock()
}

func (a *testAPI) checkHealth(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// newTestAPI serves a router over in-memory repositories. opts adjust the
// router dependencies before it is built.
func newTestAPI(t *testing.T, opts ...func(*Deps)) *testAPI {
	t.Helper()

	// sqlite only serves BEGIN/COMMIT for dbx.WithTx; data lives in the store
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	api := &testAPI{
		store:    memory.NewStore(),
		sessions: sessions.NewRegistry(sessions.WithTTL(time.Hour)),
		gen:      &stubGenerator{},
	}
	rm := memory.NewInMemoryRepositoryManager(api.store)

	api.auth, err = services.NewAuthService(db, rm, api.sessions, bcrypt.MinCost, logging.Nop{})
	require.NoError(t, err)
	api.usage = services.NewUsageLogger(db, rm, time.Second, logging.Nop{})

	deps := Deps{
		Auth:           api.auth,
		Cards:          services.NewCardService(db, rm, api.gen, nil, logging.Nop{}),
		Admin:          services.NewAdminService(db, rm, api.auth, logging.Nop{}),
		Usage:          api.usage,
		Sessions:       api.sessions,
		Logger:         logging.Nop{},
		ClientOrigin:   testOrigin,
		RequestTimeout: 5 * time.Second,
		Health:         api.checkHealth,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	api.srv = httptest.NewServer(NewRouter(deps))
	t.Cleanup(api.srv.Close)
	t.Cleanup(api.usage.Wait)

	return api
}

// client returns an HTTP client with its own cookie jar.
func (a *testAPI) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

// do sends body as JSON and decodes the JSON reply into a map.
func (a *testAPI) do(t *testing.T, c *http.Client, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

// signedIn registers email and returns a client holding its session cookie.
func (a *testAPI) signedIn(t *testing.T, email, password string) (*http.Client, int64) {
	t.Helper()
	c := a.client(t)

	resp, body := a.do(t, c, http.MethodPost, "/signup", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	resp, body = a.do(t, c, http.MethodPost, "/signin", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	return c, int64(body["userId"].(float64))
}

// admin bootstraps an admin account and returns a signed-in client.
func (a *testAPI) admin(t *testing.T, email, password string) (*http.Client, int64) {
	t.Helper()
	id, _, err := a.auth.BootstrapAdmin(context.Background(), email, password)
	require.NoError(t, err)

	c := a.client(t)
	resp, body := a.do(t, c, http.MethodPost, "/signin", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	return c, id
}

// createGroup stores a one-card group for the client's user.
func (a *testAPI) createGroup(t *testing.T, c *http.Client) int64 {
	t.Helper()
	resp, body := a.do(t, c, http.MethodPost, "/create-card-group", map[string]any{
		"name":  "Capitals",
		"cards": []map[string]string{{"question": "Capital of France?", "answer": "Paris"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	return int64(body["groupId"].(float64))
}
