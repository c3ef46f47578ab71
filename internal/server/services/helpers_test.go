package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/memory"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flippy/internal/server/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// newTxDB returns a database that only serves BEGIN/COMMIT/ROLLBACK for
// dbx.WithTx; the memory repositories ignore it.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeGenerator struct {
	mu     sync.Mutex
	drafts []models.CardDraft
	err    error
	calls  int
}

func (g *fakeGenerator) GenerateCards(ctx context.Context, text string) ([]models.CardDraft, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.drafts, nil
}

type fakeArchiver struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (a *fakeArchiver) Archive(ctx context.Context, userID int64, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	if a.err != nil {
		return "", a.err
	}
	return "documents/key.txt", nil
}

var errBoom = errors.New("boom")

type fixture struct {
	db       *sql.DB
	store    *memory.Store
	rm       repomanager.RepositoryManager
	sessions *sessions.Registry
	auth     *AuthService
	cards    *CardService
	admin    *AdminService
	gen      *fakeGenerator
	archiver *fakeArchiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:       newTxDB(t),
		store:    memory.NewStore(),
		sessions: sessions.NewRegistry(),
		gen:      &fakeGenerator{},
		archiver: &fakeArchiver{},
	}
	f.rm = memory.NewInMemoryRepositoryManager(f.store)

	auth, err := NewAuthService(f.db, f.rm, f.sessions, bcrypt.MinCost, logging.Nop{})
	require.NoError(t, err)
	f.auth = auth
	f.cards = NewCardService(f.db, f.rm, f.gen, f.archiver, logging.Nop{})
	f.admin = NewAdminService(f.db, f.rm, f.auth, logging.Nop{})

	return f
}

func (f *fixture) signUp(t *testing.T, email, password string) int64 {
	t.Helper()
	id, err := f.auth.SignUp(context.Background(), email, password)
	require.NoError(t, err)
	return id
}

func (f *fixture) makeAdmin(t *testing.T, email, password string) int64 {
	t.Helper()
	id, _, err := f.auth.BootstrapAdmin(context.Background(), email, password)
	require.NoError(t, err)
	return id
}
