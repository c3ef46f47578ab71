// Package memory is an in-process RepositoryManager for tests and local
// experiments. Repositories ignore the DBTX they are bound to, so writes
// made inside a transaction that later rolls back are not undone.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/apikeys"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/cardgroups"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/cards"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/usagelog"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/users"
)

// DefaultQuota mirrors the schema default for users.remaining_api_calls.
const DefaultQuota = 20

// Store holds every table. All access goes through mu.
type Store struct {
	mu sync.Mutex

	users  map[int64]*models.User
	groups map[int64]*models.CardGroup
	cards  map[int64]*models.Card
	usage  []models.UsageLogEntry
	keys   []models.APIKey

	nextID int64
	now    func() time.Time

	// FailCards, when set, is returned by every card write.
	FailCards error
}

func NewStore() *Store {
	return &Store{
		users:  make(map[int64]*models.User),
		groups: make(map[int64]*models.CardGroup),
		cards:  make(map[int64]*models.Card),
		now:    time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// InMemoryRepositoryManager vends repositories backed by one Store.
type InMemoryRepositoryManager struct {
	store *Store
}

func NewInMemoryRepositoryManager(s *Store) *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: s}
}

func (m *InMemoryRepositoryManager) Store() *Store {
	return m.store
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return &usersRepo{m.store}
}

func (m *InMemoryRepositoryManager) CardGroups(dbx.DBTX) cardgroups.Repository {
	return &cardGroupsRepo{m.store}
}

func (m *InMemoryRepositoryManager) Cards(dbx.DBTX) cards.Repository {
	return &cardsRepo{m.store}
}

func (m *InMemoryRepositoryManager) UsageLog(dbx.DBTX) usagelog.Repository {
	return &usageRepo{m.store}
}

func (m *InMemoryRepositoryManager) APIKeys(dbx.DBTX) apikeys.Repository {
	return &apiKeysRepo{m.store}
}
