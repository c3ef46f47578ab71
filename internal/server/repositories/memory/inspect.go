package memory

import "github.com/dmitrijs2005/flippy/internal/server/models"

// Card returns a copy of a stored card.
func (s *Store) Card(id int64) (models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return models.Card{}, false
	}
	return *c, true
}

// User returns a copy of a stored user.
func (s *Store) User(id int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

// SetQuota overwrites a user's remaining API calls.
func (s *Store) SetQuota(id int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.RemainingAPICalls = n
	}
}

func (s *Store) CountGroups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

func (s *Store) CountCards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

func (s *Store) UsageEntries() []models.UsageLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UsageLogEntry(nil), s.usage...)
}
