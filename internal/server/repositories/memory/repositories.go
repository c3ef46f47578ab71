package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/apikeys"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/usagelog"
)

type usersRepo struct{ s *Store }

func (r *usersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}

	u.ID = r.s.id()
	u.Role = common.RoleUser
	u.RemainingAPICalls = DefaultQuota
	u.CreatedAt = r.s.now()
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *usersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *usersRepo) List(context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete cascades to groups and cards and detaches usage rows, like the
// foreign keys of the SQL schema.
func (r *usersRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)

	for gid, g := range r.s.groups {
		if g.UserID != id {
			continue
		}
		delete(r.s.groups, gid)
		for cid, c := range r.s.cards {
			if c.GroupID == gid {
				delete(r.s.cards, cid)
			}
		}
	}
	for i := range r.s.usage {
		if r.s.usage[i].UserID != nil && *r.s.usage[i].UserID == id {
			r.s.usage[i].UserID = nil
		}
	}
	kept := r.s.keys[:0]
	for _, k := range r.s.keys {
		if k.UserID != id {
			kept = append(kept, k)
		}
	}
	r.s.keys = kept
	return nil
}

func (r *usersRepo) Update(_ context.Context, id int64, upd models.UserUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.QuotaDelta != nil {
		u.RemainingAPICalls = max(u.RemainingAPICalls+*upd.QuotaDelta, 0)
	}
	return nil
}

func (r *usersRepo) DecrementQuota(_ context.Context, id int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || u.RemainingAPICalls <= 0 {
		return 0, common.ErrQuotaExhausted
	}
	u.RemainingAPICalls--
	return u.RemainingAPICalls, nil
}

func (r *usersRepo) SetAPIKey(_ context.Context, id int64, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.APIKey = &key
	return nil
}

type cardGroupsRepo struct{ s *Store }

func (r *cardGroupsRepo) Create(_ context.Context, g *models.CardGroup) (*models.CardGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[g.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	g.ID = r.s.id()
	g.CreatedAt = r.s.now()
	cp := *g
	cp.Cards = nil
	r.s.groups[g.ID] = &cp
	return g, nil
}

func (r *cardGroupsRepo) ListByUser(_ context.Context, userID int64) ([]models.CardGroup, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.CardGroup
	for _, g := range r.s.groups {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type cardsRepo struct{ s *Store }

func (r *cardsRepo) CreateBatch(_ context.Context, groupID int64, drafts []models.CardDraft) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.FailCards != nil {
		return 0, r.s.FailCards
	}
	if _, ok := r.s.groups[groupID]; !ok {
		return 0, common.ErrorNotFound
	}
	for _, d := range drafts {
		id := r.s.id()
		r.s.cards[id] = &models.Card{
			ID:        id,
			GroupID:   groupID,
			Question:  d.Question,
			Answer:    d.Answer,
			CreatedAt: r.s.now(),
		}
	}
	return len(drafts), nil
}

func (r *cardsRepo) ownedLocked(cardID, userID int64) (*models.Card, bool) {
	c, ok := r.s.cards[cardID]
	if !ok {
		return nil, false
	}
	g, ok := r.s.groups[c.GroupID]
	if !ok || g.UserID != userID {
		return nil, false
	}
	return c, true
}

func (r *cardsRepo) ListByOwner(_ context.Context, userID int64) ([]models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Card
	for _, c := range r.s.cards {
		if g, ok := r.s.groups[c.GroupID]; ok && g.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *cardsRepo) GetOwned(_ context.Context, cardID, userID int64) (*models.Card, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.ownedLocked(cardID, userID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *cardsRepo) SetExplanation(_ context.Context, cardID, userID int64, text, difficulty string) (time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.FailCards != nil {
		return time.Time{}, r.s.FailCards
	}
	c, ok := r.ownedLocked(cardID, userID)
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	at := r.s.now()
	c.ExplanationText = &text
	c.ExplanationDifficulty = &difficulty
	c.ExplanationGeneratedAt = &at
	return at, nil
}

type usageRepo struct{ s *Store }

func (r *usageRepo) Insert(_ context.Context, e *models.UsageLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *e
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.s.now()
	}
	r.s.usage = append(r.s.usage, cp)
	return nil
}

func (r *usageRepo) EndpointStats(context.Context) ([]models.EndpointStat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type acc struct {
		stat  models.EndpointStat
		total int64
	}
	byKey := make(map[[2]string]*acc)
	for _, e := range r.s.usage {
		k := [2]string{e.Method, e.Endpoint}
		a, ok := byKey[k]
		if !ok {
			a = &acc{stat: models.EndpointStat{Method: e.Method, Endpoint: e.Endpoint}}
			byKey[k] = a
		}
		a.stat.RequestCount++
		a.total += e.ResponseTimeMs
		if e.CreatedAt.After(a.stat.LastRequest) {
			a.stat.LastRequest = e.CreatedAt
		}
	}

	out := make([]models.EndpointStat, 0, len(byKey))
	for _, a := range byKey {
		a.stat.AvgResponseTime = float64(a.total) / float64(a.stat.RequestCount)
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out, nil
}

func (r *usageRepo) UserUsage(context.Context) ([]models.UserAPIUsage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[int64]int64)
	for _, e := range r.s.usage {
		if e.UserID != nil {
			counts[*e.UserID]++
		}
	}

	out := make([]models.UserAPIUsage, 0, len(r.s.users))
	for _, u := range r.s.users {
		key := usagelog.NoAPIKey
		if latest := r.latestKeyLocked(u.ID); latest != "" {
			key = latest
		} else if u.APIKey != nil {
			key = *u.APIKey
		}
		out = append(out, models.UserAPIUsage{
			UserID:            u.ID,
			Email:             u.Email,
			Role:              u.Role,
			RemainingAPICalls: u.RemainingAPICalls,
			TotalRequests:     counts[u.ID],
			APIKey:            key,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *usageRepo) latestKeyLocked(userID int64) string {
	var latest *models.APIKey
	for i := range r.s.keys {
		k := &r.s.keys[i]
		if k.UserID != userID || !k.IsActive {
			continue
		}
		if latest == nil || k.ID > latest.ID {
			latest = k
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Key
}

type apiKeysRepo struct{ s *Store }

func (r *apiKeysRepo) Create(_ context.Context, k *models.APIKey) (*models.APIKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[k.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	if k.Name == "" {
		k.Name = apikeys.DefaultKeyName
	}
	k.ID = r.s.id()
	k.IsActive = true
	k.CreatedAt = r.s.now()
	r.s.keys = append(r.s.keys, *k)
	return k, nil
}
