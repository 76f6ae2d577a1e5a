package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// In-memory repository implementations. They back the service tests and
// local development without a database; the mutex gives them the same
// visibility guarantees the Postgres implementations get from transactions.

// InMemoryUserRepository implements UserRepository in memory.
type InMemoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
}

// NewInMemoryUserRepository creates an empty in-memory user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{nextID: 1, users: make(map[int64]*User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return nil
	}
	user.TokenVersion = stored.TokenVersion
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (r *InMemoryUserRepository) BumpTokenVersion(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.TokenVersion++
	}
	return nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// InMemorySessionRepository implements SessionRepository in memory. It
// resolves challenge details through an attached catalog repository so
// GetDetail and ListByUser return the same shape as the Postgres joins.
type InMemorySessionRepository struct {
	mu           sync.Mutex
	nextID       int64
	nextResultID int64
	sessions     map[int64]*PracticeSession
	results      map[int64]*PracticeResult // keyed by session id
	catalog      CatalogRepository
}

// NewInMemorySessionRepository creates an empty in-memory session repository.
func NewInMemorySessionRepository(catalog CatalogRepository) *InMemorySessionRepository {
	return &InMemorySessionRepository{
		nextID:       1,
		nextResultID: 1,
		sessions:     make(map[int64]*PracticeSession),
		results:      make(map[int64]*PracticeResult),
		catalog:      catalog,
	}
}

// Put seeds a session with a fixed id, for tests.
func (r *InMemorySessionRepository) Put(session *PracticeSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	if session.ID >= r.nextID {
		r.nextID = session.ID + 1
	}
}

func (r *InMemorySessionRepository) Create(ctx context.Context, session *PracticeSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = r.nextID
	r.nextID++
	session.StartedAt = time.Now()
	session.Status = StatusStarted
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *InMemorySessionRepository) GetByID(ctx context.Context, id int64) (*PracticeSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemorySessionRepository) detailLocked(ctx context.Context, s *PracticeSession) (*SessionDetail, error) {
	d := &SessionDetail{PracticeSession: *s}
	if r.catalog != nil {
		ch, err := r.catalog.GetChallenge(ctx, s.ChallengeID)
		if err != nil {
			return nil, err
		}
		d.Challenge = ch
	}
	if res, ok := r.results[s.ID]; ok {
		cp := *res
		d.Result = &cp
	}
	return d, nil
}

func (r *InMemorySessionRepository) GetDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return r.detailLocked(ctx, s)
}

func (r *InMemorySessionRepository) ListByUser(ctx context.Context, userID int64) ([]*SessionDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var details []*SessionDetail
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		d, err := r.detailLocked(ctx, s)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].StartedAt.Equal(details[j].StartedAt) {
			return details[i].ID > details[j].ID
		}
		return details[i].StartedAt.After(details[j].StartedAt)
	})
	return details, nil
}

func (r *InMemorySessionRepository) GetResult(ctx context.Context, sessionID int64) (*PracticeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[sessionID]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemorySessionRepository) Finalize(ctx context.Context, sessionID int64, status string, result *PracticeResult) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return time.Time{}, ErrNotFound
	}

	now := time.Now()
	result.ID = r.nextResultID
	r.nextResultID++
	result.PracticeSessionID = sessionID
	result.CreatedAt = now
	cp := *result
	r.results[sessionID] = &cp

	s.Status = status
	s.CompletedAt = &now
	return now, nil
}

func (r *InMemorySessionRepository) StatsByUser(ctx context.Context, userID int64) (*UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &UserStats{}
	var scoreSum float64
	var scored int
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		stats.Sessions++
		if s.CompletedAt != nil {
			stats.Minutes += int(s.CompletedAt.Sub(s.StartedAt).Minutes())
		}
		if res, ok := r.results[s.ID]; ok {
			scoreSum += res.Score
			scored++
		}
	}
	if scored > 0 {
		stats.AverageScore = scoreSum / float64(scored)
	}
	return stats, nil
}

// InMemoryCatalogRepository implements CatalogRepository in memory.
type InMemoryCatalogRepository struct {
	mu         sync.Mutex
	Categories []*Category
	Levels     []*Level
	Challenges []*ChallengeDetail
}

// NewInMemoryCatalogRepository creates an empty in-memory catalog.
func NewInMemoryCatalogRepository() *InMemoryCatalogRepository {
	return &InMemoryCatalogRepository{}
}

func (r *InMemoryCatalogRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Category(nil), r.Categories...), nil
}

func (r *InMemoryCatalogRepository) ListLevels(ctx context.Context) ([]*Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Level(nil), r.Levels...), nil
}

func (r *InMemoryCatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCatalogRepository) GetLevelBySlug(ctx context.Context, slug string) (*Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.Levels {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCatalogRepository) ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*ChallengeDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ChallengeDetail
	for _, ch := range r.Challenges {
		if filter.CategoryID != nil && ch.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.LevelID != nil && ch.LevelID != *filter.LevelID {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

func (r *InMemoryCatalogRepository) GetChallenge(ctx context.Context, id int64) (*ChallengeDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.Challenges {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, nil
}

// ErrNotFound is returned by in-memory repositories when a row is missing
// where the Postgres implementations would fail a statement.
var ErrNotFound = &RepositoryError{Code: "NOT_FOUND", Message: "entity not found"}

// RepositoryError represents a repository error.
type RepositoryError struct {
	Code    string
	Message string
}

func (e *RepositoryError) Error() string {
	return e.Code + ": " + e.Message
}
