package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/repository"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byTG   map[int64]*models.User
	err    error
}

func newMemUsers() *memUsers { return &memUsers{byTG: map[int64]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.IsActive = true
	cp := *u
	m.byTG[u.TelegramID] = &cp
	return nil
}

func (m *memUsers) GetByTelegramID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byTG[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTG[u.TelegramID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	m.byTG[u.TelegramID] = &cp
	return nil
}

func (m *memUsers) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byTG[id]; ok {
		u.IsActive = active
	}
	return nil
}

func (m *memUsers) ActiveTelegramIDs(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, u := range m.byTG {
		if u.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memUsers) add(ids ...int64) {
	for _, id := range ids {
		_ = m.Create(context.Background(), &models.User{TelegramID: id, FirstName: "u"})
	}
}

type memMovies struct {
	nextID int64
	byKey  map[string]*models.Movie
	top    string
	upsert int
}

func newMemMovies() *memMovies { return &memMovies{byKey: map[string]*models.Movie{}} }

func (m *memMovies) Upsert(_ context.Context, mv *models.Movie) error {
	m.upsert++
	key := mv.Source + ":" + mv.ExternalID
	if old, ok := m.byKey[key]; ok {
		mv.ID = old.ID
	} else {
		m.nextID++
		mv.ID = m.nextID
	}
	cp := *mv
	m.byKey[key] = &cp
	return nil
}

func (m *memMovies) GetByExternalID(_ context.Context, source, id string) (*models.Movie, error) {
	if mv, ok := m.byKey[source+":"+id]; ok {
		return mv, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memMovies) TopGenreForUser(context.Context, int64) (string, error) {
	if m.top == "" {
		return "", repository.ErrNotFound
	}
	return m.top, nil
}

type pair struct{ user, movie int64 }

type memFavorites struct {
	set map[pair]time.Time
}

func (m *memFavorites) Add(_ context.Context, u, mv int64) (bool, error) {
	if m.set == nil {
		m.set = map[pair]time.Time{}
	}
	if _, ok := m.set[pair{u, mv}]; ok {
		return false, nil
	}
	m.set[pair{u, mv}] = time.Now()
	return true, nil
}

func (m *memFavorites) Remove(_ context.Context, u, mv int64) (bool, error) {
	if _, ok := m.set[pair{u, mv}]; !ok {
		return false, nil
	}
	delete(m.set, pair{u, mv})
	return true, nil
}

func (m *memFavorites) ListByUser(_ context.Context, u int64, limit int) ([]models.FavoriteMovie, error) {
	var out []models.FavoriteMovie
	for p, at := range m.set {
		if p.user == u {
			out = append(out, models.FavoriteMovie{Movie: models.Movie{ID: p.movie}, AddedAt: at})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memHistory struct {
	queries map[int64][]string
}

func (m *memHistory) Add(_ context.Context, u int64, q string) error {
	if m.queries == nil {
		m.queries = map[int64][]string{}
	}
	m.queries[u] = append(m.queries[u], q)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, u int64, limit int) ([]models.SearchHistory, error) {
	qs := m.queries[u]
	var out []models.SearchHistory
	for i := len(qs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, models.SearchHistory{UserID: u, Query: qs[i]})
	}
	return out, nil
}

type memRecommendations struct {
	movies []int64
}

func (m *memRecommendations) Add(_ context.Context, _ int64, mv int64) error {
	m.movies = append(m.movies, mv)
	return nil
}

func (m *memRecommendations) ListByUser(context.Context, int64, int) ([]models.RecommendedMovie, error) {
	out := make([]models.RecommendedMovie, 0, len(m.movies))
	for _, id := range m.movies {
		out = append(out, models.RecommendedMovie{Movie: models.Movie{ID: id}})
	}
	return out, nil
}

type fakeProvider struct {
	films       []movieapi.Film
	err         error
	lastLimit   int
	lastGenre   []string
	unknownOnly string
}

func (p *fakeProvider) Name() string     { return "fake" }
func (p *fakeProvider) Genres() []string { return movieapi.MainGenres }

func (p *fakeProvider) Search(_ context.Context, _ string, limit int) ([]movieapi.Film, error) {
	p.lastLimit = limit
	if p.err != nil {
		return nil, p.err
	}
	if len(p.films) > limit {
		return p.films[:limit], nil
	}
	return p.films, nil
}

func (p *fakeProvider) Details(_ context.Context, id string) (*movieapi.Film, error) {
	for _, f := range p.films {
		if f.ID == id {
			f := f
			return &f, nil
		}
	}
	return nil, movieapi.ErrNotFound
}

func (p *fakeProvider) Random(_ context.Context, genre string) (*movieapi.Film, error) {
	p.lastGenre = append(p.lastGenre, genre)
	if genre != "" && genre == p.unknownOnly {
		return nil, movieapi.ErrUnknownGenre
	}
	if len(p.films) == 0 {
		return nil, movieapi.ErrNotFound
	}
	f := p.films[0]
	return &f, nil
}
