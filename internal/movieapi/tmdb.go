package movieapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// SourceTMDB identifies films from The Movie Database.
	SourceTMDB = "tmdb"

	defaultTMDBBaseURL = "https://api.themoviedb.org/3"
	tmdbPosterBase     = "https://image.tmdb.org/t/p/w500"
)

var tmdbGenres = map[string]int{
	"комедия":    35,
	"драма":      18,
	"боевик":     28,
	"фантастика": 878,
	"ужасы":      27,
	"триллер":    53,
	"мелодрама":  10749,
	"детектив":   9648,
	"мультфильм": 16,
	"фэнтези":    14,
}

// TMDB is a client for The Movie Database v3 API.
type TMDB struct {
	baseURL  string
	apiKey   string
	language string
	hc       *http.Client
	randInt  func(n int) int
	names    map[int]string
}

// NewTMDB builds a client. Empty baseURL and language select defaults.
func NewTMDB(hc *http.Client, baseURL, apiKey, language string) *TMDB {
	if baseURL == "" {
		baseURL = defaultTMDBBaseURL
	}
	if language == "" {
		language = "ru-RU"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	names := make(map[int]string, len(tmdbGenres))
	for name, id := range tmdbGenres {
		names[id] = name
	}
	return &TMDB{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		language: language,
		hc:       hc,
		randInt:  rand.IntN,
		names:    names,
	}
}

func (t *TMDB) Name() string { return SourceTMDB }

func (t *TMDB) Genres() []string { return MainGenres }

type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Original    string  `json:"original_title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	Genres      []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbPage struct {
	Page    int         `json:"page"`
	Results []tmdbMovie `json:"results"`
}

func (t *TMDB) normalize(m tmdbMovie) (Film, bool) {
	if m.ID == 0 {
		return Film{}, false
	}
	f := Film{
		Source:      SourceTMDB,
		ID:          strconv.Itoa(m.ID),
		Title:       firstNonEmpty(m.Title, m.Original, "Без названия"),
		Rating:      m.VoteAverage,
		Overview:    strings.TrimSpace(m.Overview),
		ReleaseDate: m.ReleaseDate,
		URL:         fmt.Sprintf("https://www.themoviedb.org/movie/%d", m.ID),
	}
	if d, ok := ParseReleaseDate(m.ReleaseDate); ok {
		f.Year = d.Year()
	}
	if m.PosterPath != "" {
		f.PosterURL = tmdbPosterBase + m.PosterPath
	}
	for _, g := range m.Genres {
		f.Genres = append(f.Genres, normalizeGenre(g.Name))
	}
	if len(f.Genres) == 0 {
		for _, id := range m.GenreIDs {
			if name, ok := t.names[id]; ok {
				f.Genres = append(f.Genres, name)
			}
		}
	}
	return f, true
}

func (t *TMDB) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", t.apiKey)
	params.Set("language", t.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(SourceTMDB, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb: decode: %w", err)
	}
	return nil
}

// Search queries /search/movie.
func (t *TMDB) Search(ctx context.Context, query string, limit int) ([]Film, error) {
	var page tmdbPage
	params := url.Values{"query": {query}, "page": {"1"}, "include_adult": {"false"}}
	if err := t.get(ctx, "/search/movie", params, &page); err != nil {
		return nil, err
	}
	films := make([]Film, 0, limit)
	for _, m := range page.Results {
		if limit > 0 && len(films) >= limit {
			break
		}
		if f, ok := t.normalize(m); ok {
			films = append(films, f)
		}
	}
	return films, nil
}

// Details queries /movie/{id}.
func (t *TMDB) Details(ctx context.Context, id string) (*Film, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("tmdb: invalid film id %q", id)
	}
	var m tmdbMovie
	if err := t.get(ctx, "/movie/"+id, nil, &m); err != nil {
		return nil, err
	}
	f, ok := t.normalize(m)
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

// Random picks a film from a random page (1..5) of /discover/movie sorted by score.
func (t *TMDB) Random(ctx context.Context, genre string) (*Film, error) {
	params := url.Values{
		"sort_by":        {"vote_average.desc"},
		"vote_count.gte": {"500"},
		"page":           {strconv.Itoa(t.randInt(5) + 1)},
	}
	if genre = normalizeGenre(genre); genre != "" {
		id, ok := tmdbGenres[genre]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGenre, genre)
		}
		params.Set("with_genres", strconv.Itoa(id))
	}
	var page tmdbPage
	if err := t.get(ctx, "/discover/movie", params, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, ErrNotFound
	}
	f, ok := t.normalize(page.Results[t.randInt(len(page.Results))])
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}
