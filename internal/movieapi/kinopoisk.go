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
	// SourceKinopoisk identifies films from the Kinopoisk unofficial API.
	SourceKinopoisk = "kinopoisk"

	defaultKinopoiskBaseURL = "https://kinopoiskapiunofficial.tech/api"
)

var kinopoiskGenres = map[string]int{
	"комедия":    13,
	"драма":      2,
	"боевик":     11,
	"фантастика": 6,
	"ужасы":      17,
	"триллер":    1,
	"мелодрама":  4,
	"детектив":   5,
	"мультфильм": 18,
	"фэнтези":    12,
}

// Kinopoisk is a client for kinopoiskapiunofficial.tech.
type Kinopoisk struct {
	baseURL string
	token   string
	hc      *http.Client
	randInt func(n int) int
}

// NewKinopoisk builds a client. An empty baseURL selects the public endpoint.
func NewKinopoisk(hc *http.Client, baseURL, token string) *Kinopoisk {
	if baseURL == "" {
		baseURL = defaultKinopoiskBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Kinopoisk{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      hc,
		randInt: rand.IntN,
	}
}

func (k *Kinopoisk) Name() string { return SourceKinopoisk }

func (k *Kinopoisk) Genres() []string { return MainGenres }

// kpFilm covers both the v2.1 search payload and the v2.2 details payload.
type kpFilm struct {
	FilmID           int           `json:"filmId"`
	KinopoiskID      int           `json:"kinopoiskId"`
	NameRu           string        `json:"nameRu"`
	NameEn           string        `json:"nameEn"`
	NameOriginal     string        `json:"nameOriginal"`
	Year             flexString    `json:"year"`
	Rating           flexString    `json:"rating"`
	RatingKinopoisk  *float64      `json:"ratingKinopoisk"`
	RatingImdb       *float64      `json:"ratingImdb"`
	Description      string        `json:"description"`
	ShortDescription string        `json:"shortDescription"`
	PosterURL        string        `json:"posterUrl"`
	PosterURLPreview string        `json:"posterUrlPreview"`
	Genres           []kpGenreName `json:"genres"`
}

type kpGenreName struct {
	Genre string `json:"genre"`
}

// flexString accepts JSON strings, numbers and null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

func (k *Kinopoisk) normalize(f kpFilm) (Film, bool) {
	id := f.FilmID
	if id == 0 {
		id = f.KinopoiskID
	}
	if id == 0 {
		return Film{}, false
	}
	title := firstNonEmpty(f.NameRu, f.NameEn, f.NameOriginal, "Без названия")

	var rating float64
	switch {
	case f.RatingKinopoisk != nil:
		rating = *f.RatingKinopoisk
	case f.RatingImdb != nil:
		rating = *f.RatingImdb
	default:
		// search payload carries "7.5" or "88%" style strings
		r := strings.TrimSuffix(string(f.Rating), "%")
		if v, err := strconv.ParseFloat(r, 64); err == nil {
			if strings.HasSuffix(string(f.Rating), "%") {
				v /= 10
			}
			rating = v
		}
	}
	year, _ := strconv.Atoi(string(f.Year))

	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		if name := normalizeGenre(g.Genre); name != "" {
			genres = append(genres, name)
		}
	}
	return Film{
		Source:    SourceKinopoisk,
		ID:        strconv.Itoa(id),
		Title:     title,
		Year:      year,
		Rating:    rating,
		Overview:  firstNonEmpty(f.Description, f.ShortDescription),
		PosterURL: firstNonEmpty(f.PosterURLPreview, f.PosterURL),
		Genres:    genres,
		URL:       fmt.Sprintf("https://www.kinopoisk.ru/film/%d/", id),
	}, true
}

func (k *Kinopoisk) get(ctx context.Context, path string, params url.Values, out any) error {
	u := k.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("kinopoisk: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", k.token)
	req.Header.Set("Accept", "application/json")

	resp, err := k.hc.Do(req)
	if err != nil {
		return fmt.Errorf("kinopoisk: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(SourceKinopoisk, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("kinopoisk: decode: %w", err)
	}
	return nil
}

// Search queries /v2.1/films/search-by-keyword.
func (k *Kinopoisk) Search(ctx context.Context, query string, limit int) ([]Film, error) {
	var payload struct {
		Films []kpFilm `json:"films"`
	}
	params := url.Values{"keyword": {query}, "page": {"1"}}
	if err := k.get(ctx, "/v2.1/films/search-by-keyword", params, &payload); err != nil {
		return nil, err
	}
	films := make([]Film, 0, limit)
	for _, raw := range payload.Films {
		if limit > 0 && len(films) >= limit {
			break
		}
		if f, ok := k.normalize(raw); ok {
			films = append(films, f)
		}
	}
	return films, nil
}

// Details queries /v2.2/films/{id}.
func (k *Kinopoisk) Details(ctx context.Context, id string) (*Film, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("kinopoisk: invalid film id %q", id)
	}
	var raw kpFilm
	if err := k.get(ctx, "/v2.2/films/"+id, nil, &raw); err != nil {
		return nil, err
	}
	f, ok := k.normalize(raw)
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

// Random picks a film from a random page (1..5) of the top rated list.
func (k *Kinopoisk) Random(ctx context.Context, genre string) (*Film, error) {
	params := url.Values{
		"order": {"RATING"},
		"type":  {"FILM"},
		"page":  {strconv.Itoa(k.randInt(5) + 1)},
	}
	if genre = normalizeGenre(genre); genre != "" {
		id, ok := kinopoiskGenres[genre]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGenre, genre)
		}
		params.Set("genres", strconv.Itoa(id))
	}
	var payload struct {
		Items []kpFilm `json:"items"`
		Films []kpFilm `json:"films"`
	}
	if err := k.get(ctx, "/v2.2/films", params, &payload); err != nil {
		return nil, err
	}
	items := payload.Items
	if len(items) == 0 {
		items = payload.Films
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	f, ok := k.normalize(items[k.randInt(len(items))])
	if !ok {
		return nil, ErrNotFound
	}
	if genre != "" && !containsString(f.Genres, genre) {
		f.Genres = append(f.Genres, genre)
	}
	return &f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
