package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/movieapi"
)

type movieFixture struct {
	svc      *MovieService
	users    *memUsers
	movies   *memMovies
	favs     *memFavorites
	history  *memHistory
	recs     *memRecommendations
	provider *fakeProvider
}

func newMovieFixture(films ...movieapi.Film) *movieFixture {
	f := &movieFixture{
		users:    newMemUsers(),
		movies:   newMemMovies(),
		favs:     &memFavorites{},
		history:  &memHistory{},
		recs:     &memRecommendations{},
		provider: &fakeProvider{films: films},
	}
	f.svc = NewMovieService(f.provider, MovieStores{
		Users:           f.users,
		Movies:          f.movies,
		Favorites:       f.favs,
		History:         f.history,
		Recommendations: f.recs,
	}, 0)
	return f
}

var testFilms = []movieapi.Film{
	{Source: "fake", ID: "1", Title: "Матрица", Year: 1999, ReleaseDate: "1999-03-31", Genres: []string{"фантастика", "боевик"}},
	{Source: "fake", ID: "2", Title: "Матрица: Перезагрузка", Year: 2003},
	{Source: "fake", ID: "3", Title: "Матрица: Революция", Year: 2003},
	{Source: "fake", ID: "4", Title: "Аниматрица", Year: 2003},
	{Source: "fake", ID: "5", Title: "Матрица времени", Year: 2005},
	{Source: "fake", ID: "6", Title: "Матрица 4", Year: 2021},
}

func TestSearchRejectsShortQuery(t *testing.T) {
	f := newMovieFixture(testFilms...)
	_, err := f.svc.Search(context.Background(), 1, " м ")
	assert.ErrorIs(t, err, ErrQueryTooShort)
	assert.Empty(t, f.history.queries)
}

func TestSearchLimitsAndRecordsHistory(t *testing.T) {
	f := newMovieFixture(testFilms...)
	f.users.add(10)
	ctx := context.Background()

	films, err := f.svc.Search(ctx, 10, "  матрица ")
	require.NoError(t, err)
	assert.Len(t, films, DefaultSearchLimit)
	assert.Equal(t, DefaultSearchLimit, f.provider.lastLimit)

	// unregistered users can search but leave no history
	_, err = f.svc.Search(ctx, 99, "матрица")
	require.NoError(t, err)

	hist, err := f.svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "матрица", hist[0].Query)
	assert.Len(t, f.history.queries, 1)
}

func TestSearchProviderError(t *testing.T) {
	f := newMovieFixture()
	f.provider.err = errors.New("timeout")
	_, err := f.svc.Search(context.Background(), 1, "матрица")
	require.Error(t, err)
}

func TestFavorites(t *testing.T) {
	f := newMovieFixture(testFilms...)
	f.users.add(10)
	ctx := context.Background()

	film, added, err := f.svc.AddFavorite(ctx, 10, "fake", "1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Матрица", film.Title)

	_, added, err = f.svc.AddFavorite(ctx, 10, "fake", "1")
	require.NoError(t, err)
	assert.False(t, added, "duplicate favorite is ignored")

	stored, err := f.movies.GetByExternalID(ctx, "fake", "1")
	require.NoError(t, err)
	require.NotNil(t, stored.ReleaseDate)
	assert.Equal(t, 1999, stored.ReleaseDate.Year())
	assert.Len(t, stored.Genres, 2)

	list, err := f.svc.Favorites(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	removed, err := f.svc.RemoveFavorite(ctx, 10, list[0].ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, _, err = f.svc.AddFavorite(ctx, 11, "fake", "1")
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, _, err = f.svc.AddFavorite(ctx, 10, "fake", "404")
	assert.ErrorIs(t, err, movieapi.ErrNotFound)
}

func TestRecommend(t *testing.T) {
	f := newMovieFixture(testFilms...)
	f.users.add(10)
	ctx := context.Background()

	film, genre, err := f.svc.Recommend(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, genre, "no favorites means any genre")
	assert.Equal(t, "1", film.ID)

	f.movies.top = "фантастика"
	_, genre, err = f.svc.Recommend(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "фантастика", genre)

	f.movies.top = "арт-хаус"
	f.provider.unknownOnly = "арт-хаус"
	_, genre, err = f.svc.Recommend(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, genre)

	assert.Equal(t, []string{"", "фантастика", "арт-хаус", ""}, f.provider.lastGenre)

	recs, err := f.svc.Recommendations(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestFilmToMovieSkipsBlankGenres(t *testing.T) {
	m := FilmToMovie(movieapi.Film{Source: "kinopoisk", ID: "9", Title: "X", Genres: []string{"драма", " "}})
	assert.Equal(t, "9", m.ExternalID)
	assert.Nil(t, m.ReleaseDate)
	require.Len(t, m.Genres, 1)
	assert.Equal(t, "драма", m.Genres[0].Name)
}

func TestLookupSkipsHistory(t *testing.T) {
	f := newMovieFixture(testFilms...)
	f.users.add(10)

	films, err := f.svc.Lookup(context.Background(), "матрица")
	require.NoError(t, err)
	assert.NotEmpty(t, films)
	assert.Empty(t, f.history.queries)

	_, err = f.svc.Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrQueryTooShort)
}
