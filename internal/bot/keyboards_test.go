package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/movieapi"
)

func TestMainMenuLayout(t *testing.T) {
	m := mainMenu()
	require.Len(t, m.ReplyKeyboard, 4)
	assert.Equal(t, btnProfile, m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, btnSearch, m.ReplyKeyboard[1][0].Text)
	assert.Equal(t, btnHelp, m.ReplyKeyboard[3][1].Text)
	assert.True(t, m.ResizeKeyboard)
}

func TestGenreKeyboardTwoPerRow(t *testing.T) {
	m := genreKeyboard(movieapi.MainGenres)
	require.Len(t, m.InlineKeyboard, (len(movieapi.MainGenres)+1)/2)
	for _, row := range m.InlineKeyboard {
		assert.LessOrEqual(t, len(row), 2)
	}
	first := m.InlineKeyboard[0][0]
	assert.Equal(t, cbGenre, first.Unique)
	assert.Equal(t, movieapi.MainGenres[0], first.Data)
}

func TestFilmListKeyboard(t *testing.T) {
	m := filmListKeyboard([]movieapi.Film{
		{Source: movieapi.SourceKinopoisk, ID: "301", Title: "Матрица", Year: 1999},
		{Source: movieapi.SourceTMDB, ID: "604", Title: "Матрица: Перезагрузка"},
	})
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "Матрица (1999)", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, cbFilm, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "kinopoisk:301", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "tmdb:604", m.InlineKeyboard[1][0].Data)
}

func TestFavoritesKeyboard(t *testing.T) {
	list := []models.FavoriteMovie{{Movie: models.Movie{ID: 9, Source: "kinopoisk", ExternalID: "301", Title: "Матрица"}}}
	m := favoritesKeyboard(list)
	require.Len(t, m.InlineKeyboard, 1)
	row := m.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "kinopoisk:301", row[0].Data)
	assert.Equal(t, cbFavDel, row[1].Unique)
	assert.Equal(t, "9", row[1].Data)
}

func TestFilmCardKeyboard(t *testing.T) {
	m := filmCardKeyboard(&movieapi.Film{Source: "tmdb", ID: "603"})
	require.Len(t, m.InlineKeyboard, 1)
	assert.Equal(t, cbFavAdd, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "tmdb:603", m.InlineKeyboard[0][0].Data)
}

func TestMailingKeyboards(t *testing.T) {
	confirm := mailingConfirmKeyboard()
	require.Len(t, confirm.InlineKeyboard, 1)
	assert.Equal(t, cbMailingConfirm, confirm.InlineKeyboard[0][0].Unique)
	assert.Equal(t, cbMailingCancel, confirm.InlineKeyboard[0][1].Unique)

	cancel := mailingCancelKeyboard()
	assert.Equal(t, cbMailingCancel, cancel.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "❌ Отмена", cancel.InlineKeyboard[0][0].Text)
}
