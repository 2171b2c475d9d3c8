package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/keyboard"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleSearch(c tele.Context) error {
	return tghelpers.SendHTML(c, msgSearchMenu, searchMenu())
}

func (a *App) cbSearchTitle(c tele.Context) error {
	if err := a.fsm.SetState(tghelpers.BuildContext(c), c.Sender().ID, StateSearchTitle); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, msgAskTitle, keyboard.ForceReply())
}

func (a *App) searchTitle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID

	films, err := a.movies.Search(ctx, id, c.Text())
	if errors.Is(err, service.ErrQueryTooShort) {
		return tghelpers.SendHTML(c, msgQueryTooShort)
	}
	if clearErr := a.fsm.Clear(ctx, id); clearErr != nil {
		return clearErr
	}
	if err != nil {
		logger.Warn(ctx, "app", "search.fail", slog.String("err", err.Error()))
		return tghelpers.SendHTML(c, msgNothingFound)
	}

	switch len(films) {
	case 0:
		return tghelpers.SendHTML(c, msgNothingFound)
	case 1:
		return a.sendFilm(c, &films[0], "")
	default:
		return tghelpers.SendHTML(c, msgChooseFilm, filmListKeyboard(films))
	}
}

func (a *App) cbRandomMovie(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	film, err := a.movies.Random(ctx, "")
	if err != nil {
		logger.Warn(ctx, "app", "random.fail", slog.String("err", err.Error()))
		return tghelpers.SendHTML(c, msgRandomFailed)
	}
	return a.sendFilm(c, film, "")
}

func (a *App) cbRandomGenre(c tele.Context) error {
	return tghelpers.EditOrSendHTML(c, msgChooseGenre, genreKeyboard(a.movies.Genres()))
}

func (a *App) cbGenre(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	genre := callbacks.CallbackPayload(c)
	film, err := a.movies.Random(ctx, genre)
	if err != nil {
		logger.Warn(ctx, "app", "random.fail",
			slog.String("genre", genre),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendHTML(c, fmt.Sprintf(msgGenreFailedFmt, genre))
	}
	return a.sendFilm(c, film, "")
}

func (a *App) cbFilm(c tele.Context) error {
	parts, err := callbacks.PayloadParts(c, 2)
	if err != nil {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	}
	ctx := tghelpers.BuildContext(c)
	film, err := a.movies.Details(ctx, parts[0], parts[1])
	if err != nil {
		logger.Warn(ctx, "app", "details.fail",
			slog.String("film", callbacks.CallbackPayload(c)),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendHTML(c, msgFilmUnavailable)
	}
	return a.sendFilm(c, film, "")
}

func (a *App) cbFavAdd(c tele.Context) error {
	parts, err := callbacks.PayloadParts(c, 2)
	if err != nil {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	}
	_, added, err := a.movies.AddFavorite(tghelpers.BuildContext(c), c.Sender().ID, parts[0], parts[1])
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		return a.notRegistered(c)
	case errors.Is(err, movieapi.ErrNotFound):
		return tghelpers.Answer(c, msgFilmUnavailable, true)
	case err != nil:
		return a.fail(c, "favorites.add", err)
	case !added:
		return tghelpers.Answer(c, msgFavExists, false)
	}
	return tghelpers.Answer(c, msgFavAdded, false)
}

func (a *App) cbFavDel(c tele.Context) error {
	movieID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.Answer(c, msgUnknownCallback, false)
	}
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID
	if _, err := a.movies.RemoveFavorite(ctx, id, movieID); err != nil {
		if errors.Is(err, service.ErrNotRegistered) {
			return a.notRegistered(c)
		}
		return a.fail(c, "favorites.remove", err)
	}
	list, err := a.movies.Favorites(ctx, id)
	if err != nil {
		return a.fail(c, "favorites.list", err)
	}
	if err := tghelpers.EditOrSendHTML(c, favoritesText(list), favoritesKeyboard(list)); err != nil {
		logger.Warn(ctx, "app", "favorites.refresh", slog.String("err", err.Error()))
	}
	return tghelpers.Answer(c, msgFavRemoved, false)
}

func (a *App) handleFavorites(c tele.Context) error {
	list, err := a.movies.Favorites(tghelpers.BuildContext(c), c.Sender().ID)
	if errors.Is(err, service.ErrNotRegistered) {
		return a.notRegistered(c)
	}
	if err != nil {
		return a.fail(c, "favorites.list", err)
	}
	if len(list) == 0 {
		return tghelpers.SendHTML(c, msgFavEmpty)
	}
	return tghelpers.SendHTML(c, favoritesText(list), favoritesKeyboard(list))
}

func (a *App) handleHistory(c tele.Context) error {
	list, err := a.movies.History(tghelpers.BuildContext(c), c.Sender().ID)
	if errors.Is(err, service.ErrNotRegistered) {
		return a.notRegistered(c)
	}
	if err != nil {
		return a.fail(c, "history.list", err)
	}
	return tghelpers.SendHTML(c, historyText(list, a.cfg.Reports.Location()))
}

func (a *App) handleRecommend(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	film, genre, err := a.movies.Recommend(ctx, c.Sender().ID)
	if errors.Is(err, service.ErrNotRegistered) {
		return a.notRegistered(c)
	}
	if err != nil {
		logger.Warn(ctx, "app", "recommend.fail", slog.String("err", err.Error()))
		return tghelpers.SendHTML(c, msgRecommendFailed)
	}
	return a.sendFilm(c, film, recommendHeader(genre))
}

// sendFilm shows a movie card, as a photo when a poster is known.
func (a *App) sendFilm(c tele.Context, f *movieapi.Film, header string) error {
	return tghelpers.SendPhotoHTML(c, f.PosterURL, filmCaption(f, header), filmCardKeyboard(f))
}
