package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/core/telegram/format"
	tghelpers "github.com/m3rciful/kinobot/core/telegram/helpers"
	"github.com/m3rciful/kinobot/core/telegram/ui"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

const inlineCacheSeconds = 300

// onInlineQuery answers "@bot title" queries from any chat. Inline lookups
// are not written to the search history.
func (a *App) onInlineQuery(c tele.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	films, err := a.movies.Lookup(ctx, q.Text)
	if err != nil && !errors.Is(err, service.ErrQueryTooShort) {
		logger.Warn(ctx, "app", "inline.fail", slog.String("err", err.Error()))
	}

	results := make(tele.Results, 0, len(films))
	for _, f := range films {
		r, err := inlineResult(f)
		if err != nil {
			logger.Warn(ctx, "app", "inline.render", slog.String("err", err.Error()))
			continue
		}
		results = append(results, r)
	}
	return c.Answer(&tele.QueryResponse{Results: results, CacheTime: inlineCacheSeconds})
}

// inlineResult renders a film as a MarkdownV2 article.
func inlineResult(f movieapi.Film) (*tele.ArticleResult, error) {
	title, err := format.EscapeMarkdown(f.Title, format.MarkdownV2)
	if err != nil {
		return nil, err
	}
	details := fmt.Sprintf("📅 %s · ⭐ %s", yearLabel(f.Year), formatRating(f.Rating))
	escDetails, err := format.EscapeMarkdown(details, format.MarkdownV2)
	if err != nil {
		return nil, err
	}
	lines := []string{"🎬 *" + title + "*", escDetails}
	if f.URL != "" {
		u, err := format.EscapeMarkdown(f.URL, format.MarkdownV2)
		if err != nil {
			return nil, err
		}
		lines = append(lines, u)
	}

	text := strings.Join(lines, "\n")
	return ui.Article{
		ID:          filmRef(f.Source, f.ID),
		Title:       filmButtonText(f.Title, f.Year),
		Description: details,
		ThumbURL:    f.PosterURL,
		Text:        text,
	}.Result(), nil
}

func yearLabel(year int) string {
	if year <= 0 {
		return "—"
	}
	return strconv.Itoa(year)
}
