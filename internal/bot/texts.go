package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/kinobot/core/telegram/format"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/service"
)

// Reply keyboard labels double as command aliases.
const (
	btnProfile       = "Профиль"
	btnUpdateProfile = "Изменить профиль"
	btnSearch        = "Поиск фильмов"
	btnFavorites     = "Избранное"
	btnHistory       = "История"
	btnRecommend     = "Рекомендация"
	btnHelp          = "Помощь"
	btnCancel        = "Отмена"
	btnMale          = "Мужской"
	btnFemale        = "Женский"
)

const (
	msgAlreadyRegistered = "Вы уже зарегистрированы!"
	msgAskName           = "Привет! Давай зарегистрируем тебя. Как тебя зовут?"
	msgAskAge            = "Отлично! Сколько тебе лет?"
	msgAskSex            = "Отлично! Укажи свой пол (мужской/женский)."
	msgBadName           = "Имя должно содержать от 1 до 64 символов."
	msgAgeNotNumber      = "Пожалуйста, введите число."
	msgBadAge            = "Пожалуйста, введите корректный возраст (от 0 до 120)."
	msgBadSex            = "Пожалуйста, выберите 'мужской' или 'женский'."
	msgNotRegistered     = "Сначала зарегистрируйтесь: /start"
	msgCanceled          = "Действие отменено."
	msgNothingToCancel   = "Нечего отменять."
	msgInternalError     = "Что-то пошло не так, попробуйте позже."

	msgProfileChoose  = "Что изменить?"
	msgAskNewName     = "Введите новое имя:"
	msgAskNewAge      = "Введите новый возраст:"
	msgAskNewSex      = "Выберите пол:"
	msgProfileUpdated = "Профиль обновлён."

	msgSearchMenu      = "🎬 Поиск фильмов"
	msgAskTitle        = "Введите название фильма:"
	msgQueryTooShort   = "Введите минимум 2 символа"
	msgNothingFound    = "Ничего не найдено"
	msgChooseFilm      = "Выберите фильм:"
	msgChooseGenre     = "Выберите жанр:"
	msgFilmUnavailable = "Не удалось загрузить информацию о фильме"
	msgRandomFailed    = "Не удалось найти случайный фильм"
	msgGenreFailedFmt  = "Не удалось найти фильм в жанре %s"
	msgFavAdded        = "Добавлено в избранное"
	msgFavExists       = "Уже в избранном"
	msgFavRemoved      = "Удалено из избранного"
	msgFavEmpty        = "В избранном пока пусто. Найдите фильм и нажмите «⭐ В избранное»."
	msgHistoryEmpty    = "История поиска пуста."
	msgRecommendFailed = "Не удалось подобрать рекомендацию"

	msgAdminPanel      = "👨‍💻 Админ-панель:"
	msgAskMailingText  = "Отправьте текст рассылки. Жирный, курсив, ссылки и другое форматирование Telegram сохранятся."
	msgMailingBadHTML  = "Не удалось отобразить сообщение: проверьте HTML-разметку и отправьте текст ещё раз."
	msgMailingUseKeys  = "Подтвердите или отмените рассылку кнопками под сообщением."
	msgMailingCanceled = "Рассылка отменена."
	msgMailingRunning  = "Рассылка уже идёт, дождитесь её завершения."
	msgMailingPrepare  = "⏳ Подготовка к рассылке..."
	msgMailingEmpty    = "Текст рассылки пуст."

	msgUnknownText     = "Не понимаю 🤔 Воспользуйтесь меню или /help"
	msgUnknownDocument = "Файлы не поддерживаются."
	msgUnknownCallback = "Действие устарело"
	msgRateLimited     = "Слишком часто, подождите секунду."
)

const helpText = `<b>Кинобот</b> помогает искать фильмы.

/start — регистрация
/profile — ваш профиль
/update_profile — изменить профиль
/search — поиск фильмов
/favorites — избранное
/history — история поиска
/recommend — рекомендация по любимому жанру
/cancel — отменить текущее действие

Фильмы можно искать и в любом чате: наберите @имя_бота и название.`

const dateLayout = "02.01.2006"

func welcomeText(name string) string {
	return fmt.Sprintf("Спасибо, %s! Ты успешно зарегистрирован.", format.EscapeHTML(name))
}

// profileText renders the user's profile card.
func profileText(u *models.User) string {
	age := "не указан"
	if n := format.Deref(u.Age, -1); n >= 0 {
		age = strconv.Itoa(n)
	}
	var b strings.Builder
	b.WriteString("👤 <b>Профиль</b>\n\n")
	fmt.Fprintf(&b, "Имя: %s\n", format.EscapeHTML(u.FirstName))
	if last := format.Deref(u.LastName, ""); last != "" {
		fmt.Fprintf(&b, "Фамилия: %s\n", format.EscapeHTML(last))
	}
	fmt.Fprintf(&b, "Возраст: %s\n", age)
	fmt.Fprintf(&b, "Пол: %s\n", service.SexLabel(u.Sex))
	fmt.Fprintf(&b, "Зарегистрирован: %s", u.CreatedAt.Format(dateLayout))
	return b.String()
}

func formatRating(r float64) string {
	if r <= 0 {
		return "нет данных"
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// filmCaption renders a movie card as HTML. It stays below the 1024
// character photo caption limit.
func filmCaption(f *movieapi.Film, header string) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "🎬 <b>%s</b>\n", format.EscapeHTML(f.Title))
	if f.Year > 0 {
		fmt.Fprintf(&b, "📅 Год: %d\n", f.Year)
	}
	fmt.Fprintf(&b, "⭐ Рейтинг: %s\n", formatRating(f.Rating))
	if len(f.Genres) > 0 {
		fmt.Fprintf(&b, "🎭 Жанры: %s\n", format.EscapeHTML(strings.Join(f.Genres, ", ")))
	}
	if f.Overview != "" {
		fmt.Fprintf(&b, "\n%s\n", format.EscapeHTML(format.Truncate(f.Overview, 400)))
	}
	if f.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", format.EscapeHTML(f.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

// filmButtonText labels a film in result lists.
func filmButtonText(title string, year int) string {
	title = format.Truncate(title, 48)
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

func favoritesText(list []models.FavoriteMovie) string {
	if len(list) == 0 {
		return msgFavEmpty
	}
	var b strings.Builder
	b.WriteString("⭐ <b>Избранное</b>\n")
	for i, m := range list {
		fmt.Fprintf(&b, "\n%d. %s", i+1, format.EscapeHTML(filmButtonText(m.Title, m.Year)))
		if m.Rating > 0 {
			fmt.Fprintf(&b, " — ⭐ %s", formatRating(m.Rating))
		}
	}
	return b.String()
}

func historyText(list []models.SearchHistory, loc *time.Location) string {
	if len(list) == 0 {
		return msgHistoryEmpty
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Последние запросы</b>\n")
	for i, h := range list {
		fmt.Fprintf(&b, "\n%d. %s — %s", i+1, format.EscapeHTML(h.Query), h.SearchedAt.In(loc).Format("02.01 15:04"))
	}
	return b.String()
}

func recommendHeader(genre string) string {
	if genre == "" {
		return "🎯 <b>Рекомендация</b>"
	}
	return fmt.Sprintf("🎯 <b>Рекомендация</b> (жанр: %s)", format.EscapeHTML(genre))
}

// StatsText renders admin statistics; the daily report uses it too.
func StatsText(st *models.Stats) string {
	return fmt.Sprintf("📊 <b>Статистика бота</b>\n\n"+
		"👥 Всего пользователей: %d\n"+
		"🟢 Активных: %d\n"+
		"🆕 Новых сегодня: %d\n"+
		"🔍 Поисков сегодня: %d\n"+
		"⭐ В избранном: %d",
		st.TotalUsers, st.ActiveUsers, st.NewToday, st.SearchesToday, st.FavoritesTotal)
}

func mailingPreview(text string) string {
	return "Подтвердите рассылку:\n\n" + text + "\n\nБудет отправлено всем пользователям бота."
}

// progressBar draws a ten cell bar for done out of total.
func progressBar(done, total int) string {
	const cells = 10
	filled := cells
	if total > 0 {
		filled = done * cells / total
	}
	if filled > cells {
		filled = cells
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", cells-filled)
}

func progressText(p service.Progress) string {
	pct := 100.0
	if p.Total > 0 {
		pct = float64(p.Done) * 100 / float64(p.Total)
	}
	return fmt.Sprintf("⏳ Рассылка в процессе...\n\n%s\n📊 %d/%d (%.1f%%)\n✅ %d | ❌ %d",
		progressBar(p.Done, p.Total), p.Done, p.Total, pct, p.Success, p.Failed)
}

func reportText(r *service.Report) string {
	footer := "<i>Рассылка завершена</i>"
	if r.Canceled {
		footer = "<i>Рассылка прервана</i>"
	}
	return fmt.Sprintf("📊 <b>Отчет о рассылке</b>\n\n"+
		"▪️ Всего пользователей: %d\n"+
		"✅ Успешно отправлено: %d\n"+
		"❌ Не удалось отправить: %d\n"+
		"🚫 Заблокировали бота: %d\n"+
		"⏱ Длительность: %s\n\n%s",
		r.Total, r.Success, r.Failed, r.Blocked, r.Duration.Round(time.Second), footer)
}
