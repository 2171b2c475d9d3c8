package bot

import (
	"strconv"

	"github.com/m3rciful/kinobot/core/telegram/callbacks"
	"github.com/m3rciful/kinobot/core/telegram/keyboard"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/movieapi"
	"github.com/m3rciful/kinobot/internal/service"

	tele "gopkg.in/telebot.v4"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.Reply(
		[]string{btnProfile, btnUpdateProfile},
		[]string{btnSearch},
		[]string{btnFavorites, btnHistory},
		[]string{btnRecommend, btnHelp},
	)
}

func sexKeyboard() *tele.ReplyMarkup {
	return keyboard.Reply([]string{btnMale, btnFemale}, []string{btnCancel})
}

func cancelKeyboard() *tele.ReplyMarkup {
	return keyboard.Reply([]string{btnCancel})
}

func searchMenu() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "🔎 Найти по названию", Unique: cbSearchTitle},
		keyboard.Button{Text: "🎲 Случайный фильм", Unique: cbRandomMovie},
		keyboard.Button{Text: "🎭 Случайный по жанру", Unique: cbRandomGenre},
	)
}

func genreKeyboard(genres []string) *tele.ReplyMarkup {
	btns := make([]keyboard.Button, 0, len(genres))
	for _, g := range genres {
		btns = append(btns, keyboard.Button{Text: g, Unique: cbGenre, Data: g})
	}
	return keyboard.Grid(2, btns...)
}

func filmRef(source, id string) string {
	return callbacks.Payload(source, id)
}

// filmListKeyboard lists search results, one film per row.
func filmListKeyboard(films []movieapi.Film) *tele.ReplyMarkup {
	btns := make([]keyboard.Button, 0, len(films))
	for _, f := range films {
		btns = append(btns, keyboard.Button{
			Text:   filmButtonText(f.Title, f.Year),
			Unique: cbFilm,
			Data:   filmRef(f.Source, f.ID),
		})
	}
	return keyboard.Column(btns...)
}

func filmCardKeyboard(f *movieapi.Film) *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "⭐ В избранное", Unique: cbFavAdd, Data: filmRef(f.Source, f.ID)},
	)
}

// favoritesKeyboard pairs every favorite with an open and a remove button.
func favoritesKeyboard(list []models.FavoriteMovie) *tele.ReplyMarkup {
	rows := make([][]keyboard.Button, 0, len(list))
	for _, m := range list {
		rows = append(rows, []keyboard.Button{
			{Text: filmButtonText(m.Title, m.Year), Unique: cbFilm, Data: filmRef(m.Source, m.ExternalID)},
			{Text: "❌", Unique: cbFavDel, Data: strconv.FormatInt(m.ID, 10)},
		})
	}
	return keyboard.Inline(rows...)
}

func profileEditKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "Имя", Unique: cbProfileEdit, Data: string(service.FieldName)},
		{Text: "Возраст", Unique: cbProfileEdit, Data: string(service.FieldAge)},
		{Text: "Пол", Unique: cbProfileEdit, Data: string(service.FieldSex)},
	})
}

func adminPanel() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "📊 Статистика", Unique: cbAdminStats},
		keyboard.Button{Text: "📨 Рассылка", Unique: cbAdminMailing},
	)
}

func mailingConfirmKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "✅ Отправить", Unique: cbMailingConfirm},
		{Text: "❌ Отмена", Unique: cbMailingCancel},
	})
}

func mailingCancelKeyboard() *tele.ReplyMarkup {
	return keyboard.Column(keyboard.Button{Text: "❌ Отмена", Unique: cbMailingCancel})
}

func adminBackKeyboard() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Button{Text: "🔙 В админ-панель", Unique: cbAdminBack},
	)
}
