package bot

import "github.com/m3rciful/kinobot/core/telegram/state"

const (
	StateRegName state.State = "reg.name"
	StateRegAge  state.State = "reg.age"
	StateRegSex  state.State = "reg.sex"

	StateProfileName state.State = "profile.name"
	StateProfileAge  state.State = "profile.age"
	StateProfileSex  state.State = "profile.sex"

	StateSearchTitle state.State = "search.title"

	StateMailingText    state.State = "admin.mailing.text"
	StateMailingConfirm state.State = "admin.mailing.confirm"
)

// session data keys
const (
	keyName        = "name"
	keyAge         = "age"
	keyMailingText = "mailing_text"
)

// Callback keys (telebot "unique" values).
const (
	cbSearchTitle    = "search_title"
	cbRandomMovie    = "random_movie"
	cbRandomGenre    = "random_genre"
	cbGenre          = "genre"
	cbFilm           = "film"
	cbFavAdd         = "fav_add"
	cbFavDel         = "fav_del"
	cbProfileEdit    = "profile_edit"
	cbAdminStats     = "admin_stats"
	cbAdminMailing   = "admin_mailing"
	cbAdminBack      = "admin_back"
	cbMailingConfirm = "mailing_confirm"
	cbMailingCancel  = "mailing_cancel"
)
