// Package models defines the persisted entities of the bot.
package models

import "time"

// Sex values stored in users.sex.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// User is a registered bot user.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   *string   `db:"username"`
	FirstName  string    `db:"first_name"`
	LastName   *string   `db:"last_name"`
	Age        *int      `db:"age"`
	Sex        *string   `db:"sex"`
	CreatedAt  time.Time `db:"created_at"`
	IsActive   bool      `db:"is_active"`
}

// Movie is a film cached from a metadata provider.
type Movie struct {
	ID          int64      `db:"id"`
	Source      string     `db:"source"`
	ExternalID  string     `db:"external_id"`
	Title       string     `db:"title"`
	Overview    string     `db:"overview"`
	ReleaseDate *time.Time `db:"release_date"`
	Year        int        `db:"year"`
	Rating      float64    `db:"rating"`
	PosterURL   string     `db:"poster_url"`

	Genres []Genre `db:"-"`
}

// Genre is a movie genre; names are unique.
type Genre struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Favorite links a user to a movie they saved.
type Favorite struct {
	ID      int64     `db:"id"`
	UserID  int64     `db:"user_id"`
	MovieID int64     `db:"movie_id"`
	AddedAt time.Time `db:"added_at"`
}

// FavoriteMovie is a favorite joined with its movie.
type FavoriteMovie struct {
	Movie
	AddedAt time.Time `db:"added_at"`
}

// Recommendation is a movie suggested to a user.
type Recommendation struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	MovieID   int64     `db:"movie_id"`
	CreatedAt time.Time `db:"created_at"`
}

// RecommendedMovie is a recommendation joined with its movie.
type RecommendedMovie struct {
	Movie
	CreatedAt time.Time `db:"created_at"`
}

// SearchHistory is one accepted search query.
type SearchHistory struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Query      string    `db:"query"`
	SearchedAt time.Time `db:"searched_at"`
}

// Stats aggregates counters for the admin panel.
type Stats struct {
	TotalUsers     int `db:"total_users"`
	ActiveUsers    int `db:"active_users"`
	NewToday       int `db:"new_today"`
	SearchesToday  int `db:"searches_today"`
	FavoritesTotal int `db:"favorites_total"`
}
