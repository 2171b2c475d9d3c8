package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kinobot/internal/models"
)

const userColumns = `id, telegram_id, username, first_name, last_name, age, sex, created_at, is_active`

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u and fills its generated columns.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (telegram_id, username, first_name, last_name, age, sex)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, is_active`
	row := r.db.QueryRowxContext(ctx, q, u.TelegramID, u.Username, u.FirstName, u.LastName, u.Age, u.Sex)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.IsActive); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByTelegramID returns the user with the given Telegram id.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return nil, wrapNotFound("get user", err)
	}
	return &u, nil
}

// Update stores the editable profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	const q = `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, age = $5, sex = $6, is_active = $7
		WHERE telegram_id = $1`
	res, err := r.db.ExecContext(ctx, q, u.TelegramID, u.Username, u.FirstName, u.LastName, u.Age, u.Sex, u.IsActive)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the active flag, e.g. when a user blocks the bot.
func (r *UserRepository) SetActive(ctx context.Context, telegramID int64, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $2 WHERE telegram_id = $1`, telegramID, active); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

// ActiveTelegramIDs lists Telegram ids of active users ordered by registration.
func (r *UserRepository) ActiveTelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT telegram_id FROM users WHERE is_active ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}
