package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/kinobot/core/logger"
	"github.com/m3rciful/kinobot/internal/models"
	"github.com/m3rciful/kinobot/internal/repository"
)

const (
	MaxNameLength = 64
	MinAge        = 0
	MaxAge        = 120
)

// UserStore is the persistence UserService needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	SetActive(ctx context.Context, telegramID int64, active bool) error
}

// UserService registers users and edits their profiles.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// ValidateName trims input and checks its length in runes.
func ValidateName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// ValidateAge parses input as an integer age in [MinAge, MaxAge].
func ValidateAge(input string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrAgeNotNumber
	}
	if age < MinAge || age > MaxAge {
		return 0, ErrInvalidAge
	}
	return age, nil
}

// ValidateSex maps Russian and English labels to models.SexMale/SexFemale.
func ValidateSex(input string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "мужской", "м", "male":
		return models.SexMale, nil
	case "женский", "ж", "female":
		return models.SexFemale, nil
	}
	return "", ErrInvalidSex
}

// SexLabel renders a stored sex value for humans.
func SexLabel(sex *string) string {
	if sex == nil {
		return "не указан"
	}
	switch *sex {
	case models.SexMale:
		return "мужской"
	case models.SexFemale:
		return "женский"
	}
	return *sex
}

// Registration is the data collected by the registration dialog.
type Registration struct {
	TelegramID int64
	Username   string
	LastName   string
	Name       string
	Age        string
	Sex        string
}

// Register validates every field again and creates the user.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	name, err := ValidateName(r.Name)
	if err != nil {
		return nil, err
	}
	age, err := ValidateAge(r.Age)
	if err != nil {
		return nil, err
	}
	sex, err := ValidateSex(r.Sex)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByTelegramID(ctx, r.TelegramID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	u := &models.User{
		TelegramID: r.TelegramID,
		Username:   optional(r.Username),
		LastName:   optional(r.LastName),
		FirstName:  name,
		Age:        &age,
		Sex:        &sex,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	logger.SVCUsers.Info("user registered",
		slog.Int64("user_id", r.TelegramID),
		slog.Int64("id", u.ID),
	)
	return u, nil
}

// GetUserByTelegramID returns ErrNotRegistered for unknown users.
func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// IsRegistered reports whether telegramID has a user row.
func (s *UserService) IsRegistered(ctx context.Context, telegramID int64) (bool, error) {
	_, err := s.GetUserByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotRegistered):
		return false, nil
	}
	return false, err
}

// ProfileField names a single editable profile attribute.
type ProfileField string

const (
	FieldName ProfileField = "name"
	FieldAge  ProfileField = "age"
	FieldSex  ProfileField = "sex"
)

// ParseProfileField accepts the field keys used in callbacks.
func ParseProfileField(s string) (ProfileField, bool) {
	switch f := ProfileField(strings.TrimSpace(s)); f {
	case FieldName, FieldAge, FieldSex:
		return f, true
	}
	return "", false
}

// UpdateField validates value and updates a single profile field.
func (s *UserService) UpdateField(ctx context.Context, telegramID int64, field ProfileField, value string) (*models.User, error) {
	u, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	switch field {
	case FieldName:
		name, err := ValidateName(value)
		if err != nil {
			return nil, err
		}
		u.FirstName = name
	case FieldAge:
		age, err := ValidateAge(value)
		if err != nil {
			return nil, err
		}
		u.Age = &age
	case FieldSex:
		sex, err := ValidateSex(value)
		if err != nil {
			return nil, err
		}
		u.Sex = &sex
	default:
		return nil, fmt.Errorf("update profile: unknown field %q", field)
	}
	// a user writing to the bot again is reachable
	u.IsActive = true
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	logger.SVCUsers.Info("profile updated",
		slog.Int64("user_id", telegramID),
		slog.String("field", string(field)),
	)
	return u, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
