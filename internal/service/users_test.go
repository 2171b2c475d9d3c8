package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kinobot/internal/models"
)

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Анна ")
	require.NoError(t, err)
	assert.Equal(t, "Анна", name)

	_, err = ValidateName("   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = ValidateName(strings.Repeat("я", MaxNameLength))
	assert.NoError(t, err)
	_, err = ValidateName(strings.Repeat("я", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidateAge(t *testing.T) {
	tests := []struct {
		in   string
		want int
		err  error
	}{
		{"0", 0, nil},
		{" 25 ", 25, nil},
		{"120", 120, nil},
		{"121", 0, ErrInvalidAge},
		{"-1", 0, ErrInvalidAge},
		{"двадцать", 0, ErrAgeNotNumber},
		{"", 0, ErrAgeNotNumber},
	}
	for _, tt := range tests {
		got, err := ValidateAge(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidateSex(t *testing.T) {
	for in, want := range map[string]string{
		"Мужской": models.SexMale,
		"женский": models.SexFemale,
		"MALE":    models.SexMale,
		"female":  models.SexFemale,
	} {
		got, err := ValidateSex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ValidateSex("другой")
	assert.ErrorIs(t, err, ErrInvalidSex)

	male := models.SexMale
	assert.Equal(t, "мужской", SexLabel(&male))
	assert.Equal(t, "не указан", SexLabel(nil))
}

func TestRegister(t *testing.T) {
	users := newMemUsers()
	svc := NewUserService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{TelegramID: 1, Name: "Иван", Age: "130", Sex: "мужской"})
	require.ErrorIs(t, err, ErrInvalidAge)
	_, err = svc.GetUserByTelegramID(ctx, 1)
	require.ErrorIs(t, err, ErrNotRegistered, "no row after a failed step")

	u, err := svc.Register(ctx, Registration{TelegramID: 1, Username: "ivan", Name: " Иван ", Age: "30", Sex: "мужской"})
	require.NoError(t, err)
	assert.Equal(t, "Иван", u.FirstName)
	assert.Equal(t, 30, *u.Age)
	assert.Equal(t, models.SexMale, *u.Sex)
	assert.Equal(t, "ivan", *u.Username)
	assert.Nil(t, u.LastName)

	_, err = svc.Register(ctx, Registration{TelegramID: 1, Name: "Иван", Age: "30", Sex: "male"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	ok, err := svc.IsRegistered(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.IsRegistered(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterStoreError(t *testing.T) {
	users := newMemUsers()
	users.err = errors.New("db down")
	svc := NewUserService(users)

	_, err := svc.Register(context.Background(), Registration{TelegramID: 1, Name: "a", Age: "1", Sex: "male"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateField(t *testing.T) {
	users := newMemUsers()
	users.add(7)
	svc := NewUserService(users)
	ctx := context.Background()

	u, err := svc.UpdateField(ctx, 7, FieldAge, "41")
	require.NoError(t, err)
	assert.Equal(t, 41, *u.Age)

	_, err = svc.UpdateField(ctx, 7, FieldAge, "500")
	assert.ErrorIs(t, err, ErrInvalidAge)

	u, err = svc.UpdateField(ctx, 7, FieldSex, "женский")
	require.NoError(t, err)
	assert.Equal(t, models.SexFemale, *u.Sex)

	u, err = svc.UpdateField(ctx, 7, FieldName, "Ольга")
	require.NoError(t, err)
	assert.Equal(t, "Ольга", u.FirstName)

	stored, err := svc.GetUserByTelegramID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 41, *stored.Age)
	assert.Equal(t, "Ольга", stored.FirstName)

	_, err = svc.UpdateField(ctx, 8, FieldName, "x")
	assert.ErrorIs(t, err, ErrNotRegistered)

	f, ok := ParseProfileField("age")
	assert.True(t, ok)
	assert.Equal(t, FieldAge, f)
	_, ok = ParseProfileField("email")
	assert.False(t, ok)
}
