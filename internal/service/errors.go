// Package service holds the bot's business rules: registration and profile
// validation, movie lookups with favorites and history, statistics and the
// admin broadcast.
package service

import "errors"

var (
	ErrInvalidName      = errors.New("name must be 1..64 characters")
	ErrInvalidAge       = errors.New("age must be between 0 and 120")
	ErrAgeNotNumber     = errors.New("age must be a number")
	ErrInvalidSex       = errors.New("unknown sex value")
	ErrNotRegistered    = errors.New("user is not registered")
	ErrAlreadyExists    = errors.New("user already registered")
	ErrQueryTooShort    = errors.New("search query is too short")
	ErrBroadcastRunning = errors.New("broadcast already running")
	ErrEmptyMessage     = errors.New("broadcast message is empty")
)
