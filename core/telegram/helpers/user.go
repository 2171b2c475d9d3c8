package helpers

import "context"

// UserLookup is implemented by services that resolve Telegram ids to
// stored users.
type UserLookup[T any] interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (T, error)
}

// CurrentUser loads the stored user behind the update sender. A nil
// lookup yields the zero value.
func CurrentUser[T any](ctx context.Context, lookup UserLookup[T], telegramID int64) (T, error) {
	if lookup == nil {
		var zero T
		return zero, nil
	}
	return lookup.GetUserByTelegramID(ctx, telegramID)
}
