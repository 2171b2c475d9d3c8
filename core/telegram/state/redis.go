package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "fsm:"

// RedisStore keeps sessions in Redis as JSON values with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps a Redis client. A zero ttl keeps sessions forever.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

// Load fetches and decodes the session for userID.
func (r *RedisStore) Load(ctx context.Context, userID int64) (*Session, bool, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("state: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, false, fmt.Errorf("state: decode session: %w", err)
	}
	if sess.Data == nil {
		sess.Data = make(map[string]string)
	}
	return &sess, true, nil
}

// Save encodes the session and refreshes its TTL.
func (r *RedisStore) Save(ctx context.Context, userID int64, sess *Session) error {
	if sess == nil {
		return nil
	}
	stored := sess.clone()
	stored.UpdatedAt = time.Now()
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("state: encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}
