package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a SessionStore backed by an expiring key-value store, safe to
// share across server instances. Keys carry a TTL slightly past the session
// expiry so Redis handles the sweep itself.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore creates a RedisStore on the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return "otp:session:" + id
}

// Put stores the session with a TTL covering its expiry window.
func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal otp session: %w", err)
	}

	// Keep the key a minute past expiry so Get can still report "expired"
	// rather than "invalid session" for a just-lapsed code.
	ttl := s.ExpiresAt.Sub(r.now()) + time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store otp session: %w", err)
	}
	return nil
}

// Get returns the session or nil, nil when absent.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get otp session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal otp session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Deleting an absent session is a no-op.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete otp session: %w", err)
	}
	return nil
}
