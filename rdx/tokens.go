package rdx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned for unknown or expired refresh tokens.
var ErrTokenNotFound = errors.New("refresh token not found")

const refreshPrefix = "auth:refresh:"

type kv interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenStore maps hashed refresh tokens to user ids. Entries expire on their own.
type TokenStore struct {
	conn kv
}

func NewTokenStore(conn kv) *TokenStore {
	return &TokenStore{conn: conn}
}

func (s *TokenStore) Save(ctx context.Context, hash, userID string, ttl time.Duration) error {
	return s.conn.Set(ctx, refreshPrefix+hash, userID, ttl).Err()
}

func (s *TokenStore) Lookup(ctx context.Context, hash string) (string, error) {
	userID, err := s.conn.Get(ctx, refreshPrefix+hash).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return userID, err
}

// Delete removes a token. Deleting an unknown token is not an error.
func (s *TokenStore) Delete(ctx context.Context, hash string) error {
	return s.conn.Del(ctx, refreshPrefix+hash).Err()
}
