package loginsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
)

const defaultKeyPrefix = "loginsession"

// RedisStore is the Store shared by every API instance.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisClient parses a redis:// URL and returns a client for it.
func NewRedisClient(url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("loginsession: parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore returns a RedisStore. An empty prefix uses "loginsession".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{redis: client, prefix: prefix, now: time.Now}
}

// WithClock replaces the time source used for expires_at. For tests.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *RedisStore) tokenKey(hash string) string { return s.prefix + ":token:" + hash }
func (s *RedisStore) userKey(userID string) string { return s.prefix + ":user:" + userID }

// Put stores the attempt under the token hash, then points the user's index
// key at it and deletes whatever token the index pointed to before.
func (s *RedisStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || userID == "" {
		return errors.New("loginsession: token and user id are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	hash := security.HashToken(token)
	data, err := json.Marshal(Attempt{UserID: userID, ExpiresAt: s.now().UTC().Add(ttl)})
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.tokenKey(hash), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	prev, err := s.redis.SetArgs(ctx, s.userKey(userID), hash, redis.SetArgs{TTL: ttl, Get: true}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if prev != "" && prev != hash {
		if err := s.redis.Del(ctx, s.tokenKey(prev)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Get maps redis.Nil and stale records to ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, token string) (*Attempt, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	key := s.tokenKey(security.HashToken(token))
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil || a.UserID == "" {
		_ = s.redis.Del(ctx, key).Err()
		return nil, ErrNotFound
	}
	if expired(&a, s.now()) {
		_ = s.redis.Del(ctx, key).Err()
		return nil, ErrNotFound
	}
	return &a, nil
}

// Delete reports true only to the caller whose DEL removed the key.
func (s *RedisStore) Delete(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := s.redis.Del(ctx, s.tokenKey(security.HashToken(token))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
