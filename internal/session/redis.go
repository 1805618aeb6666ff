package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "session:"

// RedisTokenStore keeps session tokens in Redis so sessions survive
// restarts and can be shared between replicas. Expiry is delegated to
// Redis key TTLs.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(ctx context.Context, redisURL string) (*RedisTokenStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisTokenStore{client: client}, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, tokenKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidSession
		}
		return "", fmt.Errorf("lookup session token: %w", err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
