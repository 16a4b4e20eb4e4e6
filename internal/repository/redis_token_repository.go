package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/exam-access-service/internal/domain"
)

// redisTokenStore keeps records as JSON values with native TTL eviction.
type redisTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenStore constructs the primary token store. keyPrefix namespaces
// token keys, mirroring the table name used by the postgres driver.
func NewRedisTokenStore(client *redis.Client, keyPrefix string) TokenStore {
	return &redisTokenStore{client: client, keyPrefix: keyPrefix}
}

func (s *redisTokenStore) Save(ctx context.Context, rec *domain.TokenRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}

	ttl := rec.TTL(time.Now())
	if ttl <= 0 {
		return fmt.Errorf("refusing to store already expired token")
	}

	if err := s.client.Set(ctx, s.key(rec.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *redisTokenStore) Get(ctx context.Context, token string) (*domain.TokenRecord, error) {
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}

	var rec domain.TokenRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode token record: %w", err)
	}
	return &rec, nil
}

func (s *redisTokenStore) key(token string) string {
	return s.keyPrefix + ":" + token
}
