package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		baseTTL: 7 * 24 * time.Hour,
	}
}

// RedisStore keeps saved carts under a per-session key with a TTL so
// abandoned carts eventually expire on their own.
type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, cart *SavedCart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, storeKey(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*SavedCart, error) {
	data, err := r.client.Get(ctx, storeKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart SavedCart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, ErrCorrupted
	}

	return &cart, nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, storeKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storeKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
