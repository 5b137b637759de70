package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeventeLantos/sms-automation/internal/model"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type sentValue struct {
	RemoteMessageID string    `json:"remoteMessageId"`
	Simulated       bool      `json:"simulated"`
	SentAt          time.Time `json:"sentAt"`
}

func key(entryID string) string {
	return "sms:receipt:" + entryID
}

func (c *RedisCache) StoreSent(ctx context.Context, entryID string, r model.Receipt) error {
	b, err := json.Marshal(sentValue{
		RemoteMessageID: r.RemoteID,
		Simulated:       r.Simulated,
		SentAt:          r.SentAt.UTC(),
	})
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key(entryID), b, c.ttl).Err()
}

func (c *RedisCache) Lookup(ctx context.Context, entryID string) (model.Receipt, error) {
	raw, err := c.rdb.Get(ctx, key(entryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Receipt{}, ErrNotFound
	}
	if err != nil {
		return model.Receipt{}, err
	}

	var v sentValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.Receipt{}, fmt.Errorf("decode receipt %s: %w", entryID, err)
	}
	return model.Receipt{
		RemoteID:  v.RemoteMessageID,
		Simulated: v.Simulated,
		SentAt:    v.SentAt,
	}, nil
}
