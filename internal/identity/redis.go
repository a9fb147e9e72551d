package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"digilocker/internal/config"
)

const redisKeyPrefix = "digilocker:identity:"

// RedisSlots keeps one identifier per device in redis.
type RedisSlots struct {
	inner redis.Cmdable
}

// NewRedisClient creates the redis client from config and checks it answers.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisSlots wraps a redis client (or any Cmdable).
func NewRedisSlots(client redis.Cmdable) *RedisSlots {
	return &RedisSlots{inner: client}
}

func (r *RedisSlots) Slot(device string) Slot {
	return &redisSlot{inner: r.inner, key: redisKeyPrefix + device}
}

type redisSlot struct {
	inner redis.Cmdable
	key   string
}

func (s *redisSlot) Load(ctx context.Context) (string, bool, error) {
	v, err := s.inner.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisSlot) Save(ctx context.Context, value string) error {
	return s.inner.Set(ctx, s.key, value, 0).Err()
}
