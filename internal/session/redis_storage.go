package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "hms:session:"

// RedisStorage keeps the persisted session in Redis, for installs where
// several terminals or hosts share one login.
type RedisStorage struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisStorage returns nil when client is nil. A ttl of zero keeps the
// session until logout.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	if client == nil {
		return nil
	}
	return &RedisStorage{
		redis:  client,
		tracer: otel.Tracer("hms.internal.session.redis"),
		ttl:    ttl,
	}
}

func (r *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "session.redis.load")
	defer span.End()

	data, err := r.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotPersisted
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := r.tracer.Start(ctx, "session.redis.save")
	defer span.End()

	if err := r.redis.Set(ctx, redisKeyPrefix+key, value, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	ctx, span := r.tracer.Start(ctx, "session.redis.remove")
	defer span.End()

	if err := r.redis.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: redis del %s: %w", key, err)
	}
	return nil
}
