package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenda/internal/config"
	"agenda/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLockBackend marks failures of the lock backend itself, as opposed to contention.
var ErrLockBackend = errors.New("lock backend unavailable")

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// RedisLocker guards a critical section per key with SET NX and a token-checked release,
// so it also serializes booking creation across API replicas.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
	prefix     string
	logger     *zerolog.Logger
}

// NewRedisLocker builds a locker whose keys expire after ttl. A contended key is
// retried for up to wait before failing with ErrSlotBeingBooked.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		wait:       wait,
		retryEvery: 25 * time.Millisecond,
		prefix:     "agenda:lock:",
		logger:     logger,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.client == nil {
		return fmt.Errorf("%w: redis client is nil", ErrLockBackend)
	}
	redisKey := l.prefix + key
	token := uuid.NewString()

	if err := l.acquire(ctx, redisKey, token); err != nil {
		return err
	}
	defer func() {
		// снимаем блокировку даже если ctx уже отменен
		if err := l.release(context.WithoutCancel(ctx), redisKey, token); err != nil {
			// ключ доживет до конца TTL и задержит бронирования этого дня
			l.logger.Warn().Err(err).Str("key", redisKey).Dur("ttl", l.ttl).Msg("Failed to release booking lock")
		}
	}()

	lockedCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockedCtx)
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: acquire %s: %v", ErrLockBackend, key, err)
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return domain.ErrSlotBeingBooked
		}

		timer := time.NewTimer(l.retryEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
