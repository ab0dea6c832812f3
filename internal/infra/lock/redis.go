package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis — блокировка утверждения КП через redislock. Держатель один на ключ;
// второй запрос получает quotes.ErrLocked сразу, без ожидания.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func New(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: redislock.New(rdb), ttl: ttl, prefix: "lock:", log: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", quotes.ErrLocked, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// запрос мог быть отменён, а ключ всё равно нужно снять
		if err := l.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.Warn("release lock failed", "key", key, "err", err)
		}
	}, nil
}
