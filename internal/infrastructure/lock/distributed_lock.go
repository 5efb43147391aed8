package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrLockFailed = errors.New("lock not acquired")
	ErrNotHeld    = errors.New("lock no longer held")
)

// unlockScript deletes the key only while it still holds our token, so an expired
// holder cannot release a lock that has since passed to someone else.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock is a SET NX EX lock. The value identifies the holder.
type DistributedLock struct {
	client     redis.UniversalClient
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client redis.UniversalClient, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock retries TryLock every retryInterval until it succeeds, ctx ends or maxRetries
// attempts were made. maxRetries <= 0 retries until ctx ends.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; maxRetries <= 0 || i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrLockFailed
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func UserLockKey(userID int64) string {
	return fmt.Sprintf("wallet:lock:user:%d", userID)
}

// RedisLocker serialises balance changes of one user across all instances.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, ttl, retryInterval time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retryInterval: retryInterval}
}

func (r *RedisLocker) Acquire(ctx context.Context, userID int64) (func(), error) {
	l := NewDistributedLock(r.client, UserLockKey(userID), uuid.NewString(), r.ttl)
	if err := l.Lock(ctx, r.retryInterval, 0); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrLockFailed
		}
		return nil, err
	}
	return func() {
		// released on a fresh context: the caller's may already be done
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Unlock(ctx)
	}, nil
}
