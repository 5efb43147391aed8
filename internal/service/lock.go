package service

import (
	"context"
	"errors"
	"time"

	"tgwallet/internal/infrastructure/lock"
	"tgwallet/internal/metrics"
)

// userGuard runs fn while holding the user's lock. The lock wait and everything fn does share
// one deadline.
type userGuard struct {
	locker  lock.Locker
	timeout time.Duration
	metrics *metrics.Metrics
}

func (g userGuard) run(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	release, err := g.locker.Acquire(ctx, userID)
	g.metrics.ObserveLockWait(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return NewServiceError(ErrCodeBusy, ErrBusy)
		}
		return NewServiceError(ErrCodeInternal, err)
	}
	defer release()

	return fn(ctx)
}
