package lock

import (
	"context"
	"time"

	corecache "chatcal-api/core/cache"
	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/core/utils"
)

// DistributedLock serializes slot allocation across every process sharing
// the backing table. One fixed lock name per deployment: allocation is rare
// and must be globally serialized, not per label, so two never-before-seen
// labels cannot race for the same empty slot.
type DistributedLock interface {
	// TryAcquire blocks up to wait for exclusive ownership and returns a
	// release func that must be called exactly once. Failing to acquire
	// within wait yields ErrLockTimeout.
	TryAcquire(ctx context.Context, wait time.Duration) (release func(context.Context), appErr *errors.AppError)
}

// releaseScript deletes the lock key only when it still carries our token,
// so an expired holder can never release its successor's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLock struct {
	backend corecache.Cache
	key     string
	lease   time.Duration
	retry   time.Duration
}

func NewRedisLock(backend corecache.Cache, key string) DistributedLock {
	return &redisLock{
		backend: backend,
		key:     key,
		lease:   constants.LockLease,
		retry:   constants.LockRetryWait,
	}
}

func (l *redisLock) TryAcquire(ctx context.Context, wait time.Duration) (func(context.Context), *errors.AppError) {
	token := utils.GenerateID()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.backend.SetNX(ctx, l.key, token, l.lease)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrStoreUnavailable, "lock backend unavailable", err)
		}
		if ok {
			return func(releaseCtx context.Context) {
				l.release(releaseCtx, token)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, errors.NewAppError(errors.ErrLockTimeout,
				"could not acquire allocation lock within timeout", nil)
		}

		select {
		case <-ctx.Done():
			return nil, errors.NewAppError(errors.ErrLockTimeout,
				"context cancelled while waiting for allocation lock", ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

func (l *redisLock) release(ctx context.Context, token string) {
	if _, err := l.backend.Eval(ctx, releaseScript, []string{l.key}, token); err != nil {
		// The lease expiry will clean up; later holders are unaffected.
		logger.Warn("DistributedLock:Release:Error", "error", err, "key", l.key)
	}
}
