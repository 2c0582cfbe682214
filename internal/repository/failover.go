package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"agenda/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLocker uses the primary locker until its backend fails, then the fallback.
// The primary is retried once per recoveryInterval.
type FailoverLocker struct {
	primary   domain.Locker
	fallback  domain.Locker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *FailoverLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.usePrimary() {
		err := l.primary.WithLock(ctx, key, fn)
		if !errors.Is(err, ErrLockBackend) {
			if l.isDown.Swap(false) {
				l.logger.Info().Msg("Primary locker recovered")
			}
			return err
		}
		l.logger.Error().Err(err).Str("key", key).Msg("Primary locker failed, falling back to memory")
		l.isDown.Store(true)
		l.lastCheck.Store(l.now().UnixNano())
	}

	return l.fallback.WithLock(ctx, key, fn)
}

func (l *FailoverLocker) usePrimary() bool {
	if !l.isDown.Load() {
		return true
	}
	last := time.Unix(0, l.lastCheck.Load())
	return l.now().Sub(last) > recoveryInterval
}
