package locker

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"go.uber.org/zap"
)

const lockExpiry = 30 * time.Second

// Locker serialises work per key across bridge instances.
type Locker struct {
	rs     *redsync.Redsync
	logger *zap.Logger
}

func NewLocker(rs *redsync.Redsync, logger *zap.Logger) *Locker {
	return &Locker{rs, logger}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex("lock:"+key, redsync.WithExpiry(lockExpiry), redsync.WithTries(64))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}

	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			l.logger.Warn("unlock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
