package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"simple-banking/ledger"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPrefix = "lock:bank-accounts:"

var (
	ErrEmptyLockKey      = errors.New("lock key cannot be empty")
	ErrLockExpiryInvalid = errors.New("lock expiry must be greater than 0")
	ErrLockTriesInvalid  = errors.New("lock tries must be at least 1")
)

var _ ledger.Locker = (*Locker)(nil)

// LockOptions configures lock acquisition.
type LockOptions struct {
	// Expiry bounds how long a crashed holder can block the account.
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions suits postings that complete well within a second.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

func (o LockOptions) validate() error {
	if o.Expiry <= 0 {
		return ErrLockExpiryInvalid
	}
	if o.Tries < 1 {
		return ErrLockTriesInvalid
	}
	return nil
}

// Locker is a ledger.Locker backed by the RedLock algorithm, so instances
// sharing a Redis serialize work on the same account.
type Locker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	logger *zap.Logger
}

func NewLocker(client redis.UniversalClient, opts LockOptions, logger *zap.Logger) (*Locker, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}, nil
}

// Lock acquires the lock for key. The returned function releases it; a lock
// that already expired is logged, not reported.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyLockKey
	}

	mutex := l.rs.NewMutex(lockPrefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire account lock: %w", err)
	}

	return func() {
		// The caller's context may already be done; release regardless.
		ok, err := mutex.UnlockContext(context.Background())
		if err != nil || !ok {
			l.logger.Warn("failed to release account lock", zap.Bool("unlock_ok", ok), zap.Error(err))
		}
	}, nil
}
