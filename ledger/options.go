package ledger

import (
	"time"

	"go.uber.org/zap"
)

const (
	defaultConflictRetries = 3
	defaultRetryInterval   = 20 * time.Millisecond
)

type options struct {
	logger          *zap.Logger
	redactor        Redactor
	approvalCodes   ApprovalCodeFunc
	invalidator     Invalidator
	cache           AccountCache
	locker          Locker
	conflictRetries uint64
	retryInterval   time.Duration
}

// Option configures a Dispatcher or a Service.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithRedactor(r Redactor) Option {
	return func(o *options) { o.redactor = r }
}

// WithApprovalCodes replaces the UUID approval code generator.
func WithApprovalCodes(f ApprovalCodeFunc) Option {
	return func(o *options) { o.approvalCodes = f }
}

// WithInvalidator sets the hook run after every successful posting.
func WithInvalidator(i Invalidator) Option {
	return func(o *options) { o.invalidator = i }
}

// WithCache enables read-through caching in a Service. The cache also becomes
// the invalidator unless one was set explicitly.
func WithCache(c AccountCache) Option {
	return func(o *options) { o.cache = c }
}

// WithLocker replaces the in-process per-account lock.
func WithLocker(l Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithConflictRetries sets how often Service.Execute retries after
// ErrConcurrentUpdate.
func WithConflictRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.conflictRetries = uint64(n)
	}
}

func withRetryInterval(d time.Duration) Option {
	return func(o *options) { o.retryInterval = d }
}

func newOptions(opts []Option) options {
	o := options{conflictRetries: defaultConflictRetries, retryInterval: defaultRetryInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.redactor == nil {
		o.redactor = hideAll
	}
	if o.approvalCodes == nil {
		o.approvalCodes = NewApprovalCode
	}
	if o.invalidator == nil && o.cache != nil {
		o.invalidator = o.cache
	}
	if o.locker == nil {
		o.locker = NewKeyedMutex()
	}
	return o
}
