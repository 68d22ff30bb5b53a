package ledger

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// StatusOK is the status of every successful execution.
const StatusOK = "OK"

// Result is returned by a successful execution.
type Result struct {
	Status       string
	ApprovalCode string
	Transaction  *Transaction
}

// Recorder persists a transaction that has just been posted to account.
// Save must not return before the write is durable.
type Recorder interface {
	Save(ctx context.Context, account *Account, t *Transaction) error
}

// Invalidator forgets everything cached under an account number.
type Invalidator interface {
	Invalidate(ctx context.Context, accountNumber string) error
}

// Redactor hides sensitive identifiers before they reach a log.
type Redactor interface {
	Redact(value string) string
}

// RedactorFunc adapts a function to Redactor.
type RedactorFunc func(string) string

func (f RedactorFunc) Redact(value string) string { return f(value) }

// hideAll is the fallback when no Redactor is configured.
var hideAll = RedactorFunc(func(string) string { return "[redacted]" })

// Dispatcher runs a transaction through validating, executing and recording.
// Each call is a single pass; nothing is retried here.
type Dispatcher struct {
	registry      *Registry
	recorder      Recorder
	invalidator   Invalidator
	redactor      Redactor
	approvalCodes ApprovalCodeFunc
	logger        *zap.Logger
}

// NewDispatcher returns a dispatcher over registry. A nil recorder keeps
// postings in memory only.
func NewDispatcher(registry *Registry, recorder Recorder, opts ...Option) *Dispatcher {
	o := newOptions(opts)
	return &Dispatcher{
		registry:      registry,
		recorder:      recorder,
		invalidator:   o.invalidator,
		redactor:      o.redactor,
		approvalCodes: o.approvalCodes,
		logger:        o.logger,
	}
}

// Execute builds a transaction of kind from params and posts it to account.
//
// Validation failures, unknown kinds and insufficient funds are returned as
// is. A failed save returns *PersistenceError and rolls the posting back if
// it is still the account's latest one; RolledBack reports which. Any
// other failure is wrapped in *TransactionError. Once a posting has
// succeeded, the account's cache entry is invalidated whatever the save
// outcome.
func (d *Dispatcher) Execute(ctx context.Context, kind Kind, account *Account, params Params) (Result, error) {
	// validating
	if kind == "" {
		return Result{}, invalid("kind", "must be set")
	}
	if account == nil {
		return Result{}, invalid("account", "must be set")
	}
	if strings.TrimSpace(account.Number()) == "" {
		return Result{}, invalid("accountNumber", "must not be blank")
	}
	if params == nil {
		return Result{}, invalid("params", "must be set")
	}

	// executing
	strategy, err := d.registry.Resolve(kind)
	if err != nil {
		return Result{}, err
	}
	op := strategy.Operation()
	redacted := d.redactor.Redact(account.Number())
	log := d.logger.With(zap.String("operation", op), zap.String("account", redacted))

	t, err := strategy.Build(params)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			log.Debug("transaction rejected", zap.Error(err))
			return Result{}, err
		}
		return Result{}, d.fail(log, op, redacted, err)
	}
	if t == nil {
		return Result{}, invalid("transaction", "strategy built no transaction")
	}
	if t.Kind() != kind {
		return Result{}, d.fail(log, op, redacted, errors.New("strategy built a "+string(t.Kind())+" transaction"))
	}
	if err := t.assignApprovalCode(d.approvalCodes()); err != nil {
		return Result{}, d.fail(log, op, redacted, err)
	}

	if err := account.Post(t); err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrValidation) {
			log.Info("transaction rejected", zap.Error(err))
			return Result{}, err
		}
		return Result{}, d.fail(log, op, redacted, err)
	}

	// recording
	var saveErr error
	rolledBack := false
	if d.recorder != nil {
		saveErr = d.recorder.Save(ctx, account, t)
		if saveErr != nil {
			rolledBack = account.unpost(t)
			log.Error("transaction not persisted",
				zap.Bool("rolledBack", rolledBack),
				zap.Error(saveErr))
		}
	}
	d.invalidate(ctx, log, account.Number())

	if saveErr != nil {
		return Result{}, &PersistenceError{Operation: op, Account: redacted, RolledBack: rolledBack, Err: saveErr}
	}

	log.Info("transaction posted",
		zap.String("approvalCode", d.redactor.Redact(t.ApprovalCode())),
		zap.String("amount", t.Amount().StringFixed(2)))
	return Result{Status: StatusOK, ApprovalCode: t.ApprovalCode(), Transaction: t}, nil
}

func (d *Dispatcher) fail(log *zap.Logger, op, account string, err error) error {
	log.Error("transaction failed", zap.Error(err))
	return &TransactionError{Operation: op, Account: account, Err: err}
}

// invalidate never fails the call; a stale entry expires with its TTL.
func (d *Dispatcher) invalidate(ctx context.Context, log *zap.Logger, number string) {
	if d.invalidator == nil {
		return
	}
	if err := d.invalidator.Invalidate(ctx, number); err != nil {
		log.Warn("cache invalidation failed", zap.Error(err))
	}
}
