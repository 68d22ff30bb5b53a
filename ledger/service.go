package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository loads and stores accounts.
//
// FindByAccountNumber returns ErrAccountNotFound for unknown numbers and must
// hand out an account the caller may post to without affecting other
// callers. Save persists one posted transaction and fails with
// ErrConcurrentUpdate if the stored account is no longer at the version the
// caller loaded. Create fails with ErrDuplicateAccount.
type Repository interface {
	Recorder
	Create(ctx context.Context, account *Account) error
	FindByAccountNumber(ctx context.Context, number string) (*Account, error)
	ExistsByAccountNumber(ctx context.Context, number string) (bool, error)
}

// AccountCache is a read cache of account snapshots. Writers only ever
// invalidate it.
type AccountCache interface {
	Invalidator
	Get(ctx context.Context, number string) (AccountSnapshot, bool, error)
	Set(ctx context.Context, snapshot AccountSnapshot) error
}

// Service is the entry point to the ledger. It serializes work per account,
// reloads the account for every write and runs it through the Dispatcher.
type Service struct {
	repo       Repository
	cache      AccountCache
	locker     Locker
	dispatcher *Dispatcher
	redactor   Redactor
	logger     *zap.Logger

	conflictRetries uint64
	retryInterval   time.Duration
}

// NewService wires a Service. The repository records postings and the
// cache, if any, is invalidated after each of them.
func NewService(repo Repository, registry *Registry, opts ...Option) *Service {
	o := newOptions(opts)
	return &Service{
		repo:            repo,
		cache:           o.cache,
		locker:          o.locker,
		dispatcher:      NewDispatcher(registry, repo, opts...),
		redactor:        o.redactor,
		logger:          o.logger,
		conflictRetries: o.conflictRetries,
		retryInterval:   o.retryInterval,
	}
}

// CreateAccount opens an empty account.
func (s *Service) CreateAccount(ctx context.Context, owner, number string) (*Account, error) {
	account, err := NewAccount(owner, number)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, number)
	if err != nil {
		return nil, err
	}
	defer unlock()

	exists, err := s.repo.ExistsByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAccount
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("account", s.redactor.Redact(number)))
	return account, nil
}

// GetAccount returns the account, reading through the cache when one is
// configured.
func (s *Service) GetAccount(ctx context.Context, number string) (*Account, error) {
	if err := ValidateAccountNumber(number); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return s.repo.FindByAccountNumber(ctx, number)
	}

	if account, ok := s.cached(ctx, number); ok {
		return account, nil
	}

	// Filling under the account lock keeps a concurrent writer from
	// invalidating between our load and our set.
	unlock, err := s.locker.Lock(ctx, number)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := s.repo.FindByAccountNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, account.Snapshot()); err != nil {
		s.logger.Warn("cache fill failed", zap.String("account", s.redactor.Redact(number)), zap.Error(err))
	}
	return account, nil
}

func (s *Service) cached(ctx context.Context, number string) (*Account, bool) {
	log := s.logger.With(zap.String("account", s.redactor.Redact(number)))

	snapshot, ok, err := s.cache.Get(ctx, number)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	account, err := RestoreAccount(snapshot)
	if err != nil {
		log.Warn("dropping unreadable cache entry", zap.Error(err))
		if err := s.cache.Invalidate(ctx, number); err != nil {
			log.Warn("cache invalidation failed", zap.Error(err))
		}
		return nil, false
	}
	return account, true
}

// Execute posts a transaction of kind to the account with the given number.
// The account is locked and freshly loaded for each attempt; an attempt that
// loses an optimistic-concurrency race is retried a bounded number of times.
func (s *Service) Execute(ctx context.Context, kind Kind, number string, params Params) (Result, error) {
	if kind == "" {
		return Result{}, invalid("kind", "must be set")
	}
	if strings.TrimSpace(number) == "" {
		return Result{}, invalid("accountNumber", "must not be blank")
	}
	if params == nil {
		return Result{}, invalid("params", "must be set")
	}

	var result Result
	attempt := 0
	operation := func() error {
		attempt++
		r, err := s.executeOnce(ctx, kind, number, params)
		if err == nil {
			result = r
			return nil
		}
		if errors.Is(err, ErrConcurrentUpdate) {
			s.logger.Info("concurrent update, retrying",
				zap.String("operation", kind.Operation()),
				zap.String("account", s.redactor.Redact(number)),
				zap.Int("attempt", attempt))
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryInterval), s.conflictRetries),
		ctx,
	)
	if err := backoff.Retry(operation, b); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) executeOnce(ctx context.Context, kind Kind, number string, params Params) (Result, error) {
	unlock, err := s.locker.Lock(ctx, number)
	if err != nil {
		return Result{}, &TransactionError{Operation: kind.Operation(), Account: s.redactor.Redact(number), Err: err}
	}
	defer unlock()

	account, err := s.repo.FindByAccountNumber(ctx, number)
	if err != nil {
		return Result{}, err
	}
	return s.dispatcher.Execute(ctx, kind, account, params)
}

// Credit deposits amount.
func (s *Service) Credit(ctx context.Context, number string, amount decimal.Decimal) (Result, error) {
	return s.Execute(ctx, KindDeposit, number, DepositParams{Amount: amount})
}

// Debit withdraws amount.
func (s *Service) Debit(ctx context.Context, number string, amount decimal.Decimal) (Result, error) {
	return s.Execute(ctx, KindWithdrawal, number, WithdrawalParams{Amount: amount})
}

// PayPhoneBill pays a phone bill from the account.
func (s *Service) PayPhoneBill(ctx context.Context, number string, company PhoneCompany, phoneNumber string, amount decimal.Decimal) (Result, error) {
	return s.Execute(ctx, KindPhoneBillPayment, number, PhoneBillParams{
		Company:     company,
		PhoneNumber: phoneNumber,
		Amount:      amount,
	})
}

// PayCheck pays a check to payee from the account.
func (s *Service) PayCheck(ctx context.Context, number, payee string, amount decimal.Decimal) (Result, error) {
	return s.Execute(ctx, KindCheckPayment, number, CheckParams{Payee: payee, Amount: amount})
}
