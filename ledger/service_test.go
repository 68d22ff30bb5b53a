package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo stores snapshots and checks versions on save.
type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]AccountSnapshot
	finds    int

	// saveErr, if set, is returned by the next saveErrN saves.
	saveErr  error
	saveErrN int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]AccountSnapshot)}
}

func (r *fakeRepo) Create(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Number()]; ok {
		return ErrDuplicateAccount
	}
	r.accounts[a.Number()] = a.Snapshot()
	return nil
}

func (r *fakeRepo) ExistsByAccountNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.accounts[number]
	return ok, nil
}

func (r *fakeRepo) FindByAccountNumber(_ context.Context, number string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	s, ok := r.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return RestoreAccount(s)
}

func (r *fakeRepo) Save(_ context.Context, a *Account, _ *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErrN > 0 {
		r.saveErrN--
		return r.saveErr
	}
	next := a.Snapshot()
	if r.accounts[next.AccountNumber].Version != next.Version-1 {
		return ErrConcurrentUpdate
	}
	r.accounts[next.AccountNumber] = next
	return nil
}

func (r *fakeRepo) stored(t *testing.T, number string) *Account {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	a, err := RestoreAccount(r.accounts[number])
	require.NoError(t, err)
	return a
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]AccountSnapshot
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]AccountSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, number string) (AccountSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[number]
	return s, ok, nil
}

func (c *fakeCache) Set(_ context.Context, s AccountSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.AccountNumber] = s
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, number)
	c.invalidated = append(c.invalidated, number)
	return nil
}

func newTestService(t *testing.T, repo Repository, opts ...Option) *Service {
	t.Helper()
	r, err := NewRegistry(DefaultStrategies(NewCheckNumbers())...)
	require.NoError(t, err)
	opts = append([]Option{withRetryInterval(time.Millisecond)}, opts...)
	return NewService(repo, r, opts...)
}

func TestService_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("A: credit 1000, debit 300", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		acc, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		require.True(t, decimal.Zero.Equal(acc.Balance()))

		_, err = svc.Credit(ctx, "1001", dec("1000"))
		require.NoError(t, err)
		_, err = svc.Debit(ctx, "1001", dec("300"))
		require.NoError(t, err)

		got, err := svc.GetAccount(ctx, "1001")
		require.NoError(t, err)
		assert.True(t, dec("700").Equal(got.Balance()))
		assert.Len(t, got.Transactions(), 2)
	})

	t.Run("B: debit on an empty account", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Bob", "1002")
		require.NoError(t, err)

		_, err = svc.Debit(ctx, "1002", dec("50"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		got := repo.stored(t, "1002")
		assert.True(t, decimal.Zero.Equal(got.Balance()))
		assert.Empty(t, got.Transactions())
	})

	t.Run("C: phone bill payment", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Carol", "1003")
		require.NoError(t, err)
		_, err = svc.Credit(ctx, "1003", dec("100"))
		require.NoError(t, err)

		res, err := svc.PayPhoneBill(ctx, "1003", CompanyA, "5551234567", dec("96.50"))

		require.NoError(t, err)
		assert.Equal(t, StatusOK, res.Status)
		got := repo.stored(t, "1003")
		assert.True(t, dec("3.50").Equal(got.Balance()))
		assert.Len(t, got.Transactions(), 2)
	})

	t.Run("D: two concurrent debits of 600 against 1000", func(t *testing.T) {
		// Arrange
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Dave", "1004")
		require.NoError(t, err)
		_, err = svc.Credit(ctx, "1004", dec("1000"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 2)

		// Act
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Debit(context.Background(), "1004", dec("600"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		// Assert
		var ok, insufficient int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		got := repo.stored(t, "1004")
		assert.True(t, dec("400").Equal(got.Balance()))
		assertBalanced(t, got)
	})

	t.Run("E: kind unset", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Eve", "1005")
		require.NoError(t, err)
		finds := repo.finds

		_, err = svc.Execute(ctx, "", "1005", DepositParams{Amount: dec("1")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "kind", verr.Field)
		assert.Equal(t, finds, repo.finds)
		assert.Empty(t, repo.stored(t, "1005").Transactions())
	})
}

func TestService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate number", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo())
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)

		_, err = svc.CreateAccount(ctx, "Bob", "1001")

		assert.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo())

		_, err := svc.CreateAccount(ctx, "", "1001")

		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_GetAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo())

		_, err := svc.GetAccount(ctx, "9999")

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("malformed number", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo())

		_, err := svc.GetAccount(ctx, "abc")

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("reads through the cache", func(t *testing.T) {
		// Arrange
		repo := newFakeRepo()
		cache := newFakeCache()
		svc := newTestService(t, repo, WithCache(cache))
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)

		// Act
		first, err := svc.GetAccount(ctx, "1001")
		require.NoError(t, err)
		findsAfterFirst := repo.finds
		second, err := svc.GetAccount(ctx, "1001")
		require.NoError(t, err)

		// Assert
		assert.Equal(t, findsAfterFirst, repo.finds, "second read should be served from cache")
		assert.Equal(t, first.Snapshot(), second.Snapshot())
	})

	t.Run("writes invalidate instead of refreshing", func(t *testing.T) {
		// Arrange
		repo := newFakeRepo()
		cache := newFakeCache()
		svc := newTestService(t, repo, WithCache(cache))
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		_, err = svc.GetAccount(ctx, "1001")
		require.NoError(t, err)

		// Act
		_, err = svc.Credit(ctx, "1001", dec("10"))
		require.NoError(t, err)

		// Assert
		_, cached, _ := cache.Get(ctx, "1001")
		assert.False(t, cached)
		assert.Equal(t, []string{"1001"}, cache.invalidated)

		got, err := svc.GetAccount(ctx, "1001")
		require.NoError(t, err)
		assert.True(t, dec("10").Equal(got.Balance()))
	})

	t.Run("unreadable cache entries are dropped", func(t *testing.T) {
		repo := newFakeRepo()
		cache := newFakeCache()
		svc := newTestService(t, repo, WithCache(cache))
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		require.NoError(t, cache.Set(ctx, AccountSnapshot{AccountNumber: "1001", Owner: "Alice", Balance: dec("99")}))

		got, err := svc.GetAccount(ctx, "1001")

		require.NoError(t, err)
		assert.True(t, decimal.Zero.Equal(got.Balance()))
		assert.Contains(t, cache.invalidated, "1001")
	})
}

func TestService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown account", func(t *testing.T) {
		svc := newTestService(t, newFakeRepo())

		_, err := svc.Credit(ctx, "9999", dec("1"))

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("retries after a concurrent update", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		repo.saveErr, repo.saveErrN = ErrConcurrentUpdate, 2

		res, err := svc.Credit(ctx, "1001", dec("5"))

		require.NoError(t, err)
		assert.NotEmpty(t, res.ApprovalCode)
		got := repo.stored(t, "1001")
		assert.True(t, dec("5").Equal(got.Balance()))
		assert.Len(t, got.Transactions(), 1)
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo, WithConflictRetries(1))
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		repo.saveErr, repo.saveErrN = ErrConcurrentUpdate, 5

		_, err = svc.Credit(ctx, "1001", dec("5"))

		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, ErrConcurrentUpdate)
		assert.Equal(t, 3, repo.saveErrN)
	})

	t.Run("other persistence failures are not retried", func(t *testing.T) {
		repo := newFakeRepo()
		cache := newFakeCache()
		svc := newTestService(t, repo, WithCache(cache))
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)
		repo.saveErr, repo.saveErrN = errors.New("disk full"), 5

		_, err = svc.Credit(ctx, "1001", dec("5"))

		assert.ErrorIs(t, err, ErrPersistence)
		assert.Equal(t, 4, repo.saveErrN)
		assert.Equal(t, []string{"1001"}, cache.invalidated)
		assert.Empty(t, repo.stored(t, "1001").Transactions())
	})

	t.Run("all kinds through the generic entry point", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		_, err := svc.CreateAccount(ctx, "Alice", "1001")
		require.NoError(t, err)

		calls := []struct {
			kind   Kind
			params Params
		}{
			{KindDeposit, DepositParams{Amount: dec("100")}},
			{KindWithdrawal, WithdrawalParams{Amount: dec("10")}},
			{KindPhoneBillPayment, PhoneBillParams{Company: CompanyC, PhoneNumber: "5551234567", Amount: dec("20")}},
			{KindCheckPayment, CheckParams{Payee: "Bob", Amount: dec("30")}},
		}
		codes := make(map[string]struct{})
		for _, c := range calls {
			res, err := svc.Execute(ctx, c.kind, "1001", c.params)
			require.NoError(t, err, c.kind)
			codes[res.ApprovalCode] = struct{}{}
		}

		got := repo.stored(t, "1001")
		assert.True(t, dec("40").Equal(got.Balance()))
		assert.Len(t, got.Transactions(), 4)
		assert.Len(t, codes, 4)
		assertBalanced(t, got)
	})

	t.Run("concurrent postings on many accounts", func(t *testing.T) {
		// Arrange
		repo := newFakeRepo()
		svc := newTestService(t, repo)
		numbers := []string{"2001", "2002", "2003", "2004"}
		for _, n := range numbers {
			_, err := svc.CreateAccount(ctx, "Owner", n)
			require.NoError(t, err)
		}

		const perAccount = 25
		var wg sync.WaitGroup
		codes := make(chan string, perAccount*len(numbers))
		errs := make(chan error, perAccount*len(numbers))

		// Act
		for _, n := range numbers {
			for i := 0; i < perAccount; i++ {
				wg.Add(1)
				go func(n string) {
					defer wg.Done()
					res, err := svc.Credit(context.Background(), n, dec("2"))
					if err != nil {
						errs <- err
						return
					}
					codes <- res.ApprovalCode
				}(n)
			}
		}
		wg.Wait()
		close(codes)
		close(errs)

		// Assert
		for err := range errs {
			t.Errorf("unexpected error: %v", err)
		}
		seen := make(map[string]struct{})
		for c := range codes {
			seen[c] = struct{}{}
		}
		assert.Len(t, seen, perAccount*len(numbers))
		for _, n := range numbers {
			got := repo.stored(t, n)
			assert.True(t, dec("50").Equal(got.Balance()), "account %s: %s", n, got.Balance())
			assertBalanced(t, got)
		}
	})
}
