package storage

import (
	"context"
	"fmt"
	"sync"

	"simple-banking/ledger"
)

var _ ledger.Repository = (*MemoryStore)(nil)

// MemoryStore is an in-process ledger.Repository. It keeps snapshots, so every
// FindByAccountNumber hands out an independent copy, and it checks versions
// on Save the same way PostgresStore does.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]ledger.AccountSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]ledger.AccountSnapshot)}
}

func (s *MemoryStore) Create(_ context.Context, account *ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Number()]; ok {
		return ledger.ErrDuplicateAccount
	}
	s.accounts[account.Number()] = account.Snapshot()
	return nil
}

func (s *MemoryStore) ExistsByAccountNumber(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[number]
	return ok, nil
}

func (s *MemoryStore) FindByAccountNumber(_ context.Context, number string) (*ledger.Account, error) {
	s.mu.RLock()
	snapshot, ok := s.accounts[number]
	s.mu.RUnlock()

	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return ledger.RestoreAccount(snapshot)
}

// Save stores the account as of t. The transaction must be the account's
// latest posting.
func (s *MemoryStore) Save(ctx context.Context, account *ledger.Account, t *ledger.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := account.Snapshot()
	if n := len(next.Transactions); n == 0 || next.Transactions[n-1].ApprovalCode != t.ApprovalCode() {
		return fmt.Errorf("transaction %s is not the latest posting", t.ApprovalCode())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[next.AccountNumber]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	if stored.Version != next.Version-1 {
		return fmt.Errorf("stored version %d, posting version %d: %w", stored.Version, next.Version, ledger.ErrConcurrentUpdate)
	}
	s.accounts[next.AccountNumber] = next
	return nil
}
