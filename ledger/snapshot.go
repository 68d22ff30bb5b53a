package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountSnapshot is the plain-data form of an account used by repositories
// and caches.
type AccountSnapshot struct {
	AccountNumber string                `json:"accountNumber"`
	Owner         string                `json:"owner"`
	Balance       decimal.Decimal       `json:"balance"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"createdAt"`
	Transactions  []TransactionSnapshot `json:"transactions"`
}

// TransactionSnapshot is the plain-data form of a posted transaction.
type TransactionSnapshot struct {
	Kind          Kind            `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	ApprovalCode  string          `json:"approvalCode"`
	AccountNumber string          `json:"accountNumber"`
	PhoneCompany  PhoneCompany    `json:"phoneCompany,omitempty"`
	PhoneNumber   string          `json:"phoneNumber,omitempty"`
	Payee         string          `json:"payee,omitempty"`
	CheckNumber   string          `json:"checkNumber,omitempty"`
}

// Snapshot copies the account state.
func (a *Account) Snapshot() AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := AccountSnapshot{
		AccountNumber: a.number,
		Owner:         a.owner,
		Balance:       a.balance,
		Version:       a.version,
		CreatedAt:     a.createdAt,
		Transactions:  make([]TransactionSnapshot, 0, len(a.transactions)),
	}
	for _, t := range a.transactions {
		s.Transactions = append(s.Transactions, t.Snapshot())
	}
	return s
}

// Snapshot copies the transaction state.
func (t *Transaction) Snapshot() TransactionSnapshot {
	s := TransactionSnapshot{
		Kind:          t.kind,
		Amount:        t.amount,
		Date:          t.date,
		ApprovalCode:  t.approvalCode,
		AccountNumber: t.accountNumber,
	}
	if t.phoneBill != nil {
		s.PhoneCompany = t.phoneBill.Company
		s.PhoneNumber = t.phoneBill.Number
	}
	if t.check != nil {
		s.Payee = t.check.Payee
		s.CheckNumber = t.check.Number
	}
	return s
}

// RestoreAccount rebuilds an account from a snapshot. The balance must equal
// the sum of the transaction effects and the version must equal the number of
// transactions, otherwise ErrCorruptLedger is returned.
func RestoreAccount(s AccountSnapshot) (*Account, error) {
	if err := ValidateAccountNumber(s.AccountNumber); err != nil {
		return nil, err
	}

	a := &Account{
		number:       s.AccountNumber,
		owner:        s.Owner,
		balance:      s.Balance,
		createdAt:    s.CreatedAt,
		version:      s.Version,
		transactions: make([]*Transaction, 0, len(s.Transactions)),
	}

	sum := decimal.Zero
	for i, ts := range s.Transactions {
		t, err := restoreTransaction(ts)
		if err != nil {
			return nil, fmt.Errorf("restore transaction %d: %w", i, err)
		}
		if t.accountNumber != s.AccountNumber {
			return nil, fmt.Errorf("transaction %d belongs to another account: %w", i, ErrCorruptLedger)
		}
		sum = sum.Add(t.Effect())
		if sum.IsNegative() {
			return nil, fmt.Errorf("balance negative after transaction %d: %w", i, ErrCorruptLedger)
		}
		a.transactions = append(a.transactions, t)
	}

	if !sum.Equal(s.Balance) {
		return nil, fmt.Errorf("balance %s, transactions sum %s: %w", s.Balance, sum, ErrCorruptLedger)
	}
	if s.Version != int64(len(s.Transactions)) {
		return nil, fmt.Errorf("version %d, %d transactions: %w", s.Version, len(s.Transactions), ErrCorruptLedger)
	}
	return a, nil
}

func restoreTransaction(s TransactionSnapshot) (*Transaction, error) {
	if !s.Kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q: %w", s.Kind, ErrCorruptLedger)
	}
	if !s.Amount.IsPositive() {
		return nil, fmt.Errorf("non-positive amount %s: %w", s.Amount, ErrCorruptLedger)
	}
	if s.ApprovalCode == "" || s.AccountNumber == "" {
		return nil, fmt.Errorf("transaction not posted: %w", ErrCorruptLedger)
	}

	t := &Transaction{
		kind:          s.Kind,
		amount:        s.Amount,
		date:          s.Date,
		approvalCode:  s.ApprovalCode,
		accountNumber: s.AccountNumber,
	}
	t.claimed.Store(true)
	switch s.Kind {
	case KindPhoneBillPayment:
		t.phoneBill = &PhoneBill{Company: s.PhoneCompany, Number: s.PhoneNumber}
	case KindCheckPayment:
		t.check = &Check{Payee: s.Payee, Number: s.CheckNumber}
	}
	return t, nil
}
