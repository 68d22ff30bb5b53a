package ledger

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const maxOwnerLength = 100

var accountNumberPattern = regexp.MustCompile(`^\d{4,16}$`)

// Account is the aggregate root of the ledger. Its balance changes only
// through Post, which applies a transaction and appends it to the history in
// one step. The balance never goes negative.
//
// Version counts posted transactions and is what repositories compare to
// detect concurrent writers.
type Account struct {
	mu           sync.Mutex
	number       string
	owner        string
	balance      decimal.Decimal
	createdAt    time.Time
	version      int64
	transactions []*Transaction
}

// NewAccount returns an empty account with zero balance.
func NewAccount(owner, number string) (*Account, error) {
	owner = strings.TrimSpace(owner)
	if err := ValidateAccountNumber(number); err != nil {
		return nil, err
	}
	if owner == "" {
		return nil, invalid("owner", "must not be blank")
	}
	if len(owner) > maxOwnerLength {
		return nil, invalid("owner", "must be at most 100 characters")
	}
	return &Account{
		number:    number,
		owner:     owner,
		balance:   decimal.Zero,
		createdAt: time.Now().UTC(),
	}, nil
}

// ValidateAccountNumber accepts 4 to 16 digits.
func ValidateAccountNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return invalid("accountNumber", "must not be blank")
	}
	if !accountNumberPattern.MatchString(number) {
		return invalid("accountNumber", "must be 4 to 16 digits")
	}
	return nil
}

func (a *Account) Number() string { return a.number }

func (a *Account) Owner() string { return a.owner }

func (a *Account) CreatedAt() time.Time { return a.createdAt }

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *Account) Version() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.version
}

// Transactions returns the posted transactions in posting order.
func (a *Account) Transactions() []*Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// Post applies t to the account and records it. If t fails to apply the
// account is left untouched. An approval code is minted if t has none.
//
// A transaction is applied at most once: of several Post calls racing on the
// same t, on one or on different accounts, only one can succeed and the
// others return ErrAlreadyPosted.
func (a *Account) Post(t *Transaction) error {
	if t == nil {
		return invalid("transaction", "must not be nil")
	}
	if !t.claimed.CompareAndSwap(false, true) {
		return ErrAlreadyPosted
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	balance, err := t.apply(a.balance)
	if err != nil {
		t.claimed.Store(false)
		return err
	}
	if t.approvalCode == "" {
		t.approvalCode = NewApprovalCode()
	}
	a.balance = balance
	a.version++
	t.accountNumber = a.number
	a.transactions = append(a.transactions, t)
	return nil
}

// unpost reverts t if it is the most recent posting. It reports whether
// anything was reverted.
func (a *Account) unpost(t *Transaction) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.transactions)
	if n == 0 || a.transactions[n-1] != t {
		return false
	}
	a.balance = a.balance.Sub(t.Effect())
	a.version--
	a.transactions[n-1] = nil
	a.transactions = a.transactions[:n-1]
	t.accountNumber = ""
	t.claimed.Store(false)
	return true
}

// Credit posts a deposit of amount.
func (a *Account) Credit(amount decimal.Decimal) (*Transaction, error) {
	t, err := NewDeposit(amount)
	if err != nil {
		return nil, err
	}
	return a.postNew(t)
}

// Debit posts a withdrawal of amount.
func (a *Account) Debit(amount decimal.Decimal) (*Transaction, error) {
	t, err := NewWithdrawal(amount)
	if err != nil {
		return nil, err
	}
	return a.postNew(t)
}

// PayPhoneBill posts a phone-bill payment.
func (a *Account) PayPhoneBill(company PhoneCompany, phoneNumber string, amount decimal.Decimal) (*Transaction, error) {
	t, err := NewPhoneBillPayment(company, phoneNumber, amount)
	if err != nil {
		return nil, err
	}
	return a.postNew(t)
}

// PayCheck posts a check payment numbered by the package-wide check sequence.
func (a *Account) PayCheck(payee string, amount decimal.Decimal) (*Transaction, error) {
	t, err := NewCheckPayment(nil, payee, amount)
	if err != nil {
		return nil, err
	}
	return a.postNew(t)
}

func (a *Account) postNew(t *Transaction) (*Transaction, error) {
	if err := a.Post(t); err != nil {
		return nil, err
	}
	return t, nil
}
