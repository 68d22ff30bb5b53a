package ledger

import (
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

const maxPayeeLength = 100

var phoneNumberPattern = regexp.MustCompile(`^\d{10,11}$`)

// PhoneBill carries the payload of a phone-bill payment.
type PhoneBill struct {
	Company PhoneCompany
	Number  string
}

// Check carries the payload of a check payment.
type Check struct {
	Payee  string
	Number string
}

// Transaction is a tagged union over the four transaction kinds. The kind
// selects which payload is set and how apply changes a balance.
//
// A transaction is posted once an account has accepted it; posting assigns
// the owning account and the approval code, and neither changes afterwards.
type Transaction struct {
	kind      Kind
	amount    decimal.Decimal
	date      time.Time
	phoneBill *PhoneBill
	check     *Check

	// claimed is set by the one Post that may apply the transaction.
	claimed       atomic.Bool
	accountNumber string
	approvalCode  string
}

// NewDeposit builds a credit transaction.
func NewDeposit(amount decimal.Decimal) (*Transaction, error) {
	return newTransaction(KindDeposit, amount, 0)
}

// NewWithdrawal builds a debit transaction.
func NewWithdrawal(amount decimal.Decimal) (*Transaction, error) {
	return newTransaction(KindWithdrawal, amount, 0)
}

// NewPhoneBillPayment builds a phone-bill payment. The phone number must be
// 10 or 11 digits.
func NewPhoneBillPayment(company PhoneCompany, phoneNumber string, amount decimal.Decimal) (*Transaction, error) {
	if !company.Valid() {
		return nil, invalidParam("phoneCompany", 0, "unknown phone company "+string(company))
	}
	if !phoneNumberPattern.MatchString(phoneNumber) {
		return nil, invalidParam("phoneNumber", 1, "must be 10 or 11 digits")
	}
	t, err := newTransaction(KindPhoneBillPayment, amount, 2)
	if err != nil {
		return nil, err
	}
	t.phoneBill = &PhoneBill{Company: company, Number: phoneNumber}
	return t, nil
}

// NewCheckPayment builds a check payment and draws its check number from
// numbers at construction time.
func NewCheckPayment(numbers *CheckNumbers, payee string, amount decimal.Decimal) (*Transaction, error) {
	payee = strings.TrimSpace(payee)
	if payee == "" {
		return nil, invalidParam("payee", 0, "must not be blank")
	}
	if len(payee) > maxPayeeLength {
		return nil, invalidParam("payee", 0, "must be at most 100 characters")
	}
	t, err := newTransaction(KindCheckPayment, amount, 1)
	if err != nil {
		return nil, err
	}
	if numbers == nil {
		numbers = defaultCheckNumbers
	}
	t.check = &Check{Payee: payee, Number: numbers.NextFor(t.date)}
	return t, nil
}

func newTransaction(kind Kind, amount decimal.Decimal, amountPosition int) (*Transaction, error) {
	if err := validateAmount(amount, amountPosition); err != nil {
		return nil, err
	}
	return &Transaction{kind: kind, amount: amount, date: time.Now().UTC()}, nil
}

func validateAmount(amount decimal.Decimal, position int) error {
	if !amount.IsPositive() {
		return invalidParam("amount", position, "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return invalidParam("amount", position, "must have at most two decimal places")
	}
	return nil
}

func (t *Transaction) Kind() Kind { return t.kind }

func (t *Transaction) Amount() decimal.Decimal { return t.amount }

func (t *Transaction) Date() time.Time { return t.date }

// ApprovalCode is empty until the transaction is posted.
func (t *Transaction) ApprovalCode() string { return t.approvalCode }

// AccountNumber is the number of the owning account, empty until posted.
func (t *Transaction) AccountNumber() string { return t.accountNumber }

func (t *Transaction) Posted() bool { return t.accountNumber != "" && t.approvalCode != "" }

func (t *Transaction) PhoneBill() (PhoneBill, bool) {
	if t.phoneBill == nil {
		return PhoneBill{}, false
	}
	return *t.phoneBill, true
}

func (t *Transaction) Check() (Check, bool) {
	if t.check == nil {
		return Check{}, false
	}
	return *t.check, true
}

// Effect returns the signed change the transaction makes to a balance.
func (t *Transaction) Effect() decimal.Decimal {
	if t.kind.Debiting() {
		return t.amount.Neg()
	}
	return t.amount
}

// apply returns the balance after this transaction, or ErrInsufficientFunds
// when a debiting transaction exceeds the balance.
func (t *Transaction) apply(balance decimal.Decimal) (decimal.Decimal, error) {
	if t.kind.Debiting() && balance.LessThan(t.amount) {
		return balance, ErrInsufficientFunds
	}
	return balance.Add(t.Effect()), nil
}

// assignApprovalCode sets the approval code once.
func (t *Transaction) assignApprovalCode(code string) error {
	if t.approvalCode != "" {
		return ErrAlreadyPosted
	}
	if code == "" {
		return invalid("approvalCode", "must not be empty")
	}
	t.approvalCode = code
	return nil
}
