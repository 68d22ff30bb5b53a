package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Params is the typed parameter set for one transaction kind. Each strategy
// accepts exactly one Params type.
type Params interface {
	Kind() Kind
}

// DepositParams builds a KindDeposit transaction.
type DepositParams struct {
	Amount decimal.Decimal
}

// WithdrawalParams builds a KindWithdrawal transaction.
type WithdrawalParams struct {
	Amount decimal.Decimal
}

// PhoneBillParams builds a KindPhoneBillPayment transaction.
type PhoneBillParams struct {
	Company     PhoneCompany
	PhoneNumber string
	Amount      decimal.Decimal
}

// CheckParams builds a KindCheckPayment transaction.
type CheckParams struct {
	Payee  string
	Amount decimal.Decimal
}

func (DepositParams) Kind() Kind    { return KindDeposit }
func (WithdrawalParams) Kind() Kind { return KindWithdrawal }
func (PhoneBillParams) Kind() Kind  { return KindPhoneBillPayment }
func (CheckParams) Kind() Kind      { return KindCheckPayment }

// Strategy builds transactions of a single kind.
type Strategy interface {
	Kind() Kind
	// Operation is the label used in logs and error messages.
	Operation() string
	// Build validates params and returns an unposted transaction. Passing
	// parameters of another kind is a *ValidationError.
	Build(params Params) (*Transaction, error)
}

type depositStrategy struct{}

// DepositStrategy handles KindDeposit.
func DepositStrategy() Strategy { return depositStrategy{} }

func (depositStrategy) Kind() Kind        { return KindDeposit }
func (depositStrategy) Operation() string { return KindDeposit.Operation() }

func (depositStrategy) Build(params Params) (*Transaction, error) {
	p, err := paramsAs[DepositParams](params)
	if err != nil {
		return nil, err
	}
	return NewDeposit(p.Amount)
}

type withdrawalStrategy struct{}

// WithdrawalStrategy handles KindWithdrawal.
func WithdrawalStrategy() Strategy { return withdrawalStrategy{} }

func (withdrawalStrategy) Kind() Kind        { return KindWithdrawal }
func (withdrawalStrategy) Operation() string { return KindWithdrawal.Operation() }

func (withdrawalStrategy) Build(params Params) (*Transaction, error) {
	p, err := paramsAs[WithdrawalParams](params)
	if err != nil {
		return nil, err
	}
	return NewWithdrawal(p.Amount)
}

type phoneBillStrategy struct{}

// PhoneBillStrategy handles KindPhoneBillPayment.
func PhoneBillStrategy() Strategy { return phoneBillStrategy{} }

func (phoneBillStrategy) Kind() Kind        { return KindPhoneBillPayment }
func (phoneBillStrategy) Operation() string { return KindPhoneBillPayment.Operation() }

func (phoneBillStrategy) Build(params Params) (*Transaction, error) {
	p, err := paramsAs[PhoneBillParams](params)
	if err != nil {
		return nil, err
	}
	return NewPhoneBillPayment(p.Company, p.PhoneNumber, p.Amount)
}

type checkStrategy struct {
	numbers *CheckNumbers
}

// CheckStrategy handles KindCheckPayment, drawing check numbers from numbers.
func CheckStrategy(numbers *CheckNumbers) Strategy {
	if numbers == nil {
		numbers = defaultCheckNumbers
	}
	return checkStrategy{numbers: numbers}
}

func (checkStrategy) Kind() Kind        { return KindCheckPayment }
func (checkStrategy) Operation() string { return KindCheckPayment.Operation() }

func (s checkStrategy) Build(params Params) (*Transaction, error) {
	p, err := paramsAs[CheckParams](params)
	if err != nil {
		return nil, err
	}
	return NewCheckPayment(s.numbers, p.Payee, p.Amount)
}

// DefaultStrategies returns one strategy per known kind.
func DefaultStrategies(numbers *CheckNumbers) []Strategy {
	return []Strategy{
		DepositStrategy(),
		WithdrawalStrategy(),
		PhoneBillStrategy(),
		CheckStrategy(numbers),
	}
}

func paramsAs[P Params](params Params) (P, error) {
	var zero P
	switch p := any(params).(type) {
	case P:
		return p, nil
	case *P:
		if p != nil {
			return *p, nil
		}
	}
	return zero, invalid("params", fmt.Sprintf("expected %T, got %T", zero, params))
}
