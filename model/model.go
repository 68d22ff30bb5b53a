// Package model defines the request and response bodies of the HTTP API.
package model

import (
	"time"

	"simple-banking/ledger"

	"github.com/shopspring/decimal"
)

// Amounts are decimal.Decimal and marshal to JSON strings such as "96.50".

// CreateAccountRequest defines the expected JSON body for opening an account.
type CreateAccountRequest struct {
	Owner         string `json:"owner" validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=4,max=16"`
}

// AmountRequest is the body of credit and debit requests.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

// PhoneBillPaymentRequest is the body of a phone-bill payment.
type PhoneBillPaymentRequest struct {
	PhoneCompany string          `json:"phone_company" validate:"required"`
	PhoneNumber  string          `json:"phone_number" validate:"required,numeric,min=10,max=11"`
	Amount       decimal.Decimal `json:"amount" validate:"money"`
}

// CheckPaymentRequest is the body of a check payment.
type CheckPaymentRequest struct {
	Payee  string          `json:"payee" validate:"required,max=100"`
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

// TransactionRequest is the body of the generic transaction endpoint. Which
// of the optional fields are required depends on TransactionType.
type TransactionRequest struct {
	TransactionType string          `json:"transaction_type" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"money"`
	PhoneCompany    string          `json:"phone_company,omitempty"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	Payee           string          `json:"payee,omitempty"`
}

// Params converts the request into typed ledger parameters.
func (r PhoneBillPaymentRequest) Params() (ledger.PhoneBillParams, error) {
	company, err := ledger.ParsePhoneCompany(r.PhoneCompany)
	if err != nil {
		return ledger.PhoneBillParams{}, err
	}
	return ledger.PhoneBillParams{Company: company, PhoneNumber: r.PhoneNumber, Amount: r.Amount}, nil
}

// Params resolves the transaction kind and its typed parameters.
func (r TransactionRequest) Params() (ledger.Kind, ledger.Params, error) {
	kind, err := ledger.ParseKind(r.TransactionType)
	if err != nil {
		return "", nil, err
	}

	switch kind {
	case ledger.KindDeposit:
		return kind, ledger.DepositParams{Amount: r.Amount}, nil
	case ledger.KindWithdrawal:
		return kind, ledger.WithdrawalParams{Amount: r.Amount}, nil
	case ledger.KindPhoneBillPayment:
		p, err := PhoneBillPaymentRequest{
			PhoneCompany: r.PhoneCompany,
			PhoneNumber:  r.PhoneNumber,
			Amount:       r.Amount,
		}.Params()
		return kind, p, err
	default:
		return kind, ledger.CheckParams{Payee: r.Payee, Amount: r.Amount}, nil
	}
}

// AccountResponse is an account with its full transaction history.
type AccountResponse struct {
	AccountNumber string                `json:"account_number"`
	Owner         string                `json:"owner"`
	Balance       decimal.Decimal       `json:"balance"`
	CreatedAt     time.Time             `json:"created_at"`
	Transactions  []TransactionResponse `json:"transactions"`
}

// TransactionResponse describes one posted transaction.
type TransactionResponse struct {
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	Operation    string          `json:"operation"`
	ApprovalCode string          `json:"approval_code"`
	PhoneCompany string          `json:"phone_company,omitempty"`
	PhoneNumber  string          `json:"phone_number,omitempty"`
	Payee        string          `json:"payee,omitempty"`
	CheckNumber  string          `json:"check_number,omitempty"`
}

// TransactionStatusResponse is returned for every successful posting.
type TransactionStatusResponse struct {
	Status       string `json:"status"`
	ApprovalCode string `json:"approval_code"`
	CheckNumber  string `json:"check_number,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Path      string            `json:"path"`
	Details   map[string]string `json:"details,omitempty"`
}

func NewAccountResponse(a *ledger.Account) AccountResponse {
	txs := a.Transactions()
	resp := AccountResponse{
		AccountNumber: a.Number(),
		Owner:         a.Owner(),
		Balance:       a.Balance().Round(2),
		CreatedAt:     a.CreatedAt(),
		Transactions:  make([]TransactionResponse, 0, len(txs)),
	}
	for _, t := range txs {
		resp.Transactions = append(resp.Transactions, NewTransactionResponse(t))
	}
	return resp
}

func NewTransactionResponse(t *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Date:         t.Date(),
		Amount:       t.Amount(),
		Type:         string(t.Kind()),
		Operation:    t.Kind().Operation(),
		ApprovalCode: t.ApprovalCode(),
	}
	if pb, ok := t.PhoneBill(); ok {
		resp.PhoneCompany = pb.Company.DisplayName()
		resp.PhoneNumber = pb.Number
	}
	if chk, ok := t.Check(); ok {
		resp.Payee = chk.Payee
		resp.CheckNumber = chk.Number
	}
	return resp
}

func NewTransactionStatusResponse(r ledger.Result) TransactionStatusResponse {
	resp := TransactionStatusResponse{Status: r.Status, ApprovalCode: r.ApprovalCode}
	if r.Transaction != nil {
		if chk, ok := r.Transaction.Check(); ok {
			resp.CheckNumber = chk.Number
		}
	}
	return resp
}
