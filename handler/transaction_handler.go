package handler

import (
	"net/http"

	"simple-banking/ledger"
	"simple-banking/model"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service  AccountService
	validate *validator.Validate
	responder
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service AccountService, messages *Messages, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		validate:  newValidator(),
		responder: newResponder(messages, logger),
	}
}

// CreditHandler deposits money into an account.
//
// Method: POST
// Path: /api/v1/bank-account/credit/{account_number}
// Success: 200 OK with status and approval code
// Error: 400 Bad Request, 404 Not Found
func (h *TransactionHandler) CreditHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AmountRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.execute(w, r, ledger.KindDeposit, ledger.DepositParams{Amount: req.Amount})
}

// DebitHandler withdraws money from an account.
//
// Method: POST
// Path: /api/v1/bank-account/debit/{account_number}
// Error: 422 Unprocessable Entity when the balance is too low
func (h *TransactionHandler) DebitHandler(w http.ResponseWriter, r *http.Request) {
	var req model.AmountRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.execute(w, r, ledger.KindWithdrawal, ledger.WithdrawalParams{Amount: req.Amount})
}

// PhoneBillPaymentHandler pays a phone bill from an account.
//
// Method: POST
// Path: /api/v1/bank-account/phone-bill-payment/{account_number}
func (h *TransactionHandler) PhoneBillPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req model.PhoneBillPaymentRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	params, err := req.Params()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.execute(w, r, ledger.KindPhoneBillPayment, params)
}

// CheckPaymentHandler pays a check from an account. The response carries the
// generated check number.
//
// Method: POST
// Path: /api/v1/bank-account/check-payment/{account_number}
func (h *TransactionHandler) CheckPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CheckPaymentRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.execute(w, r, ledger.KindCheckPayment, ledger.CheckParams{Payee: req.Payee, Amount: req.Amount})
}

// CreateTransactionHandler posts any registered transaction type named in the
// body's transaction_type.
//
// Method: POST
// Path: /api/v1/bank-account/transactions/{account_number}
// Error: 400 Bad Request for an unknown transaction type
func (h *TransactionHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req model.TransactionRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	kind, params, err := req.Params()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.execute(w, r, kind, params)
}

func (h *TransactionHandler) execute(w http.ResponseWriter, r *http.Request, kind ledger.Kind, params ledger.Params) {
	number := mux.Vars(r)["account_number"]
	if err := ledger.ValidateAccountNumber(number); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.Execute(r.Context(), kind, number, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewTransactionStatusResponse(res))
}
