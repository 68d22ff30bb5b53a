package handler

import (
	"context"
	"net/http"

	"simple-banking/ledger"
	"simple-banking/model"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AccountService is the part of ledger.Service the handlers use.
type AccountService interface {
	CreateAccount(ctx context.Context, owner, number string) (*ledger.Account, error)
	GetAccount(ctx context.Context, number string) (*ledger.Account, error)
	Execute(ctx context.Context, kind ledger.Kind, number string, params ledger.Params) (ledger.Result, error)
}

// AccountHandler holds dependencies for account-related handlers.
type AccountHandler struct {
	service  AccountService
	validate *validator.Validate
	responder
}

// NewAccountHandler creates a new AccountHandler. A nil logger or message
// catalog falls back to a no-op logger and the built-in catalog.
func NewAccountHandler(service AccountService, messages *Messages, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validate:  newValidator(),
		responder: newResponder(messages, logger),
	}
}

// CreateAccountHandler opens a new bank account with a zero balance.
//
// Method: POST
// Path: /api/v1/bank-account/create
// Success: 201 Created
// Error: 400 Bad Request (invalid JSON or validation failure)
// Error: 409 Conflict (account number already taken)
func (h *AccountHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.service.CreateAccount(r.Context(), req.Owner, req.AccountNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, model.NewAccountResponse(acc))
}

// GetAccountHandler returns an account with its transaction history.
//
// Method: GET
// Path: /api/v1/bank-account/{account_number}
// Success: 200 OK
// Error: 400 Bad Request (malformed account number)
// Error: 404 Not Found
func (h *AccountHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["account_number"]
	if err := ledger.ValidateAccountNumber(number); err != nil {
		h.writeError(w, r, err)
		return
	}

	acc, err := h.service.GetAccount(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewAccountResponse(acc))
}
