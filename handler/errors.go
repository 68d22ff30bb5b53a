package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"simple-banking/ledger"
	"simple-banking/model"

	"go.uber.org/zap"
)

// responder writes JSON replies and maps ledger errors to HTTP statuses.
type responder struct {
	messages *Messages
	logger   *zap.Logger
	now      func() time.Time
}

func newResponder(messages *Messages, logger *zap.Logger) responder {
	if messages == nil {
		messages = NewMessages()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{messages: messages, logger: logger, now: time.Now}
}

func (rs responder) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.logger.Error("error writing JSON response", zap.Error(err))
	}
}

// writeError maps err to a status and a localized ErrorResponse.
//
//	404 account not found
//	409 duplicate account
//	422 insufficient funds
//	400 invalid body, validation failure, unknown transaction type
//	503 posting rolled back because it could not be persisted
//	500 anything else
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, key := http.StatusInternalServerError, msgInternal
	var details map[string]string

	var reqErr *requestError
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &reqErr):
		status, key, details = http.StatusBadRequest, msgInvalidBody, reqErr.details
		if len(details) > 0 {
			key = msgValidation
		}
	case errors.Is(err, ledger.ErrAccountNotFound):
		status, key = http.StatusNotFound, msgAccountNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount):
		status, key = http.StatusConflict, msgDuplicateAccount
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status, key = http.StatusUnprocessableEntity, msgInsufficientFund
	case errors.As(err, &verr):
		status, key = http.StatusBadRequest, msgValidation
		details = map[string]string{verr.Field: verr.Reason}
		if verr.Position >= 0 {
			details["position"] = strconv.Itoa(verr.Position)
		}
	case errors.Is(err, ledger.ErrStrategyNotFound):
		status, key = http.StatusBadRequest, msgUnsupportedType
	case errors.Is(err, ledger.ErrPersistence):
		status, key = http.StatusServiceUnavailable, msgNotPersisted
	}

	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("route", routeTemplate(r)),
			zap.Error(err))
	}

	rs.writeJSON(w, status, model.ErrorResponse{
		Timestamp: rs.now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   rs.messages.Text(rs.messages.Language(r), key),
		Path:      r.URL.Path,
		Details:   details,
	})
}
