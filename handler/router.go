package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const basePath = "/api/v1/bank-account"

// NewRouter registers the bank-account API on a mux router.
func NewRouter(accounts *AccountHandler, transactions *TransactionHandler, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(RequestLogger(logger))
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix(basePath).Subrouter()
	api.HandleFunc("/create", accounts.CreateAccountHandler).Methods(http.MethodPost)
	api.HandleFunc("/credit/{account_number}", transactions.CreditHandler).Methods(http.MethodPost)
	api.HandleFunc("/debit/{account_number}", transactions.DebitHandler).Methods(http.MethodPost)
	api.HandleFunc("/phone-bill-payment/{account_number}", transactions.PhoneBillPaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/check-payment/{account_number}", transactions.CheckPaymentHandler).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{account_number}", transactions.CreateTransactionHandler).Methods(http.MethodPost)
	api.HandleFunc("/{account_number}", accounts.GetAccountHandler).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// routeTemplate returns the matched route pattern, e.g.
// /api/v1/bank-account/debit/{account_number}. Raw paths carry account
// numbers and are never logged.
func routeTemplate(r *http.Request) string {
	if cr := mux.CurrentRoute(r); cr != nil {
		if tpl, err := cr.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RequestLogger logs every request with its route template rather than the
// raw path, so account numbers stay out of the access log.
func RequestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("route", routeTemplate(r)),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
