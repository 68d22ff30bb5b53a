package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var errInvalidBody = errors.New("invalid request body")

// requestError is a malformed or invalid request body. Details maps JSON field
// names to the rule they broke.
type requestError struct {
	err     error
	details map[string]string
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// newValidator returns a validator that knows decimal amounts. Field names in
// errors are the JSON names. It panics if a custom rule cannot be registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// money: strictly positive with at most two fractional digits.
	if err := v.RegisterValidation("money", validMoney); err != nil {
		panic(fmt.Sprintf("register money validation: %v", err))
	}

	return v
}

func validMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Round(2))
}

// decodeAndValidate reads a JSON body into dst and validates it.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &requestError{err: fmt.Errorf("%w: %v", errInvalidBody, err)}
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &requestError{err: fmt.Errorf("%w: %v", errInvalidBody, err)}
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			details[fe.Field()] = rule
		}
		return &requestError{err: errInvalidBody, details: details}
	}
	return nil
}
