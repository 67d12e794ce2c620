package utilities

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
)

const (
	DefaultLimit = 100
	maxBodyBytes = 1 << 20
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json field names instead of Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate runs struct tag validation and returns a 422 apperr on failure.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(describe(verrs[0]))
	}
	return apperr.Validation(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + ": field required"
	case "email":
		return field + ": value is not a valid email address"
	case "min":
		return fmt.Sprintf("%s: should have at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: should have at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed on the '%s' rule", field, fe.Tag())
	}
}

// DecodeAndValidate decodes a JSON body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid payload")
	}
	return Validate(dst)
}

// Pagination reads skip/limit query parameters with the list defaults.
func Pagination(r *http.Request) (skip, limit int, err error) {
	skip, limit = 0, DefaultLimit
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			return 0, 0, apperr.Validation("skip: must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, apperr.Validation("limit: must be a non-negative integer")
		}
	}
	return skip, limit, nil
}
