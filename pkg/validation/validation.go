// Package validation decodes JSON request bodies into typed values and
// checks them against their `validate` struct tags.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/classroom-service/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Result is a decoded body or the reason it could not be decoded. Handlers
// decode eagerly and consume the result only once the caller is authorized.
type Result[T any] struct {
	value T
	err   error
}

// Get returns the decoded value or a BAD_REQUEST error.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Ok reports whether decoding and validation succeeded.
func (r Result[T]) Ok() bool {
	return r.err == nil
}

// Decode parses body as JSON into T and validates it.
func Decode[T any](body []byte) Result[T] {
	var value T
	if len(body) == 0 {
		return Result[T]{err: apperrors.NewBadRequest("request body is required")}
	}
	if err := json.Unmarshal(body, &value); err != nil {
		return Result[T]{err: apperrors.NewValidationError("invalid request body", ToDetails(err))}
	}
	if err := validate.Struct(value); err != nil {
		details := ToDetails(err)
		return Result[T]{err: apperrors.NewValidationError(summary(details), details)}
	}
	return Result[T]{value: value}
}

// ParseID reads a path parameter that must hold a positive integer id.
// label names the parameter in error messages, e.g. "classroom id".
func ParseID(raw, label string) Result[int64] {
	if raw == "" {
		return Result[int64]{err: apperrors.NewBadRequest("Missing " + label + " in path parameters")}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Result[int64]{err: apperrors.NewBadRequest(label + " must be a positive integer")}
	}
	return Result[int64]{value: id}
}

// Valid wraps an already checked value.
func Valid[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// ToDetails converts decode and validation errors into field messages.
func ToDetails(err error) map[string]any {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return map[string]any{ute.Field: "must be a " + ute.Type.Kind().String()}
	}
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]any{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]any{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters"
	case "gt":
		return "must be greater than " + param
	}
	if param != "" {
		return fmt.Sprintf("failed '%s=%s' validation", fe.Tag(), param)
	}
	return fmt.Sprintf("failed '%s' validation", fe.Tag())
}

// summary joins field messages into one line, e.g. "name is required".
func summary(details map[string]any) string {
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %v", field, details[field]))
	}
	return strings.Join(parts, "; ")
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
