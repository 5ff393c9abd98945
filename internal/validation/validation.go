// Package validation wraps go-playground/validator so request bodies report
// failures keyed by their JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid matches every *Error via errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error collects per-field validation failures.
type Error struct {
	Fields map[string]string
}

// NewError returns an Error holding a single field failure.
func NewError(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalid.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Validator validates structs tagged with `validate`.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct returns nil, an *Error describing every failing field, or a
// wrapped error when s cannot be validated at all.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
