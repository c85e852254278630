package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps how much of a request body is decoded.
const MaxBodyBytes = 1 << 20

// Error is a client input error; Message names the first failing field.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct checks v against its validate tags. A failure is returned as *Error
// describing the first violated field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	return &Error{Message: message(validationErrs[0])}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "min":
		if fe.Kind() != reflect.String {
			return fmt.Sprintf("%q must contain at least %s items", field, fe.Param())
		}
		if fe.Param() == "1" {
			return fmt.Sprintf("%q is not allowed to be empty", field)
		}
		return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
	case "max":
		if fe.Kind() != reflect.String {
			return fmt.Sprintf("%q must contain less than or equal to %s items", field, fe.Param())
		}
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}

// DecodeJSON decodes a JSON object from body into v. An empty body decodes
// as an empty object. Decoding failures come back as *Error.
func DecodeJSON(body io.Reader, v any) error {
	if body == nil {
		return nil
	}

	err := json.NewDecoder(io.LimitReader(body, MaxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeError(typeErr)
	}

	return newError("invalid request body")
}

func typeError(typeErr *json.UnmarshalTypeError) *Error {
	field := typeErr.Field
	if field == "" {
		field = "value"
	}

	switch typeErr.Type.Kind() {
	case reflect.String:
		return newError("%q must be a string", field)
	case reflect.Slice, reflect.Array:
		return newError("%q must be an array", field)
	case reflect.Bool:
		return newError("%q must be a boolean", field)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return newError("%q must be a number", field)
	default:
		return newError("%q must be of type object", field)
	}
}

// DecodeAndValidate is DecodeJSON followed by Struct.
func DecodeAndValidate(body io.Reader, v any) error {
	if err := DecodeJSON(body, v); err != nil {
		return err
	}
	return Struct(v)
}
