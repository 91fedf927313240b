// Package result defines the error value returned across the devspark pipeline
// boundaries in place of a plan or review.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Type tags for Error.
const (
	TypeValue            = "ValueError"
	TypeKey              = "KeyError"
	TypeJSONDecode       = "JSONDecodeError"
	TypeInvalidStructure = "InvalidStructure"
	TypeTransport        = "TransportError"
)

// Error is a failed pipeline outcome. It is returned as the error of every
// boundary operation, carries the offending model text when there is one, and
// serializes to {"error", "error_type", "raw_response", "retried"}.
type Error struct {
	Message     string `json:"error"`
	Type        string `json:"error_type"`
	RawResponse string `json:"raw_response,omitempty"`
	Retried     int    `json:"retried,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Retried > 0 {
		return fmt.Sprintf("%s: %s (after %d retries)", e.Type, e.Message, e.Retried)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// JSON returns the serialized form of the error.
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New builds an Error with the given tag.
func New(typ, msg string) *Error {
	return &Error{Message: msg, Type: typ}
}

// WithRaw builds an Error that keeps the raw model response.
func WithRaw(typ, msg, raw string) *Error {
	return &Error{Message: msg, Type: typ, RawResponse: raw}
}

// From converts any error into an *Error. Errors that already are (or wrap)
// an *Error are returned as is; anything else is tagged with the name of its
// concrete type.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Message: err.Error(), Type: TypeName(err), cause: err}
}

// Wrap tags err with typ while keeping it reachable through errors.Unwrap.
func Wrap(typ string, err error) *Error {
	return &Error{Message: err.Error(), Type: typ, cause: err}
}

// TypeName returns the bare type name of v, dereferencing pointers.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "error"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}

// Is reports whether err carries an *Error with the given tag.
func Is(err error, typ string) bool {
	var re *Error
	return errors.As(err, &re) && re.Type == typ
}
