package gateway

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// ErrAuth covers 401/403 responses. The caller decides whether to
	// tear down the session; the gateway never mutates it.
	ErrAuth ErrorKind = "auth"
	// ErrValidation covers other 4xx responses on mutations, e.g. a
	// duplicate target name. The server's message is carried verbatim.
	ErrValidation ErrorKind = "validation"
	// ErrNetwork covers transport failures before any response arrived.
	ErrNetwork ErrorKind = "network"
	// ErrDecode covers responses whose body did not match the expected
	// shape.
	ErrDecode ErrorKind = "decode"
	// ErrServer covers 5xx responses.
	ErrServer ErrorKind = "server"
)

// APIError is the only error type callers receive from the gateway; raw
// transport errors never escape.
type APIError struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int
	Err        error
}

func (e *APIError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrAuth
}

func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrValidation
}

func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrNetwork
}
