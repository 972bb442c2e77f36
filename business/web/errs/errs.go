// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// NewLedger wraps an error returned by the ledger with the status code
// matching its kind.
func NewLedger(err error) error {
	switch {
	case errors.Is(err, database.ErrInvalidSignature),
		errors.Is(err, database.ErrInvalidConstruction),
		errors.Is(err, wire.ErrMalformedMessage):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrInvalidProofOfWork),
		errors.Is(err, database.ErrChainLinkage):
		return NewTrusted(err, http.StatusNotAcceptable)

	case errors.Is(err, database.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, wire.ErrNetwork):
		return NewTrusted(err, http.StatusBadGateway)

	case errors.Is(err, wire.ErrNotReady):
		return NewTrusted(err, http.StatusServiceUnavailable)
	}

	return err
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
