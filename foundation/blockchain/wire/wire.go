// Package wire implements the message protocol spoken between nodes. Every
// message is a JSON envelope holding a kind and a payload, written to the
// connection as a length prefixed frame.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
)

// Set of error variables for the protocol.
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrMessageTooLarge  = errors.New("message too large")
	ErrNotReady         = errors.New("node is bootstrapping")
	ErrNetwork          = errors.New("network failure")
)

// Kind identifies the payload carried by an envelope.
type Kind string

// Set of request kinds a node accepts.
const (
	KindBootstrapRequest Kind = "bootstrap_request"
	KindTransaction      Kind = "transaction"
	KindBlock            Kind = "block"
)

// Set of response kinds a node answers with.
const (
	KindLedger Kind = "ledger"
	KindAck    Kind = "ack"
	KindError  Kind = "error"
)

// Envelope is the unit of communication on the wire.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals the payload into an envelope of the specified kind.
func NewEnvelope(kind Kind, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	return Envelope{Kind: kind, Payload: data}, nil
}

// Decode unmarshals the payload into the specified value.
func (env Envelope) Decode(v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s payload is missing", ErrMalformedMessage, env.Kind)
	}

	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %w", ErrMalformedMessage, env.Kind, err)
	}

	return nil
}

// =============================================================================

// Ack is the payload of an ack response.
type Ack struct {
	Status string `json:"status"`
}

// NewAck constructs an ack envelope with the specified status.
func NewAck(status string) Envelope {
	env, _ := NewEnvelope(KindAck, Ack{Status: status})
	return env
}

// =============================================================================

// Set of error codes carried by error responses.
const (
	CodeInvalidSignature    = "invalid_signature"
	CodeInvalidProofOfWork  = "invalid_proof_of_work"
	CodeChainLinkage        = "chain_linkage"
	CodeInvalidConstruction = "invalid_construction"
	CodeMalformedMessage    = "malformed_message"
	CodeMessageTooLarge     = "message_too_large"
	CodeNotReady            = "not_ready"
	CodeInternal            = "internal"
)

// codes maps the protocol codes to the errors they stand for.
var codes = []struct {
	code string
	err  error
}{
	{CodeInvalidSignature, database.ErrInvalidSignature},
	{CodeInvalidProofOfWork, database.ErrInvalidProofOfWork},
	{CodeChainLinkage, database.ErrChainLinkage},
	{CodeInvalidConstruction, database.ErrInvalidConstruction},
	{CodeMessageTooLarge, ErrMessageTooLarge},
	{CodeNotReady, ErrNotReady},
	{CodeMalformedMessage, ErrMalformedMessage},
}

// ErrorPayload is the payload of an error response.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError constructs an error envelope for the specified error. Errors that
// are not part of the protocol are reported as internal.
func NewError(err error) Envelope {
	ep := ErrorPayload{
		Code:    CodeOf(err),
		Message: err.Error(),
	}

	env, _ := NewEnvelope(KindError, ep)
	return env
}

// CodeOf returns the error code matching the kind of the error.
func CodeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}

// Err converts the payload back into an error that wraps the matching error
// variable so callers can use errors.Is on remote rejections.
func (ep *ErrorPayload) Err() error {
	for _, c := range codes {
		if c.code == ep.Code {
			detail := strings.TrimPrefix(ep.Message, c.err.Error())
			detail = strings.TrimPrefix(detail, ": ")
			if detail == "" {
				return fmt.Errorf("remote: %w", c.err)
			}
			return fmt.Errorf("remote: %w: %s", c.err, detail)
		}
	}

	return fmt.Errorf("remote: %s: %s", ep.Code, ep.Message)
}
