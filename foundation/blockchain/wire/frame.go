package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize is the largest envelope a node will read or write.
const MaxMessageSize = 16 * 1024 * 1024

// MaxPayloadSize leaves room in a frame for the envelope around a payload.
const MaxPayloadSize = MaxMessageSize - 1024

// WriteMessage writes the envelope as a 4 byte big endian length followed by
// the JSON encoding of the envelope.
func WriteMessage(w io.Writer, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if len(data) > MaxMessageSize {
		return fmt.Errorf("%w: %s: %d > %d", ErrMessageTooLarge, env.Kind, len(data), MaxMessageSize)
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	if _, err := w.Write(frame); err != nil {
		return err
	}

	return nil
}

// ReadMessage reads exactly one frame and decodes the envelope it carries.
// Failures reading the connection are returned as is, a frame that can't be
// decoded returns ErrMalformedMessage.
func ReadMessage(r io.Reader) (Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Envelope{}, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxMessageSize {
		return Envelope{}, fmt.Errorf("%w: %w: %d > %d", ErrMalformedMessage, ErrMessageTooLarge, length, MaxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return Envelope{}, err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("%w: kind is missing", ErrMalformedMessage)
	}

	return env, nil
}
