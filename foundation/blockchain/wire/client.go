package wire

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Timeouts bounds every step of an exchange with a peer.
type Timeouts struct {
	Dial  time.Duration
	Read  time.Duration
	Write time.Duration
}

// DefaultTimeouts are used when a zero value is provided.
var DefaultTimeouts = Timeouts{
	Dial:  5 * time.Second,
	Read:  10 * time.Second,
	Write: 5 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Dial <= 0 {
		t.Dial = DefaultTimeouts.Dial
	}
	if t.Read <= 0 {
		t.Read = DefaultTimeouts.Read
	}
	if t.Write <= 0 {
		t.Write = DefaultTimeouts.Write
	}

	return t
}

// Exchange opens a connection to the address, writes the request and reads
// the single response the node answers with. Failures talking to the node
// wrap ErrNetwork.
func Exchange(ctx context.Context, addr string, timeouts Timeouts, req Envelope) (Envelope, error) {
	timeouts = timeouts.withDefaults()

	dialer := net.Dialer{Timeout: timeouts.Dial}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: dial %s: %w", ErrNetwork, addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(deadline(ctx, timeouts.Write)); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s: %w", ErrNetwork, addr, err)
	}

	if err := WriteMessage(conn, req); err != nil {
		return Envelope{}, fmt.Errorf("%w: write %s: %w", ErrNetwork, addr, err)
	}

	if err := conn.SetReadDeadline(deadline(ctx, timeouts.Read)); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s: %w", ErrNetwork, addr, err)
	}

	resp, err := ReadMessage(conn)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: read %s: %w", ErrNetwork, addr, err)
	}

	return resp, nil
}

// Call performs an exchange and decodes the response into out when the node
// answers with the expected kind. An error response is converted back into
// the matching error.
func Call(ctx context.Context, addr string, timeouts Timeouts, req Envelope, expKind Kind, out any) error {
	resp, err := Exchange(ctx, addr, timeouts, req)
	if err != nil {
		return err
	}

	switch resp.Kind {
	case expKind:
		if out == nil {
			return nil
		}
		return resp.Decode(out)

	case KindError:
		var ep ErrorPayload
		if err := resp.Decode(&ep); err != nil {
			return err
		}
		return ep.Err()

	default:
		return fmt.Errorf("%w: unexpected response kind %q, exp %q", ErrMalformedMessage, resp.Kind, expKind)
	}
}

// deadline returns the earlier of the context deadline and now plus the
// specified timeout.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}

	return d
}
