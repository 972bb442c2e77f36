// Package p2p implements the node side of the peer protocol. The server
// accepts one connection at a time, reads a single framed envelope, hands it
// to the state and writes back a single response.
package p2p

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/state"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// Set of default timeouts for handling a connection.
const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Config represents the configuration for the peer server. MaxPageSize
// bounds the payload of a ledger response and defaults to the largest payload
// a frame can carry.
type Config struct {
	State        *state.State
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxPageSize  int
	EvHandler    state.EventHandler
}

// Server accepts connections from peers and wallets.
type Server struct {
	state        *state.State
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxPageSize  int
	evHandler    state.EventHandler

	mu       sync.Mutex
	listener net.Listener
	shut     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a server for the node.
func New(cfg Config) *Server {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	srv := Server{
		state:        cfg.State,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		maxPageSize:  cfg.MaxPageSize,
		evHandler:    ev,
		shut:         make(chan struct{}),
	}

	if srv.readTimeout <= 0 {
		srv.readTimeout = defaultReadTimeout
	}
	if srv.writeTimeout <= 0 {
		srv.writeTimeout = defaultWriteTimeout
	}
	if srv.maxPageSize <= 0 || srv.maxPageSize > wire.MaxPayloadSize {
		srv.maxPageSize = wire.MaxPayloadSize
	}

	return &srv
}

// Listen opens the TCP listener the server will accept connections on.
func Listen(host string, port int) (net.Listener, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return l, nil
}

// Start runs the accept loop on its own goroutine.
func (s *Server) Start(l net.Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.evHandler("p2p: Start: listening: addr[%s]", l.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections(l)
	}()
}

// Shutdown closes the listener and waits for the connection being handled
// to complete.
func (s *Server) Shutdown() error {
	s.evHandler("p2p: shutdown: started")
	defer s.evHandler("p2p: shutdown: completed")

	close(s.shut)

	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	var err error
	if l != nil {
		err = l.Close()
	}

	s.wg.Wait()

	return err
}

// =============================================================================

// acceptConnections handles connections one after the other until the
// listener is closed.
func (s *Server) acceptConnections(l net.Listener) {
	s.evHandler("p2p: acceptConnections: G started")
	defer s.evHandler("p2p: acceptConnections: G completed")

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.shut:
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.evHandler("p2p: acceptConnections: ERROR: %s", err)
			continue
		}

		s.handleConnection(conn)
	}
}

// handleConnection reads one envelope, dispatches it and writes the response.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	s.evHandler("p2p: handleConnection: started: remote[%s]", remote)
	defer s.evHandler("p2p: handleConnection: completed: remote[%s]", remote)

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		s.evHandler("p2p: handleConnection: ERROR: %s", err)
		return
	}

	var resp wire.Envelope

	req, err := wire.ReadMessage(conn)
	switch {
	case err == nil:
		resp = s.dispatch(req)

	case errors.Is(err, wire.ErrMalformedMessage):
		s.evHandler("p2p: handleConnection: REJECTED: %s", err)
		resp = wire.NewError(err)

	default:
		s.evHandler("p2p: handleConnection: read: ERROR: %s", err)
		return
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		s.evHandler("p2p: handleConnection: ERROR: %s", err)
		return
	}

	err = wire.WriteMessage(conn, resp)
	if errors.Is(err, wire.ErrMessageTooLarge) {

		// Nothing was written yet so the requester can still be told why.
		s.evHandler("p2p: handleConnection: write: REJECTED: %s", err)
		err = wire.WriteMessage(conn, wire.NewError(err))
	}

	if err != nil {
		s.evHandler("p2p: handleConnection: write: ERROR: %s", err)
	}
}

// dispatch hands the request to the state based on its kind and constructs
// the response.
func (s *Server) dispatch(req wire.Envelope) wire.Envelope {
	s.evHandler("p2p: dispatch: kind[%s]", req.Kind)

	if !s.state.IsReady() {
		return wire.NewError(wire.ErrNotReady)
	}

	switch req.Kind {
	case wire.KindTransaction:
		var tx database.Tx
		if err := req.Decode(&tx); err != nil {
			return wire.NewError(err)
		}

		if err := s.state.SubmitTransaction(tx); err != nil {
			return wire.NewError(err)
		}

		return wire.NewAck("queued")

	case wire.KindBlock:
		var block database.Block
		if err := req.Decode(&block); err != nil {
			return wire.NewError(err)
		}

		if err := s.state.ProcessProposedBlock(block); err != nil {
			s.evHandler("p2p: dispatch: block[%s]: REJECTED: %s", block.Hash, err)
			return wire.NewError(err)
		}

		return wire.NewAck("accepted")

	case wire.KindBootstrapRequest:
		var br wire.BootstrapRequest
		if len(req.Payload) > 0 {
			if err := req.Decode(&br); err != nil {
				return wire.NewError(err)
			}
		}

		if br.From < 0 {
			return wire.NewError(fmt.Errorf("%w: negative from %d", wire.ErrMalformedMessage, br.From))
		}

		resp, n, err := wire.NewLedgerPage(s.state.LedgerFrom(br.From), s.maxPageSize)
		if err != nil {
			return wire.NewError(err)
		}

		s.evHandler("p2p: dispatch: ledger page: from[%d]: blocks[%d]", br.From, n)

		return resp

	default:
		return wire.NewError(fmt.Errorf("%w: unknown kind %q", wire.ErrMalformedMessage, req.Kind))
	}
}
