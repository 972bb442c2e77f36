// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/peerledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/peerledger/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer synchronization.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// Status represents where the node is in its lifecycle.
type Status int32

// Set of states a node moves through.
const (
	StatusBootstrapping Status = iota
	StatusReady
)

// String implements the fmt.Stringer interface.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	default:
		return "bootstrapping"
	}
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Wallet         *wallet.Wallet
	Self           peer.Peer
	Genesis        genesis.Genesis
	Storage        database.Serializer
	SelectStrategy string
	KnownPeers     *peer.PeerSet
	Timeouts       wire.Timeouts
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	status    atomic.Int32
	wallet    *wallet.Wallet
	self      peer.Peer
	evHandler EventHandler
	timeouts  wire.Timeouts

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	pow        database.POW
	mempool    *mempool.Mempool
	db         *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.Wallet == nil {
		return nil, errors.New("a wallet is required to run a node")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Access the storage for the blockchain and load any blocks
	// persisted by a previous run.
	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyFIFO
	}

	// Construct a mempool with the specified select strategy.
	mempool, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		wallet:    cfg.Wallet,
		self:      cfg.Self,
		evHandler: ev,
		timeouts:  cfg.Timeouts,

		knownPeers: knownPeers,
		genesis:    cfg.Genesis,
		pow: database.POW{
			Difficulty: uint(cfg.Genesis.Difficulty),
			Reward:     cfg.Genesis.MiningReward,
		},
		mempool: mempool,
		db:      db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database is properly closed.
	return s.db.Close()
}

// Status returns where the node is in its lifecycle.
func (s *State) Status() Status {
	return Status(s.status.Load())
}

// IsReady reports whether the node finished bootstrapping.
func (s *State) IsReady() bool {
	return s.Status() == StatusReady
}

// =============================================================================

// signalStartMining asks the worker to mine the mempool if one is running.
func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

// signalCancelMining asks the worker to abandon an in-flight search.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}
