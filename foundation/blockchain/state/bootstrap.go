package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
)

// ErrBootstrap is returned when the node can't construct a valid ledger and
// is not allowed to become ready.
var ErrBootstrap = errors.New("bootstrap failed")

// Bootstrap brings the node from bootstrapping to ready. A node restarting
// with a persisted ledger validates it and catches up with its first peer.
// Otherwise the ledger is requested from the first known peer, or when no
// peer is known this node mines the genesis block. Finally the node registers
// itself with the known peers.
func (s *State) Bootstrap(ctx context.Context) error {
	s.evHandler("state: Bootstrap: started: self[%s]", s.self)
	defer s.evHandler("state: Bootstrap: completed: status[%s]", s.Status())

	s.status.Store(int32(StatusBootstrapping))

	first, hasPeer := s.knownPeers.First(s.self.Addr())

	switch {
	case s.db.Len() > 0:
		s.evHandler("state: Bootstrap: validate persisted ledger: blocks[%d]", s.db.Len())

		if err := s.validateLedger(s.db.Blocks()); err != nil {
			return fmt.Errorf("%w: persisted ledger: %w", ErrBootstrap, err)
		}

		if hasPeer {
			if _, err := s.NetSyncFromPeer(ctx, first); err != nil {
				s.evHandler("state: Bootstrap: sync: peer[%s]: WARNING: %s", first, err)
			}
		}

	case hasPeer:
		s.evHandler("state: Bootstrap: request ledger: peer[%s]", first)

		blocks, err := s.NetRequestBootstrap(ctx, first)
		if err != nil {
			return fmt.Errorf("%w: peer %s: %w", ErrBootstrap, first, err)
		}

		if err := s.validateLedger(blocks); err != nil {
			return fmt.Errorf("%w: peer %s: %w", ErrBootstrap, first, err)
		}

		if err := s.db.Replace(blocks); err != nil {
			return fmt.Errorf("%w: adopting ledger: %w", ErrBootstrap, err)
		}

		s.evHandler("state: Bootstrap: adopted ledger: blocks[%d]: latest[%s]", len(blocks), s.db.LatestBlock().Hash)

	default:
		s.evHandler("state: Bootstrap: first node: mine genesis")

		genesis := database.NewBlock(database.GenesisPrevHash, nil)
		if err := s.pow.Mine(ctx, &genesis, s.wallet, s.evHandler); err != nil {
			return fmt.Errorf("%w: mining genesis: %w", ErrBootstrap, err)
		}

		if err := s.db.Append(genesis); err != nil {
			return fmt.Errorf("%w: adopting genesis: %w", ErrBootstrap, err)
		}

		s.blockEvent(genesis)
	}

	if s.knownPeers.Add(s.self) {
		s.evHandler("state: Bootstrap: registered self[%s]", s.self)
	}

	s.status.Store(int32(StatusReady))

	return nil
}

// =============================================================================

// validateLedger checks the linkage and proof of work of the chain and the
// transactions held by every block.
func (s *State) validateLedger(blocks []database.Block) error {
	if err := database.ValidateChain(blocks, s.pow); err != nil {
		return err
	}

	for i, block := range blocks {
		if err := s.validateBlockTrans(block); err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
	}

	return nil
}
