package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// BroadcastResult reports how the delivery of a block to the known peers
// went. A failure talking to one peer doesn't stop delivery to the rest.
type BroadcastResult struct {
	Sent   int
	Failed int
	Errors []error
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers, one after the other.
func (s *State) NetSendBlockToPeers(ctx context.Context, block database.Block) BroadcastResult {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%s]", block.Hash)

	var result BroadcastResult
	defer func() {
		s.evHandler("state: NetSendBlockToPeers: completed: sent[%d]: failed[%d]", result.Sent, result.Failed)
	}()

	req, err := wire.NewEnvelope(wire.KindBlock, block)
	if err != nil {
		result.Errors = append(result.Errors, err)
		result.Failed = len(s.KnownPeers())
		return result
	}

	for _, pr := range s.KnownPeers() {
		if err := wire.Call(ctx, pr.Addr(), s.timeouts, req, wire.KindAck, nil); err != nil {
			s.evHandler("state: NetSendBlockToPeers: peer[%s]: WARNING: %s", pr, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", pr, err))
			continue
		}

		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr)
		result.Sent++
	}

	return result
}

// NetRequestBootstrap asks the peer for a snapshot of its ledger. The ledger
// arrives in pages, each request asking for the blocks after the ones already
// received until the peer answers with an empty page.
func (s *State) NetRequestBootstrap(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestBootstrap: started: %s", pr)
	defer s.evHandler("state: NetRequestBootstrap: completed: %s", pr)

	var blocks []database.Block
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := wire.NewEnvelope(wire.KindBootstrapRequest, wire.BootstrapRequest{From: len(blocks)})
		if err != nil {
			return nil, err
		}

		var page []database.Block
		if err := wire.Call(ctx, pr.Addr(), s.timeouts, req, wire.KindLedger, &page); err != nil {
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		s.evHandler("state: NetRequestBootstrap: peer[%s]: page: from[%d]: blocks[%d]", pr, len(blocks), len(page))
		blocks = append(blocks, page...)
	}

	s.evHandler("state: NetRequestBootstrap: peer[%s]: blocks[%d]", pr, len(blocks))

	return blocks, nil
}

// NetSyncFromPeer asks the peer for its ledger and appends the blocks this
// node is missing. The local chain must be a prefix of the peer's chain, a
// peer that disagrees about an existing block is rejected. It returns the
// number of blocks added.
func (s *State) NetSyncFromPeer(ctx context.Context, pr peer.Peer) (int, error) {
	s.evHandler("state: NetSyncFromPeer: started: %s", pr)
	defer s.evHandler("state: NetSyncFromPeer: completed: %s", pr)

	blocks, err := s.NetRequestBootstrap(ctx, pr)
	if err != nil {
		return 0, err
	}

	local := s.db.Blocks()
	if len(blocks) <= len(local) {
		return 0, nil
	}

	for i := range local {
		if blocks[i].Hash != local[i].Hash {
			return 0, fmt.Errorf("%w: peer ledger diverges at block %d", database.ErrChainLinkage, i+1)
		}
	}

	if err := s.validateLedger(blocks); err != nil {
		return 0, err
	}

	var added int
	for _, block := range blocks[len(local):] {
		if err := s.updateDatabase(block); err != nil {
			return added, err
		}
		added++
	}

	s.evHandler("state: NetSyncFromPeer: peer[%s]: added[%d]", pr, added)

	if added > 0 {
		s.signalCancelMining()
		if s.mempool.Count() > 0 {
			s.signalStartMining()
		}
	}

	return added, nil
}
