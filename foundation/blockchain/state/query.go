package state

import (
	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
)

// Self returns the registry entry for this node.
func (s *State) Self() peer.Peer {
	return s.self
}

// Address returns the account of the wallet running this node.
func (s *State) Address() database.AccountID {
	return s.wallet.Address()
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns a copy the current latest block.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Snapshot returns a copy of the full ledger.
func (s *State) Snapshot() []database.Block {
	return s.db.Blocks()
}

// LedgerFrom returns a copy of the ledger starting after the specified
// number of blocks.
func (s *State) LedgerFrom(from int) []database.Block {
	return s.db.BlocksFrom(from)
}

// Len returns the number of blocks on the ledger.
func (s *State) Len() int {
	return s.db.Len()
}

// BalanceOf returns the balance of the account computed from the ledger.
func (s *State) BalanceOf(accountID database.AccountID) float64 {
	return s.db.BalanceOf(accountID)
}

// Balances returns the balance of every account on the ledger.
func (s *State) Balances() map[database.AccountID]float64 {
	return s.db.Balances()
}

// Mempool returns a copy of the transactions waiting to be mined.
func (s *State) Mempool() []database.Tx {
	return s.mempool.PickBest(-1)
}

// MempoolLength returns the current length of the mempool.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}

// KnownPeers retrieves a copy of the known peer list, excluding this node.
func (s *State) KnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.self.Addr())
}

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	return s.knownPeers.Add(peer)
}
