package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Pick the best transactions from the mempool.
	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block := database.NewBlock(s.db.LatestBlock().Hash, trans)
	if err := s.pow.Mine(ctx, &block, s.wallet, s.evHandler); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update database")

	// A peer block may have extended the chain while we were mining, the
	// linkage check in the database rejects this block when that happens.
	if err := s.updateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevHash, block.Hash, len(block.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	if !s.IsReady() {
		return fmt.Errorf("%w: status %s", wire.ErrNotReady, s.Status())
	}

	s.evHandler("state: ProcessProposedBlock: validate block")

	if err := s.pow.Validate(block); err != nil {
		return err
	}

	if err := s.validateBlockTrans(block); err != nil {
		return err
	}

	// Validate the linkage and then update the blockchain database.
	if err := s.updateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The block it is working on no longer extends the chain.
	s.evHandler("state: ProcessProposedBlock: signal runMiningOperation to terminate")
	s.signalCancelMining()

	// Transactions not included in this block still need to be mined.
	if s.mempool.Count() > 0 {
		s.signalStartMining()
	}

	return nil
}

// =============================================================================

// updateDatabase appends the block to the chain and removes its transactions
// from the mempool.
func (s *State) updateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateDatabase: write to database")

	if err := s.db.Append(block); err != nil {
		return err
	}

	s.evHandler("state: updateDatabase: remove from mempool")

	for _, tx := range block.Trans {
		if tx.IsCoinbase() {
			continue
		}

		s.evHandler("state: updateDatabase: tx[%s] remove", tx)
		s.mempool.Delete(tx)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// validateBlockTrans checks every transaction in the block is signed by the
// owner of the paying account and the block pays exactly one mining reward
// as its last transaction.
func (s *State) validateBlockTrans(block database.Block) error {
	if len(block.Trans) == 0 {
		return fmt.Errorf("%w: block has no coinbase transaction", database.ErrInvalidConstruction)
	}

	last := len(block.Trans) - 1
	for i, tx := range block.Trans {
		if tx.IsCoinbase() != (i == last) {
			return fmt.Errorf("%w: tx %d: coinbase must be the last transaction", database.ErrInvalidConstruction, i)
		}

		if err := tx.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	if reward := block.Trans[last].Amount; reward != s.pow.Reward {
		return fmt.Errorf("%w: mining reward is %v, exp %v", database.ErrInvalidConstruction, reward, s.pow.Reward)
	}

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockTransJSON, err := json.Marshal(block.Trans)
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"prev_hash":%q,"timestamp":%d,"nonce":%d,"trans":%s}`, block.Hash, block.PrevHash, block.TimeStamp, block.Nonce, string(blockTransJSON))
}
