package database

import (
	"context"
	"fmt"
)

// Miner represents the identity that performs proof of work and receives the
// mining reward.
type Miner interface {
	Address() AccountID
	PublicKey() []byte
	Sign(message []byte) ([]byte, error)
}

// POW represents the proof of work rules every node must agree on.
type POW struct {
	Difficulty uint    // Number of leading 0's needed in the hex hash.
	Reward     float64 // Amount paid to the miner through the coinbase transaction.
}

// Mine appends the coinbase transaction for the miner to the block and finds
// the smallest nonce that solves the POW puzzle. The block is only changed
// when a solution is found. The search is cancelled through the context.
func (p POW) Mine(ctx context.Context, block *Block, miner Miner, evHandler func(v string, args ...any)) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	if block.IsMined() {
		return ErrAlreadyMined
	}

	ev("database: POW: MINING: started: prevBlk[%s]: numTrans[%d]", block.PrevHash, len(block.Trans))
	defer ev("database: POW: MINING: completed")

	// Construct and sign the transaction that pays the miner.
	coinbase, err := NewTx("", miner.Address(), p.Reward)
	if err != nil {
		return fmt.Errorf("coinbase: %w", err)
	}

	sig, err := miner.Sign(coinbase.CanonicalBytes())
	if err != nil {
		return fmt.Errorf("coinbase: %w", err)
	}

	if err := coinbase.AttachSignature(sig, miner.PublicKey()); err != nil {
		return fmt.Errorf("coinbase: %w", err)
	}

	// Work on a copy of the transactions so a cancelled search leaves no trace.
	trans := make([]Tx, 0, len(block.Trans)+1)
	for _, tx := range block.Trans {
		trans = append(trans, tx.clone())
	}
	trans = append(trans, coinbase)

	prefix := contentPrefix(block.PrevHash, trans, block.TimeStamp)

	// Loop until a solution is found or the search is cancelled.
	for nonce := uint64(0); ; nonce++ {
		if nonce%1024 == 0 {
			if ctx.Err() != nil {
				ev("database: POW: MINING: CANCELLED: attempts[%d]", nonce)
				return ctx.Err()
			}
		}

		if nonce > 0 && nonce%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", nonce)
		}

		// Hash the block and check if we have solved the puzzle.
		hash := hashContent(prefix, nonce)
		if !isHashSolved(p.Difficulty, hash) {
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", block.PrevHash, hash, nonce+1)

		block.Trans = trans
		block.Nonce = nonce
		block.Hash = hash

		return nil
	}
}

// Validate recomputes the hash of the block from its content and nonce and
// checks it matches the stored hash and solves the POW puzzle.
func (p POW) Validate(block Block) error {
	if !block.IsMined() {
		return fmt.Errorf("%w: block has not been mined", ErrInvalidProofOfWork)
	}

	hash := block.ContentHash(block.Nonce)
	if hash != block.Hash {
		return fmt.Errorf("%w: hash mismatch, got %s, exp %s", ErrInvalidProofOfWork, block.Hash, hash)
	}

	if !isHashSolved(p.Difficulty, hash) {
		return fmt.Errorf("%w: %s does not solve difficulty %d", ErrInvalidProofOfWork, hash, p.Difficulty)
	}

	return nil
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != 64 || difficulty > 64 {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
