package state

import (
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

// SubmitTransaction accepts a signed transaction from a wallet or a peer for
// inclusion in the next block. The transaction is rejected before anything is
// mined if its signature doesn't verify.
func (s *State) SubmitTransaction(tx database.Tx) error {
	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitTransaction: completed")

	if !s.IsReady() {
		return fmt.Errorf("%w: status %s", wire.ErrNotReady, s.Status())
	}

	if err := s.validateTransaction(tx); err != nil {
		s.evHandler("state: SubmitTransaction: REJECTED: %s", err)
		return err
	}

	n := s.mempool.Upsert(tx)
	s.evHandler("state: SubmitTransaction: mempool: txs[%d]", n)

	s.signalStartMining()

	return nil
}

// =============================================================================

// validateTransaction takes the signed transaction and validates it has
// a proper signature and other aspects of the data.
func (s *State) validateTransaction(tx database.Tx) error {
	if tx.IsCoinbase() {
		return fmt.Errorf("%w: coinbase transactions are created by miners", database.ErrInvalidConstruction)
	}

	if !tx.Sender.IsAccountID() {
		return fmt.Errorf("%w: sender account is not properly formatted", database.ErrInvalidConstruction)
	}

	if err := tx.Validate(); err != nil {
		return err
	}

	return nil
}
