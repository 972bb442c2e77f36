package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
)

// Blocks writes every block of the ledger with its transactions.
func Blocks(w io.Writer, db *database.Database) error {
	for i, block := range db.Blocks() {
		fmt.Fprintf(w, "Block %d: %s\n", i+1, block.Hash)
		fmt.Fprintf(w, "  Prev: %s  Nonce: %d  TimeStamp: %d\n", block.PrevHash, block.Nonce, block.TimeStamp)
		for _, tx := range block.Trans {
			fmt.Fprintf(w, "  %s\n", tx)
		}
	}

	return nil
}

// Verify validates the linkage and proof of work of the ledger using the
// difficulty of the genesis.
func Verify(w io.Writer, db *database.Database, gen genesis.Genesis) error {
	pow := database.POW{
		Difficulty: uint(gen.Difficulty),
		Reward:     gen.MiningReward,
	}

	if err := db.ValidateChain(pow); err != nil {
		return err
	}

	fmt.Fprintf(w, "Ledger of %d blocks is valid\n", db.Len())
	return nil
}
