// Package database handles all the lower level support for maintaining the
// blockchain: transactions, blocks, proof of work and the ordered ledger of
// mined blocks with optional persistence.
package database

import (
	"fmt"
	"sync"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(num uint64, block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages the ordered set of mined blocks held by a node.
type Database struct {
	mu         sync.RWMutex
	blocks     []Block
	serializer Serializer
}

// New constructs a new database and reads any blocks already persisted by
// the serializer. Only the chain linkage is checked here, callers decide if
// the loaded chain must also pass proof of work validation.
func New(serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		serializer: serializer,
	}

	if serializer == nil {
		return &db, nil
	}

	iter := serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := db.linksToLatest(block); err != nil {
			return nil, fmt.Errorf("block %d: %w", len(db.blocks)+1, err)
		}

		ev("database: New: loaded: blk[%d]: hash[%s]", len(db.blocks)+1, block.Hash)
		db.blocks = append(db.blocks, block)
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	if db.serializer == nil {
		return nil
	}

	return db.serializer.Close()
}

// Append adds a mined block to the end of the chain. The block must link to
// the current latest block. Proof of work is the caller's responsibility.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if !block.IsMined() {
		return fmt.Errorf("%w: block has not been mined", ErrInvalidConstruction)
	}

	if err := db.linksToLatest(block); err != nil {
		return err
	}

	block = block.clone()

	if db.serializer != nil {
		if err := db.serializer.Write(uint64(len(db.blocks)+1), block); err != nil {
			return err
		}
	}

	db.blocks = append(db.blocks, block)

	return nil
}

// Replace swaps the entire chain for the specified blocks. This is used to
// adopt a snapshot received from a peer after it has been validated.
func (db *Database) Replace(blocks []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := checkLinkage(blocks); err != nil {
		return err
	}

	cpy := make([]Block, len(blocks))
	for i, block := range blocks {
		cpy[i] = block.clone()
	}

	if db.serializer != nil {
		if err := db.persist(cpy); err != nil {

			// Put the chain still held in memory back on storage so a restart
			// doesn't load a partial ledger.
			if rerr := db.persist(db.blocks); rerr != nil {
				return fmt.Errorf("replace: %w: restore: %w", err, rerr)
			}
			return fmt.Errorf("replace: %w", err)
		}
	}

	db.blocks = cpy

	return nil
}

// persist clears the storage and writes the specified chain.
func (db *Database) persist(blocks []Block) error {
	if err := db.serializer.Reset(); err != nil {
		return err
	}

	for i, block := range blocks {
		if err := db.serializer.Write(uint64(i+1), block); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of blocks in the chain.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.blocks)
}

// LatestBlock returns the latest block. The zero block is returned when the
// chain is empty.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.blocks) == 0 {
		return Block{}
	}

	return db.blocks[len(db.blocks)-1].clone()
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	for i, block := range db.blocks {
		blocks[i] = block.clone()
	}

	return blocks
}

// BlocksFrom returns a copy of the chain starting after the specified number
// of blocks.
func (db *Database) BlocksFrom(from int) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if from < 0 || from >= len(db.blocks) {
		return nil
	}

	blocks := make([]Block, len(db.blocks)-from)
	for i, block := range db.blocks[from:] {
		blocks[i] = block.clone()
	}

	return blocks
}

// ValidateChain checks the linkage and proof of work of every block held
// by the database.
func (db *Database) ValidateChain(pow POW) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return ValidateChain(db.blocks, pow)
}

// BalanceOf walks the chain and computes the balance for the account.
func (db *Database) BalanceOf(accountID AccountID) float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if accountID == "" {
		return 0
	}

	var balance float64
	for _, block := range db.blocks {
		for _, tx := range block.Trans {
			if tx.Recipient == accountID {
				balance += tx.Amount
			}
			if !tx.IsCoinbase() && tx.Sender == accountID {
				balance -= tx.Amount
			}
		}
	}

	return balance
}

// Balances walks the chain and computes the balance of every account that
// has transacted on the chain.
func (db *Database) Balances() map[AccountID]float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	balances := make(map[AccountID]float64)
	for _, block := range db.blocks {
		for _, tx := range block.Trans {
			balances[tx.Recipient] += tx.Amount
			if !tx.IsCoinbase() {
				balances[tx.Sender] -= tx.Amount
			}
		}
	}

	return balances
}

// =============================================================================

// ValidateChain checks the specified blocks form a chain starting at the
// genesis marker and that every block passes proof of work validation.
func ValidateChain(blocks []Block, pow POW) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrChainLinkage)
	}

	if err := checkLinkage(blocks); err != nil {
		return err
	}

	for i, block := range blocks {
		if err := pow.Validate(block); err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
	}

	return nil
}

// linksToLatest validates the block links to the latest block in the database.
func (db *Database) linksToLatest(block Block) error {
	exp := GenesisPrevHash
	if len(db.blocks) > 0 {
		exp = db.blocks[len(db.blocks)-1].Hash
	}

	if block.PrevHash != exp {
		return fmt.Errorf("%w: previous hash doesn't match latest block, got %q, exp %q", ErrChainLinkage, block.PrevHash, exp)
	}

	return nil
}

// checkLinkage validates every block links to the block before it.
func checkLinkage(blocks []Block) error {
	exp := GenesisPrevHash
	for i, block := range blocks {
		if block.PrevHash != exp {
			return fmt.Errorf("%w: block %d previous hash doesn't match, got %q, exp %q", ErrChainLinkage, i+1, block.PrevHash, exp)
		}

		if !block.IsMined() {
			return fmt.Errorf("%w: block %d has not been mined", ErrChainLinkage, i+1)
		}
		exp = block.Hash
	}

	return nil
}
