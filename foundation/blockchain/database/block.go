package database

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// GenesisPrevHash is the previous block hash carried by the first block in
// every chain.
const GenesisPrevHash = ""

// =============================================================================

// Block represents a group of transactions batched together. A block is a
// draft until proof of work assigns the nonce and hash.
type Block struct {
	PrevHash  string `json:"prev_hash"`    // Bitcoin: Hash of the previous block in the chain.
	Trans     []Tx   `json:"transactions"` // Transactions in the order they are hashed.
	TimeStamp uint64 `json:"timestamp"`    // Bitcoin: Time the block was constructed.
	Nonce     uint64 `json:"nonce"`        // Bitcoin: Value identified to solve the hash solution.
	Hash      string `json:"hash"`         // Hash of the block content with the nonce.
}

// NewBlock constructs a draft block linked to the specified previous hash.
func NewBlock(prevHash string, trans []Tx) Block {
	return NewBlockAt(prevHash, trans, uint64(time.Now().UTC().Unix()))
}

// NewBlockAt constructs a draft block with a fixed timestamp.
func NewBlockAt(prevHash string, trans []Tx, timeStamp uint64) Block {
	cpy := make([]Tx, len(trans))
	for i, tx := range trans {
		cpy[i] = tx.clone()
	}

	return Block{
		PrevHash:  prevHash,
		Trans:     cpy,
		TimeStamp: timeStamp,
	}
}

// IsMined reports whether proof of work has been performed on the block.
func (b Block) IsMined() bool {
	return b.Hash != ""
}

// ContentHash returns the hash of the block content for the specified nonce.
//
// The hashed bytes are: the previous hash, a newline, the canonical bytes of
// every transaction joined by commas inside square brackets, a newline, the
// decimal timestamp, a newline and the decimal nonce. The digest is sha256,
// hex encoded in lowercase.
func (b Block) ContentHash(nonce uint64) string {
	return hashContent(contentPrefix(b.PrevHash, b.Trans, b.TimeStamp), nonce)
}

// clone returns a copy of the block that shares no memory with the original.
func (b Block) clone() Block {
	cpy := b
	cpy.Trans = make([]Tx, len(b.Trans))
	for i, tx := range b.Trans {
		cpy.Trans[i] = tx.clone()
	}

	return cpy
}

// =============================================================================

// contentPrefix encodes everything in the block content except the nonce so
// the mining loop only has to append the nonce on each attempt.
func contentPrefix(prevHash string, trans []Tx, timeStamp uint64) []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, prevHash...)
	buf = append(buf, '\n', '[')
	for i, tx := range trans {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, tx.CanonicalBytes()...)
	}
	buf = append(buf, ']', '\n')
	buf = strconv.AppendUint(buf, timeStamp, 10)
	buf = append(buf, '\n')

	return buf
}

// hashContent completes the content encoding with the nonce and hashes it.
func hashContent(prefix []byte, nonce uint64) string {
	data := strconv.AppendUint(prefix[:len(prefix):len(prefix)], nonce, 10)

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
