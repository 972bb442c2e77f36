package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
)

// BootstrapRequest is the payload of a bootstrap request. From is the
// number of blocks the requester already holds. An empty payload asks for
// the ledger from the genesis block.
type BootstrapRequest struct {
	From int `json:"from"`
}

// NewLedgerPage constructs a ledger envelope holding as many of the blocks,
// in order, as fit in maxSize bytes of payload. It returns the number of
// blocks included. No blocks produce an empty page, which tells the
// requester it holds the full ledger.
func NewLedgerPage(blocks []database.Block, maxSize int) (Envelope, int, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	var n int
	for _, block := range blocks {
		data, err := json.Marshal(block)
		if err != nil {
			return Envelope{}, 0, fmt.Errorf("marshal block: %w", err)
		}

		sep := 0
		if n > 0 {
			sep = 1
		}

		// Room is needed for the separator and the closing bracket.
		if buf.Len()+sep+len(data)+1 > maxSize {
			break
		}

		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(data)
		n++
	}

	if n == 0 && len(blocks) > 0 {
		return Envelope{}, 0, fmt.Errorf("%w: block %s doesn't fit in %d bytes", ErrMessageTooLarge, blocks[0].Hash, maxSize)
	}

	buf.WriteByte(']')

	return Envelope{Kind: KindLedger, Payload: buf.Bytes()}, n, nil
}
