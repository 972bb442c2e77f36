package public

import (
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type status struct {
	Status      string `json:"status"`
	Self        string `json:"self"`
	Account     string `json:"account"`
	LatestBlock string `json:"latest_block"`
	Blocks      int    `json:"blocks"`
	Uncommitted int    `json:"uncommitted"`
	Peers       int    `json:"peers"`
}

type balance struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance float64            `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type tx struct {
	Sender        database.AccountID `json:"sender"`
	SenderName    string             `json:"sender_name"`
	Recipient     database.AccountID `json:"recipient"`
	RecipientName string             `json:"recipient_name"`
	Amount        float64            `json:"amount"`
	Sig           string             `json:"sig"`
}

type block struct {
	Number       int    `json:"number"`
	PrevHash     string `json:"prev_hash"`
	Hash         string `json:"hash"`
	TimeStamp    uint64 `json:"timestamp"`
	Nonce        uint64 `json:"nonce"`
	Transactions []tx   `json:"txs"`
}

type peerInfo struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// signedTx is the document a wallet posts to submit a transaction.
type signedTx struct {
	Sender    database.AccountID `json:"sender" validate:"required,account"`
	Recipient database.AccountID `json:"recipient" validate:"required,account"`
	Amount    float64            `json:"amount" validate:"gte=0"`
	Signature hexutil.Bytes      `json:"signature" validate:"required,len=65"`
	PublicKey hexutil.Bytes      `json:"signer_pubkey" validate:"required,len=65"`
}

// toTx converts the document into a signed ledger transaction.
func (st signedTx) toTx() (database.Tx, error) {
	t, err := database.NewTx(st.Sender, st.Recipient, st.Amount)
	if err != nil {
		return database.Tx{}, err
	}

	if err := t.AttachSignature(st.Signature, st.PublicKey); err != nil {
		return database.Tx{}, fmt.Errorf("attaching signature: %w", err)
	}

	return t, nil
}
