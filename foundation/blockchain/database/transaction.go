package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ardanlabs/peerledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Tx is the transactional information between two parties. A Tx with an
// empty sender is a coinbase transaction paying a mining reward.
type Tx struct {
	Sender    AccountID     `json:"sender"`        // Bitcoin: Empty for the coinbase transaction.
	Recipient AccountID     `json:"recipient"`     // Account receiving the benefit of the transaction.
	Amount    float64       `json:"amount"`        // Monetary value received from this transaction.
	Signature hexutil.Bytes `json:"signature"`     // Ethereum: [R|S|V] signature over the canonical bytes.
	PublicKey hexutil.Bytes `json:"signer_pubkey"` // Uncompressed public key of the signer.
}

// NewTx constructs a new unsigned transaction.
func NewTx(sender AccountID, recipient AccountID, amount float64) (Tx, error) {
	if sender != "" && !sender.IsAccountID() {
		return Tx{}, fmt.Errorf("%w: sender account is not properly formatted", ErrInvalidConstruction)
	}

	if !recipient.IsAccountID() {
		return Tx{}, fmt.Errorf("%w: recipient account is not properly formatted", ErrInvalidConstruction)
	}

	if !validAmount(amount) {
		return Tx{}, ErrNegativeAmount
	}

	tx := Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	return tx, nil
}

// AttachSignature moves the transaction from unsigned to signed. A signed
// transaction is immutable, so a second call fails.
func (tx *Tx) AttachSignature(sig []byte, publicKey []byte) error {
	if tx.IsSigned() {
		return ErrAlreadySigned
	}

	if len(sig) == 0 || len(publicKey) == 0 {
		return fmt.Errorf("%w: signature and public key are required", ErrInvalidConstruction)
	}

	tx.Signature = append(hexutil.Bytes(nil), sig...)
	tx.PublicKey = append(hexutil.Bytes(nil), publicKey...)

	return nil
}

// IsSigned reports whether a signature has been attached.
func (tx Tx) IsSigned() bool {
	return len(tx.Signature) > 0 || len(tx.PublicKey) > 0
}

// IsCoinbase reports whether this is a mining reward transaction.
func (tx Tx) IsCoinbase() bool {
	return tx.Sender == ""
}

// CanonicalBytes returns the encoding of the transaction that is signed and
// hashed into blocks. The encoding is a JSON object holding exactly the keys
// sender, recipient and amount in that order. The amount is written in the
// shortest decimal form that round trips, without an exponent.
func (tx Tx) CanonicalBytes() []byte {
	sender, _ := json.Marshal(string(tx.Sender))
	recipient, _ := json.Marshal(string(tx.Recipient))

	var b bytes.Buffer
	b.WriteString(`{"sender":`)
	b.Write(sender)
	b.WriteString(`,"recipient":`)
	b.Write(recipient)
	b.WriteString(`,"amount":`)
	b.WriteString(strconv.FormatFloat(tx.Amount, 'f', -1, 64))
	b.WriteByte('}')

	return b.Bytes()
}

// Validate verifies the transaction is well formed and carries a signature
// over its canonical bytes made by the key that owns the paying account. For
// a coinbase transaction the paying account is the recipient.
func (tx Tx) Validate() error {
	if !validAmount(tx.Amount) {
		return ErrNegativeAmount
	}

	if !tx.Recipient.IsAccountID() {
		return fmt.Errorf("%w: recipient account is not properly formatted", ErrInvalidConstruction)
	}

	if !tx.IsSigned() {
		return fmt.Errorf("%w: transaction is not signed", ErrInvalidSignature)
	}

	owner := tx.Sender
	if tx.IsCoinbase() {
		owner = tx.Recipient
	}

	if PublicKeyToAccountID(tx.PublicKey) != owner {
		return fmt.Errorf("%w: signer key does not belong to account %s", ErrInvalidSignature, owner)
	}

	if !signature.Verify(tx.PublicKey, tx.CanonicalBytes(), tx.Signature) {
		return fmt.Errorf("%w: signature does not match transaction", ErrInvalidSignature)
	}

	return nil
}

// ID returns a short identity for the transaction used by the mempool and
// logging. Two transactions with the same signature are the same.
func (tx Tx) ID() string {
	if !tx.IsSigned() {
		return signature.Hash(tx.CanonicalBytes())
	}

	return signature.Hash(tx.Signature)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	if tx.IsCoinbase() {
		return fmt.Sprintf("coinbase:%s:%s", tx.Recipient, strconv.FormatFloat(tx.Amount, 'f', -1, 64))
	}

	return fmt.Sprintf("%s:%s:%s", tx.Sender, tx.Recipient, strconv.FormatFloat(tx.Amount, 'f', -1, 64))
}

// clone returns a copy that shares no memory with the original.
func (tx Tx) clone() Tx {
	cpy := tx
	if tx.Signature != nil {
		cpy.Signature = append(hexutil.Bytes(nil), tx.Signature...)
	}
	if tx.PublicKey != nil {
		cpy.PublicKey = append(hexutil.Bytes(nil), tx.PublicKey...)
	}

	return cpy
}

// =============================================================================

// validAmount checks the amount is a finite, non-negative number.
func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}
