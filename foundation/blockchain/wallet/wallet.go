// Package wallet provides the cryptographic identity of a participant. A
// wallet owns a secp256k1 key pair, derives the public address from the
// public key and signs messages and transactions.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet represents an identity on the blockchain. The private key is never
// exposed, only the public key and address are shared with peers.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	publicKey  []byte
	address    database.AccountID
}

// Generate constructs a wallet with a fresh key pair.
func Generate() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return FromPrivateKey(privateKey)
}

// FromPrivateKey constructs a wallet for an existing private key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) (*Wallet, error) {
	if privateKey == nil {
		return nil, errors.New("private key is missing")
	}

	publicKey := signature.PublicKeyBytes(&privateKey.PublicKey)

	w := Wallet{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    database.PublicKeyToAccountID(publicKey),
	}

	return &w, nil
}

// Load reads the hex encoded private key stored in the specified file.
func Load(path string) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", path, err)
	}

	return FromPrivateKey(privateKey)
}

// Save writes the private key hex encoded to the specified file.
func (w *Wallet) Save(path string) error {
	if err := crypto.SaveECDSA(path, w.privateKey); err != nil {
		return fmt.Errorf("saving key %q: %w", path, err)
	}

	return nil
}

// Address returns the public address of the wallet.
func (w *Wallet) Address() database.AccountID {
	return w.address
}

// PublicKey returns the uncompressed encoding of the public key.
func (w *Wallet) PublicKey() []byte {
	return append([]byte(nil), w.publicKey...)
}

// Sign produces a signature over the sha256 digest of the message.
func (w *Wallet) Sign(message []byte) ([]byte, error) {
	return signature.Sign(message, w.privateKey)
}

// SignTx signs the canonical bytes of the transaction and attaches the
// signature with this wallet's public key.
func (w *Wallet) SignTx(tx *database.Tx) error {
	sig, err := w.Sign(tx.CanonicalBytes())
	if err != nil {
		return err
	}

	return tx.AttachSignature(sig, w.publicKey)
}

// String implements the fmt.Stringer interface so the private key never
// ends up in logs.
func (w *Wallet) String() string {
	return string(w.address)
}
