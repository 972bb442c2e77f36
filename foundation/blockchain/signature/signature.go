// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Length of a signature produced by Sign in the [R|S|V] format.
const Length = crypto.SignatureLength

// =============================================================================

// Hash returns the lowercase hex encoded sha256 digest of the data.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Digest returns the 32 byte sha256 digest that is signed for a message.
func Digest(message []byte) []byte {
	hash := sha256.Sum256(message)
	return hash[:]
}

// Sign uses the specified private key to sign the digest of the message.
// The nonce used by the secp256k1 implementation is derived from the key and
// digest (RFC 6979), so the same key and message produce the same signature.
func Sign(message []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is missing")
	}

	// Sign the digest with the private key to produce a signature.
	sig, err := crypto.Sign(Digest(message), privateKey)
	if err != nil {
		return nil, err
	}

	// Check the signature verifies under the public key before handing it out.
	if !Verify(PublicKeyBytes(&privateKey.PublicKey), message, sig) {
		return nil, errors.New("invalid signature")
	}

	return sig, nil
}

// Verify reports whether the signature was produced over the message by the
// owner of the public key. Malformed keys or signatures report false.
func Verify(publicKey []byte, message []byte, sig []byte) bool {
	if len(sig) != Length && len(sig) != Length-1 {
		return false
	}

	// The key must decode to a point on the curve.
	if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
		return false
	}

	// The recovery id is not part of the verification.
	rs := sig[:Length-1]

	return crypto.VerifySignature(publicKey, Digest(message), rs)
}

// PublicKeyBytes returns the uncompressed encoding of the public key.
func PublicKeyBytes(publicKey *ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(publicKey)
}

// Address derives the public address for the encoded public key. The address
// is the 0x prefixed hex encoding of the sha256 digest of the key bytes.
func Address(publicKey []byte) string {
	hash := sha256.Sum256(publicKey)
	return hexutil.Encode(hash[:])
}
