package wallet_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/signature"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Wallet(t *testing.T) {
	t.Log("Given the need to sign and verify messages with a wallet.")
	{
		w, err := wallet.Generate()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a wallet.", success)

		if !w.Address().IsAccountID() {
			t.Fatalf("\t%s\tShould derive a well formed address: %s", failed, w.Address())
		}
		t.Logf("\t%s\tShould derive a well formed address.", success)

		if w.Address() != database.PublicKeyToAccountID(w.PublicKey()) {
			t.Fatalf("\t%s\tShould derive the address from the public key.", failed)
		}
		t.Logf("\t%s\tShould derive the address from the public key.", success)

		msg := []byte("transfer 0.3")
		sig, err := w.Sign(msg)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign a message: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign a message.", success)

		if !signature.Verify(w.PublicKey(), msg, sig) {
			t.Fatalf("\t%s\tShould be able to verify the signature.", failed)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		if signature.Verify(w.PublicKey(), []byte("transfer 3.0"), sig) {
			t.Fatalf("\t%s\tShould not verify a tampered message.", failed)
		}
		t.Logf("\t%s\tShould not verify a tampered message.", success)

		other, err := wallet.Generate()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a second wallet: %v", failed, err)
		}

		if other.Address() == w.Address() {
			t.Fatalf("\t%s\tShould generate distinct addresses.", failed)
		}
		t.Logf("\t%s\tShould generate distinct addresses.", success)
	}
}

func Test_SignTx(t *testing.T) {
	alice, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %v", err)
	}
	bob, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %v", err)
	}

	tx, err := database.NewTx(alice.Address(), bob.Address(), 0.3)
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %v", err)
	}

	if err := alice.SignTx(&tx); err != nil {
		t.Fatalf("Should be able to sign the transaction: %v", err)
	}

	if err := tx.Validate(); err != nil {
		t.Fatalf("Should be able to validate the transaction: %v", err)
	}

	if err := alice.SignTx(&tx); !errors.Is(err, database.ErrAlreadySigned) {
		t.Fatalf("Should not be able to sign the transaction twice: %v", err)
	}
}

func Test_SaveLoad(t *testing.T) {
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %v", err)
	}

	path := filepath.Join(t.TempDir(), "miner1.ecdsa")
	if err := w.Save(path); err != nil {
		t.Fatalf("Should be able to save the wallet: %v", err)
	}

	loaded, err := wallet.Load(path)
	if err != nil {
		t.Fatalf("Should be able to load the wallet: %v", err)
	}

	if loaded.Address() != w.Address() {
		t.Logf("got: %s", loaded.Address())
		t.Logf("exp: %s", w.Address())
		t.Fatalf("Should load the same identity.")
	}
}
