package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/peerledger/foundation/nameservice"
)

func Test_NameService(t *testing.T) {
	root := t.TempDir()

	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %v", err)
	}
	if err := w.Save(filepath.Join(root, "kennedy"+nameservice.KeyExtension)); err != nil {
		t.Fatalf("Should be able to save the wallet: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatalf("Should be able to write a file: %v", err)
	}

	ns, err := nameservice.New(root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %v", err)
	}

	if name := ns.Lookup(w.Address()); name != "kennedy" {
		t.Fatalf("Should resolve the account name, got %q", name)
	}

	const unknown = "0x2222222222222222222222222222222222222222222222222222222222222222"
	if name := ns.Lookup(unknown); name != unknown {
		t.Fatalf("Should return unknown accounts as is, got %q", name)
	}

	if len(ns.Copy()) != 1 {
		t.Fatalf("Should only load key files: %v", ns.Copy())
	}
}
