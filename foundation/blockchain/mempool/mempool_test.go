package mempool_test

import (
	"testing"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func sign(t *testing.T, recipient database.AccountID, amount float64) database.Tx {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the key: %v", err)
	}

	w, err := wallet.FromPrivateKey(pk)
	if err != nil {
		t.Fatalf("Should be able to construct the wallet: %v", err)
	}

	tx, err := database.NewTx(w.Address(), recipient, amount)
	if err != nil {
		t.Fatalf("Should be able to construct the transaction: %v", err)
	}

	if err := w.SignTx(&tx); err != nil {
		t.Fatalf("Should be able to sign the transaction: %v", err)
	}

	return tx
}

func TestCRUD(t *testing.T) {
	const to = "0x2222222222222222222222222222222222222222222222222222222222222222"

	t.Log("Given the need to validate mempool api.")
	{
		mp, err := mempool.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create mempool: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create mempool.", success)

		txs := []database.Tx{sign(t, to, 1), sign(t, to, 2), sign(t, to, 3)}
		for _, tx := range txs {
			mp.Upsert(tx)
		}

		if mp.Count() != len(txs) {
			t.Fatalf("\t%s\tShould have %d transactions, got %d", failed, len(txs), mp.Count())
		}
		t.Logf("\t%s\tShould have the right number of transactions.", success)

		mp.Upsert(txs[1])
		if mp.Count() != len(txs) {
			t.Fatalf("\t%s\tShould not add the same transaction twice, got %d", failed, mp.Count())
		}
		t.Logf("\t%s\tShould not add the same transaction twice.", success)

		best := mp.PickBest(2)
		if len(best) != 2 || best[0].Amount != 1 || best[1].Amount != 2 {
			t.Fatalf("\t%s\tShould pick the oldest transactions first: %v", failed, best)
		}
		t.Logf("\t%s\tShould pick the oldest transactions first.", success)

		mp.Delete(txs[0])
		best = mp.PickBest(-1)
		if len(best) != 2 || best[0].Amount != 2 || best[1].Amount != 3 {
			t.Fatalf("\t%s\tShould remove the transaction: %v", failed, best)
		}
		t.Logf("\t%s\tShould be able to delete a transaction.", success)

		mp.Delete(txs[0])
		if mp.Count() != 2 {
			t.Fatalf("\t%s\tShould ignore deleting an unknown transaction.", failed)
		}

		mp.Truncate()
		if mp.Count() != 0 || len(mp.PickBest(-1)) != 0 {
			t.Fatalf("\t%s\tShould be able to truncate the pool.", failed)
		}
		t.Logf("\t%s\tShould be able to truncate the pool.", success)
	}
}

func TestStrategy(t *testing.T) {
	if _, err := mempool.NewWithStrategy("unknown"); err == nil {
		t.Fatalf("Should not create a mempool with an unknown strategy.")
	}

	mp, err := mempool.NewWithStrategy("amount")
	if err != nil {
		t.Fatalf("Should be able to create mempool: %v", err)
	}

	const to = "0x2222222222222222222222222222222222222222222222222222222222222222"
	mp.Upsert(sign(t, to, 1))
	mp.Upsert(sign(t, to, 7))

	best := mp.PickBest(1)
	if len(best) != 1 || best[0].Amount != 7 {
		t.Fatalf("Should pick the largest amount first: %v", best)
	}
}
