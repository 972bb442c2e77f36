package worker_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
	"github.com/ardanlabs/peerledger/foundation/blockchain/state"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/peerledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_MineMempool(t *testing.T) {
	miner := newWallet(t, "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0")
	other := newWallet(t, "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")

	st, err := state.New(state.Config{
		Wallet:  miner,
		Self:    peer.New("miner1", "127.0.0.1", 1),
		Genesis: genesis.Genesis{TransPerBlock: 1, Difficulty: 1, MiningReward: 1},
		Storage: storage.NewMemory(),
		EvHandler: func(v string, args ...any) {
			t.Logf(v, args...)
		},
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	if err := st.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Should be able to bootstrap: %v", err)
	}

	t.Log("Given the need to mine every transaction submitted to the node.")
	{
		w := worker.RunWithInterval(st, time.Hour, nil)
		if st.Worker != w {
			t.Fatalf("\t%s\tShould register the worker with the state.", failed)
		}
		t.Logf("\t%s\tShould register the worker with the state.", success)

		for _, amount := range []float64{0.1, 0.2} {
			tx, err := database.NewTx(miner.Address(), other.Address(), amount)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
			}
			if err := miner.SignTx(&tx); err != nil {
				t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
			}
			if err := st.SubmitTransaction(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
			}
		}

		deadline := time.Now().Add(10 * time.Second)
		for len(st.Snapshot()) < 3 || st.MempoolLength() > 0 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine one block per transaction: blocks[%d] mempool[%d]", failed, len(st.Snapshot()), st.MempoolLength())
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Logf("\t%s\tShould mine one block per transaction.", success)

		if err := st.Shutdown(); err != nil {
			t.Fatalf("\t%s\tShould be able to shut down: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to shut down.", success)

		if got := len(st.Snapshot()); got != 3 {
			t.Fatalf("\t%s\tShould hold the genesis and two mined blocks, got %d", failed, got)
		}
	}
}

func Test_CancelOnPeerBlock(t *testing.T) {
	miner := newWallet(t, "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0")
	other := newWallet(t, "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")

	// A difficulty of 5 takes around a million attempts, far longer than it
	// takes to deliver the peer block once the local search is running.
	gen := genesis.Genesis{TransPerBlock: 1, Difficulty: 5, MiningReward: 1}
	pow := database.POW{Difficulty: uint(gen.Difficulty), Reward: gen.MiningReward}

	started := make(chan struct{}, 1)
	cancelled := make(chan struct{}, 1)
	var armed atomic.Bool

	ev := func(v string, args ...any) {
		line := fmt.Sprintf(v, args...)
		if !armed.Load() {
			return
		}

		switch {
		case strings.Contains(line, "database: POW: MINING: started"):
			notify(started)
		case strings.Contains(line, "MINING: CANCEL: complete"):
			notify(cancelled)
		}
	}

	st, err := state.New(state.Config{
		Wallet:    miner,
		Self:      peer.New("miner1", "127.0.0.1", 1),
		Genesis:   gen,
		Storage:   storage.NewMemory(),
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	defer st.Shutdown()

	if err := st.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Should be able to bootstrap: %v", err)
	}

	t.Log("Given the need to abandon a search when a peer block arrives.")
	{
		peerBlock := database.NewBlock(st.LatestBlock().Hash, nil)
		if err := pow.Mine(context.Background(), &peerBlock, other, nil); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the peer block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the peer block.", success)

		worker.RunWithInterval(st, time.Hour, ev)
		armed.Store(true)

		tx, err := database.NewTx(miner.Address(), other.Address(), 0.1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
		}
		if err := miner.SignTx(&tx); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}
		if err := st.SubmitTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
		}

		select {
		case <-started:
		case <-time.After(10 * time.Second):
			t.Fatalf("\t%s\tShould start mining the transaction.", failed)
		}
		t.Logf("\t%s\tShould start mining the transaction.", success)

		delivered := time.Now()
		if err := st.ProcessProposedBlock(peerBlock); err != nil {
			t.Fatalf("\t%s\tShould accept the peer block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the peer block.", success)

		select {
		case <-cancelled:
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould abandon the local search.", failed)
		}
		t.Logf("\t%s\tShould abandon the local search after %v.", success, time.Since(delivered))

		blocks := st.Snapshot()
		if len(blocks) < 2 || blocks[1].Hash != peerBlock.Hash {
			t.Fatalf("\t%s\tShould hold the peer block after genesis.", failed)
		}
		if len(blocks[1].Trans) != 1 || !blocks[1].Trans[0].IsCoinbase() {
			t.Fatalf("\t%s\tShould hold the peer block as proposed.", failed)
		}
		t.Logf("\t%s\tShould hold the peer block after genesis.", success)
	}
}

func Test_IntervalFallback(t *testing.T) {
	miner := newWallet(t, "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0")

	st, err := state.New(state.Config{
		Wallet:  miner,
		Self:    peer.New("miner1", "127.0.0.1", 1),
		Genesis: genesis.Genesis{TransPerBlock: 1, Difficulty: 1, MiningReward: 1},
		Storage: storage.NewMemory(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	for _, interval := range []time.Duration{0, -time.Second} {
		w := worker.RunWithInterval(st, interval, nil)
		if st.Worker != w {
			t.Fatalf("Should run with interval %v.", interval)
		}
		w.Shutdown()
	}
}

// =============================================================================

// notify signals the channel without blocking.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func newWallet(t *testing.T, hexKey string) *wallet.Wallet {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("Should be able to load the key: %v", err)
	}

	w, err := wallet.FromPrivateKey(pk)
	if err != nil {
		t.Fatalf("Should be able to construct the wallet: %v", err)
	}

	return w
}
