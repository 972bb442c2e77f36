package p2p_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/peerledger/foundation/blockchain/p2p"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
	"github.com/ardanlabs/peerledger/foundation/blockchain/state"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
	"github.com/ardanlabs/peerledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	aHexKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	bHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

var testGenesis = genesis.Genesis{
	TransPerBlock: 1,
	Difficulty:    2,
	MiningReward:  1,
}

var timeouts = wire.Timeouts{
	Dial:  time.Second,
	Read:  5 * time.Second,
	Write: time.Second,
}

// =============================================================================

func Test_Network(t *testing.T) {
	knownPeers := peer.NewPeerSet()
	aWallet := newWallet(t, aHexKey)
	bWallet := newWallet(t, bHexKey)

	t.Log("Given the need to run two nodes that replicate one ledger.")
	{
		a := startNode(t, "A", aWallet, knownPeers)

		blocks := a.Snapshot()
		if len(blocks) != 1 || blocks[0].PrevHash != database.GenesisPrevHash {
			t.Fatalf("\t%s\tShould mine the genesis block on the first node, got %d blocks", failed, len(blocks))
		}
		if a.BalanceOf(aWallet.Address()) != 1 {
			t.Fatalf("\t%s\tShould reward the first node: %v", failed, a.BalanceOf(aWallet.Address()))
		}
		t.Logf("\t%s\tShould mine the genesis block on the first node.", success)

		b := startNode(t, "B", bWallet, knownPeers)

		if !sameLedger(a.Snapshot(), b.Snapshot()) {
			t.Fatalf("\t%s\tShould bootstrap the ledger of the first node.", failed)
		}
		if knownPeers.Len() != 2 {
			t.Fatalf("\t%s\tShould register both nodes: %d", failed, knownPeers.Len())
		}
		t.Logf("\t%s\tShould bootstrap the ledger of the first node.", success)

		tx, err := database.NewTx(aWallet.Address(), bWallet.Address(), 0.3)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
		}
		if err := aWallet.SignTx(&tx); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		if err := submit(a.Self().Addr(), tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit the transaction.", success)

		deadline := time.Now().Add(20 * time.Second)
		for {
			if len(a.Snapshot()) == 2 && len(b.Snapshot()) == 2 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould mine and replicate the block: a[%d] b[%d]", failed, len(a.Snapshot()), len(b.Snapshot()))
			}
			time.Sleep(20 * time.Millisecond)
		}

		if !sameLedger(a.Snapshot(), b.Snapshot()) {
			t.Fatalf("\t%s\tShould hold the same ledger on both nodes.", failed)
		}
		t.Logf("\t%s\tShould mine and replicate the block.", success)

		for _, st := range []*state.State{a, b} {
			if got := st.BalanceOf(bWallet.Address()); math.Abs(got-0.3) > 1e-9 {
				t.Fatalf("\t%s\tShould credit the recipient on %s: %v", failed, st.Self(), got)
			}
			if got := st.BalanceOf(aWallet.Address()); math.Abs(got-1.7) > 1e-9 {
				t.Fatalf("\t%s\tShould debit the sender and reward the miner on %s: %v", failed, st.Self(), got)
			}
		}
		t.Logf("\t%s\tShould agree on the balances.", success)
	}
}

func Test_Rejections(t *testing.T) {
	knownPeers := peer.NewPeerSet()
	aWallet := newWallet(t, aHexKey)
	bWallet := newWallet(t, bHexKey)

	t.Log("Given the need to reject bad requests from the network.")
	{
		a := startNode(t, "A", aWallet, knownPeers)
		addr := a.Self().Addr()

		forged, err := database.NewTx(aWallet.Address(), bWallet.Address(), 0.5)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
		}
		if err := bWallet.SignTx(&forged); err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		err = submit(addr, forged)
		if !errors.Is(err, database.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a forged transaction: %v", failed, err)
		}
		if a.MempoolLength() != 0 || len(a.Snapshot()) != 1 {
			t.Fatalf("\t%s\tShould leave the node untouched: mempool[%d] blocks[%d]", failed, a.MempoolLength(), len(a.Snapshot()))
		}
		t.Logf("\t%s\tShould reject a forged transaction.", success)

		env, err := wire.NewEnvelope(wire.KindBlock, a.LatestBlock())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the envelope: %v", failed, err)
		}

		err = wire.Call(context.Background(), addr, timeouts, env, wire.KindAck, nil)
		if !errors.Is(err, database.ErrChainLinkage) {
			t.Fatalf("\t%s\tShould reject a block that does not extend the chain: %v", failed, err)
		}
		if len(a.Snapshot()) != 1 {
			t.Fatalf("\t%s\tShould not change the ledger.", failed)
		}
		t.Logf("\t%s\tShould reject a block that does not extend the chain.", success)

		unknown := wire.Envelope{Kind: "gossip"}
		err = wire.Call(context.Background(), addr, timeouts, unknown, wire.KindAck, nil)
		if !errors.Is(err, wire.ErrMalformedMessage) {
			t.Fatalf("\t%s\tShould reject an unknown kind: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown kind.", success)

		bad := wire.Envelope{Kind: wire.KindTransaction, Payload: []byte(`"not a transaction"`)}
		err = wire.Call(context.Background(), addr, timeouts, bad, wire.KindAck, nil)
		if !errors.Is(err, wire.ErrMalformedMessage) {
			t.Fatalf("\t%s\tShould reject a payload that does not decode: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a payload that does not decode.", success)

		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to connect: %v", failed, err)
		}
		defer conn.Close()

		conn.Write([]byte{0, 0, 0, 3, '{', '{', '{'})
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))

		resp, err := wire.ReadMessage(conn)
		if err != nil || resp.Kind != wire.KindError {
			t.Fatalf("\t%s\tShould answer a malformed frame with an error: %v %v", failed, resp.Kind, err)
		}
		t.Logf("\t%s\tShould answer a malformed frame with an error.", success)
	}
}

func Test_Broadcast(t *testing.T) {
	knownPeers := peer.NewPeerSet()
	aWallet := newWallet(t, aHexKey)
	bWallet := newWallet(t, bHexKey)

	t.Log("Given the need to deliver a block past an unreachable peer.")
	{
		a := startNode(t, "A", aWallet, knownPeers)
		b := startNode(t, "B", bWallet, knownPeers)

		dead := peer.New("dead", "127.0.0.1", closedPort(t))
		knownPeers.Add(dead)

		c := startNode(t, "C", bWallet, knownPeers)

		peers := a.KnownPeers()
		if len(peers) != 3 || peers[1] != dead {
			t.Fatalf("\t%s\tShould register the unreachable peer between the live ones: %v", failed, peers)
		}
		t.Logf("\t%s\tShould register the unreachable peer between the live ones.", success)

		block := mineOn(t, a, aWallet)
		if err := a.ProcessProposedBlock(block); err != nil {
			t.Fatalf("\t%s\tShould be able to add the block locally: %v", failed, err)
		}

		result := a.NetSendBlockToPeers(context.Background(), block)
		if result.Sent != 2 || result.Failed != 1 || len(result.Errors) != 1 {
			t.Fatalf("\t%s\tShould count 2 sent and 1 failed: %+v", failed, result)
		}
		if !errors.Is(result.Errors[0], wire.ErrNetwork) {
			t.Fatalf("\t%s\tShould report the unreachable peer: %v", failed, result.Errors[0])
		}
		t.Logf("\t%s\tShould count 2 sent and 1 failed.", success)

		for _, st := range []*state.State{b, c} {
			if st.Len() != 2 || st.LatestBlock().Hash != block.Hash {
				t.Fatalf("\t%s\tShould deliver the block to %s: blocks[%d]", failed, st.Self(), st.Len())
			}
		}
		t.Logf("\t%s\tShould deliver the block to both live peers.", success)
	}
}

func Test_PagedBootstrap(t *testing.T) {
	knownPeers := peer.NewPeerSet()
	aWallet := newWallet(t, aHexKey)

	t.Log("Given the need to transfer a ledger larger than one response.")
	{
		a := startNode(t, "A", aWallet, knownPeers)

		for i := 0; i < 4; i++ {
			if err := a.ProcessProposedBlock(mineOn(t, a, aWallet)); err != nil {
				t.Fatalf("\t%s\tShould be able to grow the ledger: %v", failed, err)
			}
		}

		var pageSize int
		for _, block := range a.Snapshot() {
			data, err := json.Marshal(block)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to marshal the block: %v", failed, err)
			}
			pageSize = max(pageSize, len(data)+2)
		}

		pages := serve(t, a, pageSize)

		req, err := wire.NewEnvelope(wire.KindBootstrapRequest, wire.BootstrapRequest{From: 0})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the request: %v", failed, err)
		}

		var first []database.Block
		if err := wire.Call(context.Background(), pages.Addr(), timeouts, req, wire.KindLedger, &first); err != nil {
			t.Fatalf("\t%s\tShould be able to request one page: %v", failed, err)
		}
		if len(first) == 0 || len(first) >= a.Len() {
			t.Fatalf("\t%s\tShould answer with part of the ledger: %d of %d", failed, len(first), a.Len())
		}
		t.Logf("\t%s\tShould answer with part of the ledger: %d of %d", success, len(first), a.Len())

		blocks, err := a.NetRequestBootstrap(context.Background(), pages)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to request the ledger: %v", failed, err)
		}
		if !sameLedger(blocks, a.Snapshot()) {
			t.Fatalf("\t%s\tShould assemble the full ledger: %d of %d", failed, len(blocks), a.Len())
		}
		t.Logf("\t%s\tShould assemble the full ledger from pages.", success)

		tiny := serve(t, a, 100)

		_, err = a.NetRequestBootstrap(context.Background(), tiny)
		if !errors.Is(err, wire.ErrMessageTooLarge) || errors.Is(err, wire.ErrNetwork) {
			t.Fatalf("\t%s\tShould answer with an error when a block can't be sent: %v", failed, err)
		}
		t.Logf("\t%s\tShould answer with an error when a block can't be sent.", success)
	}
}

// =============================================================================

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

// startNode runs a complete node on a loopback port and registers the
// cleanup of every piece it started.
func startNode(t *testing.T, name string, w *wallet.Wallet, knownPeers *peer.PeerSet) *state.State {
	l, err := p2p.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Should be able to listen: %v", err)
	}

	ev := func(v string, args ...any) {
		t.Logf(name+": "+v, args...)
	}

	st, err := state.New(state.Config{
		Wallet:     w,
		Self:       peer.New(name, "127.0.0.1", l.Addr().(*net.TCPAddr).Port),
		Genesis:    testGenesis,
		Storage:    storage.NewMemory(),
		KnownPeers: knownPeers,
		Timeouts:   timeouts,
		EvHandler:  ev,
	})
	if err != nil {
		l.Close()
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	if err := st.Bootstrap(context.Background()); err != nil {
		l.Close()
		t.Fatalf("Should be able to bootstrap %s: %v", name, err)
	}

	worker.RunWithInterval(st, time.Hour, ev)

	srv := p2p.New(p2p.Config{
		State:        st,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		EvHandler:    ev,
	})
	srv.Start(l)

	t.Cleanup(func() {
		srv.Shutdown()
		st.Shutdown()
	})

	return st
}

// serve runs another peer server for the node limited to the specified
// ledger page size and returns the peer to reach it.
func serve(t *testing.T, st *state.State, maxPageSize int) peer.Peer {
	l, err := p2p.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Should be able to listen: %v", err)
	}

	srv := p2p.New(p2p.Config{
		State:       st,
		MaxPageSize: maxPageSize,
	})
	srv.Start(l)

	t.Cleanup(func() { srv.Shutdown() })

	return peer.New("pages", "127.0.0.1", l.Addr().(*net.TCPAddr).Port)
}

// mineOn mines an empty block on top of the latest block of the node.
func mineOn(t *testing.T, st *state.State, w *wallet.Wallet) database.Block {
	pow := database.POW{Difficulty: uint(testGenesis.Difficulty), Reward: testGenesis.MiningReward}

	block := database.NewBlock(st.LatestBlock().Hash, nil)
	if err := pow.Mine(context.Background(), &block, w, nil); err != nil {
		t.Fatalf("Should be able to mine a block: %v", err)
	}

	return block
}

// closedPort returns a loopback port nothing is listening on.
func closedPort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Should be able to listen: %v", err)
	}
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func submit(addr string, tx database.Tx) error {
	env, err := wire.NewEnvelope(wire.KindTransaction, tx)
	if err != nil {
		return err
	}

	var ack wire.Ack
	return wire.Call(context.Background(), addr, timeouts, env, wire.KindAck, &ack)
}

func sameLedger(a, b []database.Block) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Hash != b[i].Hash {
			return false
		}
	}

	return true
}
