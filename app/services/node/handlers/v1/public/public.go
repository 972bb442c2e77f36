// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/peerledger/business/web/errs"
	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/state"
	"github.com/ardanlabs/peerledger/foundation/events"
	"github.com/ardanlabs/peerledger/foundation/nameservice"
	"github.com/ardanlabs/peerledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns where this node is in its lifecycle.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := status{
		Status:      h.State.Status().String(),
		Self:        h.State.Self().String(),
		Account:     h.NS.Lookup(h.State.Address()),
		LatestBlock: h.State.LatestBlock().Hash,
		Blocks:      h.State.Len(),
		Uncommitted: h.State.MempoolLength(),
		Peers:       len(h.State.KnownPeers()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a signed wallet transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var st signedTx
	if err := web.Decode(r, &st); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	t, err := st.toTx()
	if err != nil {
		return errs.NewLedger(err)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", t, "sender", h.NS.Lookup(t.Sender), "recipient", h.NS.Lookup(t.Recipient))

	if err := h.State.SubmitTransaction(t); err != nil {
		return errs.NewLedger(err)
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "queued",
		ID:     t.ID(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := database.AccountID(web.Param(r, "account"))

	trans := []tx{}
	for _, t := range h.State.Mempool() {
		if acct != "" && acct != t.Sender && acct != t.Recipient {
			continue
		}
		trans = append(trans, h.toTx(t))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Balances returns the current balances for all accounts or the one
// specified account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := database.AccountID(web.Param(r, "account"))

	var bals map[database.AccountID]float64
	switch acct {
	case "":
		bals = h.State.Balances()

	default:
		if !acct.IsAccountID() {
			return errs.NewTrusted(database.ErrInvalidConstruction, http.StatusBadRequest)
		}
		bals = map[database.AccountID]float64{acct: h.State.BalanceOf(acct)}
	}

	resp := balances{
		LatestBlock: h.State.LatestBlock().Hash,
		Uncommitted: h.State.MempoolLength(),
		Balances:    make([]balance, 0, len(bals)),
	}

	for account, bal := range bals {
		resp.Balances = append(resp.Balances, balance{
			Account: account,
			Name:    h.NS.Lookup(account),
			Balance: bal,
		})
	}

	sort.Slice(resp.Balances, func(i, j int) bool {
		return resp.Balances[i].Account < resp.Balances[j].Account
	})

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the blocks of the ledger, or only the ones holding a
// transaction for the specified account.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := database.AccountID(web.Param(r, "account"))

	blocks := []block{}
	for i, blk := range h.State.Snapshot() {
		if acct != "" && !touches(blk, acct) {
			continue
		}

		trans := make([]tx, len(blk.Trans))
		for j, t := range blk.Trans {
			trans[j] = h.toTx(t)
		}

		blocks = append(blocks, block{
			Number:       i + 1,
			PrevHash:     blk.PrevHash,
			Hash:         blk.Hash,
			TimeStamp:    blk.TimeStamp,
			Nonce:        blk.Nonce,
			Transactions: trans,
		})
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Peers returns the peers this node knows about.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	peers := []peerInfo{}
	for _, p := range h.State.KnownPeers() {
		peers = append(peers, peerInfo{Name: p.Name, Addr: p.Addr()})
	}

	return web.Respond(ctx, w, peers, http.StatusOK)
}

// =============================================================================

func (h Handlers) toTx(t database.Tx) tx {
	return tx{
		Sender:        t.Sender,
		SenderName:    h.NS.Lookup(t.Sender),
		Recipient:     t.Recipient,
		RecipientName: h.NS.Lookup(t.Recipient),
		Amount:        t.Amount,
		Sig:           t.Signature.String(),
	}
}

func touches(blk database.Block, acct database.AccountID) bool {
	for _, t := range blk.Trans {
		if t.Sender == acct || t.Recipient == acct {
			return true
		}
	}
	return false
}
