// Package private maintains the group of handlers for node operators.
package private

import (
	"context"
	"net/http"

	"github.com/ardanlabs/peerledger/business/web/errs"
	"github.com/ardanlabs/peerledger/foundation/blockchain/peer"
	"github.com/ardanlabs/peerledger/foundation/blockchain/state"
	"github.com/ardanlabs/peerledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// AddPeer registers a new peer with this node.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var np newPeer
	if err := web.Decode(r, &np); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	pr, err := peer.Parse(np.Peer)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Added bool `json:"added"`
	}{
		Added: h.State.AddKnownPeer(pr),
	}

	h.Log.Infow("add peer", "traceid", web.GetTraceID(ctx), "peer", pr, "added", resp.Added)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Sync catches the ledger up with every known peer.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	type result struct {
		Peer   string `json:"peer"`
		Blocks int    `json:"blocks"`
		Error  string `json:"error,omitempty"`
	}

	results := []result{}
	for _, pr := range h.State.KnownPeers() {
		n, err := h.State.NetSyncFromPeer(ctx, pr)

		res := result{Peer: pr.String(), Blocks: n}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	return web.Respond(ctx, w, results, http.StatusOK)
}

// SignalMining asks the worker to mine the transactions in the mempool.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errWorkerNotRunning, http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
