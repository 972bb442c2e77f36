package worker

import (
	"context"
)

// peerOperations handles catching up with the known peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation asks each known peer for blocks this node is missing.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	if !w.state.IsReady() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	for _, peer := range w.state.KnownPeers() {
		added, err := w.state.NetSyncFromPeer(ctx, peer)
		if err != nil {
			w.evHandler("worker: runPeersOperation: sync: %s: ERROR: %s", peer, err)
			continue
		}

		if added > 0 {
			w.evHandler("worker: runPeersOperation: sync: %s: added blocks[%d]", peer, added)
		}
	}
}
