package private

import "errors"

var errWorkerNotRunning = errors.New("worker is not running")

type newPeer struct {
	Peer string `json:"peer" validate:"required"`
}
