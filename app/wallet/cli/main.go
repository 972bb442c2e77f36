// This program provides a command line wallet for the ledger.
package main

import "github.com/ardanlabs/peerledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
