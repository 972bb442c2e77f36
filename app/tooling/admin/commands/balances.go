// Package commands contains the functionality for the admin tooling.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
)

// Balances writes the balances of the ledger, or of the one account when
// specified.
func Balances(w io.Writer, db *database.Database, account database.AccountID) error {
	fmt.Fprintf(w, "LatestBlockHash: %s\n\n", db.LatestBlock().Hash)

	if account != "" {
		if !account.IsAccountID() {
			return fmt.Errorf("invalid account %q", account)
		}
		fmt.Fprintf(w, "Account: %s  Balance: %v\n", account, db.BalanceOf(account))
		return nil
	}

	bals := db.Balances()

	accounts := make([]database.AccountID, 0, len(bals))
	for account := range bals {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	for _, account := range accounts {
		fmt.Fprintf(w, "Account: %s  Balance: %v\n", account, bals[account])
	}

	return nil
}
