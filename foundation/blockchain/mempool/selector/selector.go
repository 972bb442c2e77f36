// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO   = "fifo"
	StrategyAmount = "amount"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:   fifoSelect,
	StrategyAmount: amountSelect,
}

// Func defines a function that takes the transactions in the order they
// arrived and selects howMany of them in an order based on the functions
// strategy. Receiving -1 for howMany must return all the transactions in the
// strategies ordering.
type Func func(transactions []database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// fifoSelect returns transactions in the order they arrived.
var fifoSelect = func(transactions []database.Tx, howMany int) []database.Tx {
	if howMany == -1 || howMany > len(transactions) {
		howMany = len(transactions)
	}

	final := make([]database.Tx, howMany)
	copy(final, transactions)

	return final
}

// amountSelect returns the transactions moving the most value first. Equal
// amounts keep the order they arrived in.
var amountSelect = func(transactions []database.Tx, howMany int) []database.Tx {
	sorted := make([]database.Tx, len(transactions))
	copy(sorted, transactions)
	sort.Stable(byAmount(sorted))

	return fifoSelect(sorted, howMany)
}

// =============================================================================

// byAmount provides sorting support by the transaction amount value.
type byAmount []database.Tx

// Len returns the number of transactions in the list.
func (ba byAmount) Len() int {
	return len(ba)
}

// Less helps to sort the list by amount in decending order.
func (ba byAmount) Less(i, j int) bool {
	return ba[i].Amount > ba[j].Amount
}

// Swap moves transactions in the order of the amount value.
func (ba byAmount) Swap(i, j int) {
	ba[i], ba[j] = ba[j], ba[i]
}
