package selector_test

import (
	"testing"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/mempool/selector"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestSelect(t *testing.T) {
	const to = "0x2222222222222222222222222222222222222222222222222222222222222222"

	tran := func(amount float64) database.Tx {
		tx, err := database.NewTx("", to, amount)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct transaction: %v", failed, err)
		}
		return tx
	}

	txs := []database.Tx{tran(1), tran(5), tran(3), tran(5)}

	type test struct {
		name     string
		strategy string
		howMany  int
		best     []float64
	}

	tt := []test{
		{name: "fifo all", strategy: selector.StrategyFIFO, howMany: -1, best: []float64{1, 5, 3, 5}},
		{name: "fifo two", strategy: selector.StrategyFIFO, howMany: 2, best: []float64{1, 5}},
		{name: "fifo more", strategy: selector.StrategyFIFO, howMany: 10, best: []float64{1, 5, 3, 5}},
		{name: "amount all", strategy: selector.StrategyAmount, howMany: -1, best: []float64{5, 5, 3, 1}},
		{name: "amount one", strategy: selector.StrategyAmount, howMany: 1, best: []float64{5}},
	}

	t.Log("Given the need to select transactions for the next block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				fn, err := selector.Retrieve(tst.strategy)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve strategy: %v", failed, testID, err)
				}

				got := fn(txs, tst.howMany)
				if len(got) != len(tst.best) {
					t.Fatalf("\t%s\tTest %d:\tShould get back %d transactions, got %d", failed, testID, len(tst.best), len(got))
				}

				for i, tx := range got {
					if tx.Amount != tst.best[i] {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, tx.Amount)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.best[i])
						t.Fatalf("\t%s\tTest %d:\tShould get back the right order.", failed, testID)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right order.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}

	if txs[0].Amount != 1 || txs[1].Amount != 5 {
		t.Fatalf("\t%s\tShould not reorder the caller's transactions.", failed)
	}

	if _, err := selector.Retrieve("tip"); err == nil {
		t.Fatalf("\t%s\tShould not find an unknown strategy.", failed)
	}
}
