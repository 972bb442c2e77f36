// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"
)

// Genesis represents the genesis file. Every node on the network must be
// started with the same values.
type Genesis struct {
	Date          time.Time `json:"date"`
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block.
	Difficulty    uint16    `json:"difficulty"`      // How difficult it needs to be to solve the work problem.
	MiningReward  float64   `json:"mining_reward"`   // Reward for mining a block.
}

// Default returns the network parameters used when no genesis file exists.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TransPerBlock: 1,
		Difficulty:    5,
		MiningReward:  1,
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding %q: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("validating %q: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the values can be used to run a network.
func (g Genesis) Validate() error {
	if g.Difficulty > 64 {
		return errors.New("difficulty can't be more than 64")
	}

	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be at least 1")
	}

	if !(g.MiningReward > 0) || math.IsInf(g.MiningReward, 0) {
		return fmt.Errorf("mining_reward must be a positive amount, got %v", g.MiningReward)
	}

	return nil
}
