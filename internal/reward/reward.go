// Package reward computes the per-block crediting a miner earns, per
// spec.md §4.J: a fixed coinbase, an AI3 bonus scaled by the proof's
// optimization factor, and the block's transaction fees.
package reward

import (
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/types"
)

// MiningReward is the fixed coinbase credited to the sealing miner of
// every block, per spec.md §4.J: 50 * 10^6 base units (50 TRIBE).
const MiningReward types.Amount = 50_000_000

// Credit is the total amount a block's miner is owed: MiningReward,
// plus (if the block carries an AI3Proof) the bonus
// floor(MiningReward * optimization_factor), plus every transaction's
// fee, per spec.md §4.I steps 5-6 and §4.J.
func Credit(b block.Block) types.Amount {
	total := MiningReward
	if b.AI3Proof != nil {
		total += Bonus(b.AI3Proof.OptimizationFactor)
	}
	for _, t := range b.Transactions {
		total += t.Fee
	}
	return total
}

// Bonus computes floor(MiningReward * optimizationFactor), per
// spec.md §4.J's "AI3 bonus: mining_reward * optimization_factor,
// truncated to integer".
func Bonus(optimizationFactor float32) types.Amount {
	return types.Amount(float64(MiningReward) * float64(optimizationFactor))
}
