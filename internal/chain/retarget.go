package chain

import (
	"github.com/accountchain/node/config"
	"github.com/accountchain/node/pkg/types"
)

// retarget adjusts currentDifficulty based on how long the accepted block
// took relative to targetBlockInterval, widening or tightening by a fixed
// step rather than a proportional curve. It runs on every accepted block
// whose parent is known; blocksBetweenDifficultyAdjustment is accepted at
// construction but not consulted here — the retarget cadence the source
// exhibits is unconditional, not periodic.
func (c *Chain) retarget(blockTimestamp, parentTimestamp uint64) {
	delta := int64(blockTimestamp) - int64(parentTimestamp)
	target := int64(c.targetBlockInterval)

	switch {
	case delta > target+config.BlockTimeToleranceSeconds:
		// Blocks are arriving too slowly: widen the target so the next
		// block is easier to find.
		if c.currentDifficulty.Cmp(maxDifficulty) >= 0 {
			return
		}
		widened := c.currentDifficulty.Add(types.NewUInt(config.DifficultyRetargetStep))
		if widened.Cmp(maxDifficulty) > 0 {
			widened = maxDifficulty
		}
		c.currentDifficulty = widened

	case delta < target-config.BlockTimeToleranceSeconds:
		// Blocks are arriving too fast: tighten the target. Sub reports
		// false rather than underflow, and a zero result is refused, so
		// the difficulty stays at its current value instead of going
		// negative or reaching zero.
		if tightened, ok := c.currentDifficulty.Sub(types.NewUInt(config.DifficultyRetargetStep)); ok && !tightened.IsZero() {
			c.currentDifficulty = tightened
		}
	}
}
