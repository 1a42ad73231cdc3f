package chain

import (
	"fmt"

	"github.com/accountchain/node/internal/metrics"
	"github.com/accountchain/node/pkg/types"
)

// ancestors walks parentOf from h back to the "" sentinel and returns the
// set of every digest visited, h included.
func (c *Chain) ancestors(h types.Hash) map[types.Hash]bool {
	set := make(map[types.Hash]bool)
	for {
		set[h] = true
		if h == "" {
			return set
		}
		h = c.parentOf[h]
	}
}

// commonAncestor finds the first digest shared by the ancestor chains of a
// and b. Since parentOf[""] == "" and every chain bottoms out at "", this
// always terminates.
func (c *Chain) commonAncestor(a, b types.Hash) types.Hash {
	inA := c.ancestors(a)
	for h := b; ; h = c.parentOf[h] {
		if inA[h] {
			return h
		}
		if h == "" {
			return ""
		}
	}
}

// pathTo walks parentOf from "from" back to (but excluding) "to", returning
// the digests in that descending order. "to" must be an ancestor of "from".
func (c *Chain) pathTo(from, to types.Hash) []types.Hash {
	var path []types.Hash
	for h := from; h != to; h = c.parentOf[h] {
		path = append(path, h)
	}
	return path
}

// reorgTo switches the ledger from the current tip onto newTip: it finds
// their common ancestor, reverts the old suffix from tip toward the fork,
// then applies the new suffix from the fork toward newTip. Any failure
// during the apply phase rolls back everything this call did, restoring
// the ledger to its pre-reorg state, so a failed reorg leaves the chain
// exactly as if AddBlock's insertion had never been attempted.
func (c *Chain) reorgTo(newTip types.Hash) error {
	fork := c.commonAncestor(c.tip, newTip)

	oldSuffix := c.pathTo(c.tip, fork)  // tip ... child_of_fork
	newSuffix := c.pathTo(newTip, fork) // newTip ... child_of_fork
	for i, j := 0, len(newSuffix)-1; i < j; i, j = i+1, j-1 {
		newSuffix[i], newSuffix[j] = newSuffix[j], newSuffix[i]
	}
	// newSuffix is now child_of_fork ... newTip, the order to apply in.

	reverted := 0
	for _, h := range oldSuffix {
		blk := c.blocks[h]
		miner := c.minerOf[h]
		if err := c.ledger.Revert(blk, miner, c.miningReward); err != nil {
			for i := reverted - 1; i >= 0; i-- {
				_ = c.ledger.Apply(c.blocks[oldSuffix[i]], c.minerOf[oldSuffix[i]], c.miningReward)
			}
			return fmt.Errorf("revert %s: %w", h, err)
		}
		reverted++
	}

	applied := 0
	for _, h := range newSuffix {
		blk := c.blocks[h]
		miner := c.minerOf[h]
		if err := c.ledger.Apply(blk, miner, c.miningReward); err != nil {
			for i := applied - 1; i >= 0; i-- {
				_ = c.ledger.Revert(c.blocks[newSuffix[i]], c.minerOf[newSuffix[i]], c.miningReward)
			}
			for i := len(oldSuffix) - 1; i >= 0; i-- {
				_ = c.ledger.Apply(c.blocks[oldSuffix[i]], c.minerOf[oldSuffix[i]], c.miningReward)
			}
			return fmt.Errorf("apply %s: %w", h, err)
		}
		applied++
	}

	metrics.ReorgDepth.Observe(float64(len(oldSuffix)))

	return nil
}
