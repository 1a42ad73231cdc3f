package chain

import (
	"github.com/accountchain/node/internal/ledger"
	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/types"
)

// Snapshot is a loss-less, self-contained copy of chain state: every
// field needed to reconstruct invariants (I1)-(I4) on another node. It is
// the payload carried by SnapshotResponse in the peer sync protocol.
type Snapshot struct {
	Blocks        map[types.Hash]*block.Block    `json:"blocks"`
	ParentOf      map[types.Hash]types.Hash      `json:"parent_of"`
	MinerOf       map[types.Hash]types.PubKey    `json:"miner_of"`
	CumDifficulty map[types.Hash]types.UInt      `json:"cum_difficulty"`
	Tip           types.Hash                     `json:"tip"`
	Difficulty    types.UInt                     `json:"current_difficulty"`
	Accounts      map[types.PubKey]ledger.Account `json:"accounts"`
}

// Snapshot copies the full chain state for serialization. The miner must
// be paused (Miner.Pause) by the caller before taking a
// snapshot it intends to serve to a peer, so that the responder's lock
// acquisition below is never contended for long; Snapshot itself only
// needs the lock for the duration of the copy.
func (c *Chain) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Blocks:        make(map[types.Hash]*block.Block, len(c.blocks)),
		ParentOf:      make(map[types.Hash]types.Hash, len(c.parentOf)),
		MinerOf:       make(map[types.Hash]types.PubKey, len(c.minerOf)),
		CumDifficulty: make(map[types.Hash]types.UInt, len(c.cumDifficulty)),
		Tip:           c.tip,
		Difficulty:    c.currentDifficulty,
	}
	for h, blk := range c.blocks {
		s.Blocks[h] = blk
	}
	for h, p := range c.parentOf {
		s.ParentOf[h] = p
	}
	for h, pk := range c.minerOf {
		s.MinerOf[h] = pk
	}
	for h, d := range c.cumDifficulty {
		s.CumDifficulty[h] = d
	}
	s.Accounts = c.ledger.Snapshot()

	return s
}

// Restore replaces the chain's entire state with s, used when a syncing
// node applies a snapshot received from a peer. It does not validate s —
// callers that received it over the wire should treat the sender as
// trusted, or revalidate the DAG by replaying AddBlock from genesis
// instead of calling Restore.
func (c *Chain) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blocks = make(map[types.Hash]*block.Block, len(s.Blocks))
	for h, blk := range s.Blocks {
		c.blocks[h] = blk
	}
	c.parentOf = make(map[types.Hash]types.Hash, len(s.ParentOf))
	for h, p := range s.ParentOf {
		c.parentOf[h] = p
	}
	if _, ok := c.parentOf[""]; !ok {
		c.parentOf[""] = ""
	}
	c.minerOf = make(map[types.Hash]types.PubKey, len(s.MinerOf))
	for h, pk := range s.MinerOf {
		c.minerOf[h] = pk
	}
	c.cumDifficulty = make(map[types.Hash]types.UInt, len(s.CumDifficulty))
	for h, d := range s.CumDifficulty {
		c.cumDifficulty[h] = d
	}
	if _, ok := c.cumDifficulty[""]; !ok {
		c.cumDifficulty[""] = types.Zero
	}

	c.tip = s.Tip
	c.currentDifficulty = s.Difficulty
	c.ledger.Restore(s.Accounts)
}
