// Package miner implements the proof-of-work block producer: build a
// candidate block from the current tip and mempool, search for a nonce
// and timestamp whose header digest meets the chain's current
// difficulty, and submit the result back to the chain.
package miner

import (
	"sync/atomic"
	"time"

	"github.com/accountchain/node/internal/metrics"
	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

// ChainView is the subset of chain.Chain the miner needs: enough to build
// a candidate header and to submit a sealed block.
type ChainView interface {
	Tip() types.Hash
	CurrentDifficulty() types.UInt
	MaxTransactionsPerBlock() int
	AddBlock(blk *block.Block, minerPK types.PubKey) (bool, error)
}

// MempoolSelector selects and removes transactions for block inclusion.
type MempoolSelector interface {
	SelectForBlock(limit int) []*tx.Transaction
	Remove(txs []*tx.Transaction)
}

// Miner repeatedly builds and seals candidate blocks on top of whatever
// the chain's current tip is, crediting minerPK. It is meant to run on
// its own goroutine (the caller is expected to pin it to an OS thread
// with runtime.LockOSThread if true CPU isolation from the rest of the
// node is desired; the search loop itself has no OS-thread dependency).
type Miner struct {
	chain   ChainView
	pool    MempoolSelector
	minerPK types.PubKey

	// enabled gates every hash attempt: Pause sets it false and a
	// snapshot responder can then safely read chain state without racing
	// a mid-search write, since the search loop never holds the chain's
	// lock across attempts — it only calls back into ChainView for a
	// single read or the final AddBlock.
	enabled atomic.Bool

	// announce is called with each block this miner gets accepted onto
	// the chain, so the caller can gossip it to peers. Nil is a valid
	// value (tests, or a node with no P2P layer) and is simply skipped.
	announce func(*block.Block)
}

// New creates a miner crediting minerPK, initially enabled.
func New(chain ChainView, pool MempoolSelector, minerPK types.PubKey) *Miner {
	m := &Miner{chain: chain, pool: pool, minerPK: minerPK}
	m.enabled.Store(true)
	return m
}

// SetAnnounce registers a callback invoked with every block this miner
// successfully adds to the chain, for broadcasting to peers.
func (m *Miner) SetAnnounce(fn func(*block.Block)) {
	m.announce = fn
}

// Pause stops the miner from starting or continuing a hash attempt. It
// does not interrupt the in-flight attempt, which completes (or fails and
// loops) before the loop next checks enabled — at most one hash's worth
// of latency, matching the "one attempt per lock acquisition" design.
func (m *Miner) Pause() { m.enabled.Store(false) }

// Resume re-enables mining after a Pause.
func (m *Miner) Resume() { m.enabled.Store(true) }

// Run mines continuously until stop is closed. Each iteration builds a
// fresh candidate against the chain's latest tip and difficulty — if a
// peer's block lands mid-search, the next iteration simply picks up the
// new tip rather than wasting work contesting it.
func (m *Miner) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if !m.enabled.Load() {
			time.Sleep(time.Millisecond)
			continue
		}
		blk, ok := m.mineOne(stop)
		if !ok {
			// Covers an empty mempool as well as a pause/stop firing
			// mid-search; a short sleep avoids busy-polling the pool.
			time.Sleep(time.Millisecond)
			continue
		}
		if accepted, err := m.chain.AddBlock(blk, m.minerPK); err == nil && accepted {
			m.pool.Remove(blk.Transactions)
			metrics.BlocksMined.Inc()
			if m.announce != nil {
				m.announce(blk)
			}
		}
	}
}

// mineOne builds one candidate block and searches for a satisfying
// nonce/timestamp pair. It returns ok == false if mining was paused or
// stop fired mid-search, in which case the caller should re-evaluate
// chain state and try again.
func (m *Miner) mineOne(stop <-chan struct{}) (*block.Block, bool) {
	prevHash := m.chain.Tip()
	limit := m.chain.MaxTransactionsPerBlock()
	selected := m.pool.SelectForBlock(limit)
	if len(selected) == 0 {
		// A block with no transactions has no merkle root and is
		// rejected by Validate; there is nothing to mine yet.
		return nil, false
	}

	root := block.BuildMerkle(fingerprintsOf(selected))
	header := &block.Header{
		Nonce:      1,
		Timestamp:  uint64(time.Now().Unix()),
		PrevHash:   prevHash,
		MerkleRoot: root,
	}
	blk := block.NewBlock(header, selected)

	difficulty := m.chain.CurrentDifficulty()
	target := difficulty.BigInt()

	for {
		select {
		case <-stop:
			return nil, false
		default:
		}
		if !m.enabled.Load() {
			return nil, false
		}

		digest := header.Hash()
		metrics.MiningAttempts.Inc()
		n, err := digest.BigInt()
		if err == nil && n.Cmp(target) <= 0 {
			return blk, true
		}

		header.Nonce++
		header.Timestamp = uint64(time.Now().Unix())
	}
}

func fingerprintsOf(txs []*tx.Transaction) []types.Hash {
	out := make([]types.Hash, len(txs))
	for i, t := range txs {
		out[i] = t.Fingerprint()
	}
	return out
}
