// Package chain implements the blockchain state engine: a hash-keyed DAG
// of blocks, cumulative-difficulty fork choice, and the account ledger
// that fork choice keeps in sync with the current tip.
package chain

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/internal/ledger"
	"github.com/accountchain/node/internal/metrics"
	"github.com/accountchain/node/pkg/block"
	"github.com/accountchain/node/pkg/types"
)

// Block acceptance errors.
var (
	ErrInvalidBlock  = errors.New("block failed structural validation")
	ErrUnknownParent = errors.New("block's parent is not known to the chain")
	ErrPoWNotMet     = errors.New("block digest exceeds the required difficulty")
	ErrBlockKnown    = errors.New("block already known")
)

// maxDifficulty is the ceiling a retarget may widen current_difficulty to:
// the largest value a 256-bit digest can take, i.e. U256::MAX.
var maxDifficulty = func() types.UInt {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	u, err := types.UIntFromBigInt(max)
	if err != nil {
		panic("chain: computing maxDifficulty: " + err.Error())
	}
	return u
}()

// Chain is the hash-DAG state engine. blocks/parentOf/minerOf/cumDifficulty
// are kept as flat maps keyed by header digest rather than as a tree of
// owned child pointers, so that reorg and snapshotting never need to copy
// or re-link the graph — only the tip pointer and the ledger move.
type Chain struct {
	mu sync.Mutex

	blocks        map[types.Hash]*block.Block
	parentOf      map[types.Hash]types.Hash
	minerOf       map[types.Hash]types.PubKey
	cumDifficulty map[types.Hash]types.UInt

	tip               types.Hash
	currentDifficulty types.UInt

	ledger *ledger.Ledger

	targetBlockInterval               uint64
	maxTransactionsPerBlock           int
	miningReward                      types.UInt
	blocksBetweenDifficultyAdjustment uint64 // accepted, not consulted by retarget; see retarget.go
}

// New creates an empty chain seeded from gen's consensus parameters. The
// chain starts with no blocks; tip is the empty-string sentinel meaning
// "before genesis".
func New(gen *config.Genesis) *Chain {
	return &Chain{
		blocks:        make(map[types.Hash]*block.Block),
		parentOf:      map[types.Hash]types.Hash{"": ""},
		minerOf:       make(map[types.Hash]types.PubKey),
		cumDifficulty: map[types.Hash]types.UInt{"": types.Zero},

		tip:               "",
		currentDifficulty: gen.Params.InitialDifficulty,

		ledger: ledger.New(),

		targetBlockInterval:               gen.Params.TargetBlockInterval,
		maxTransactionsPerBlock:           gen.Params.MaxTransactionsPerBlock,
		miningReward:                      gen.Params.MiningReward,
		blocksBetweenDifficultyAdjustment: gen.Params.BlocksBetweenDifficultyAdjustment,
	}
}

// CreditGenesis mints amount into pk's account outside of block application,
// for the initial allocation a genesis configuration describes. It must be
// called before any block referencing pk is accepted.
func (c *Chain) CreditGenesis(pk types.PubKey, amount types.UInt) {
	c.ledger.Credit(pk, amount)
}

// Tip returns the digest of the current best block, or "" before genesis.
func (c *Chain) Tip() types.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip
}

// CurrentDifficulty returns the target the next block must be mined against.
func (c *Chain) CurrentDifficulty() types.UInt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDifficulty
}

// Block returns the block stored under h, if known.
func (c *Chain) Block(h types.Hash) (*block.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	blk, ok := c.blocks[h]
	return blk, ok
}

// MinerOf returns the public key credited with mining h, if known.
func (c *Chain) MinerOf(h types.Hash) (types.PubKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pk, ok := c.minerOf[h]
	return pk, ok
}

// CumulativeDifficulty returns the cumulative difficulty along the path to
// h, if h is known (or the empty-parent seed of 0 for h == "").
func (c *Chain) CumulativeDifficulty(h types.Hash) (types.UInt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.cumDifficulty[h]
	return d, ok
}

// Account returns pk's current balance and nonce under the active tip.
func (c *Chain) Account(pk types.PubKey) ledger.Account {
	return c.ledger.Account(pk)
}

// Ledger returns the account ledger backing this chain, so a mempool can
// be constructed to admit transactions against the same account state
// the chain's fork choice keeps current. The mempool and chain share one
// ledger instance rather than each keeping a copy in sync.
func (c *Chain) Ledger() *ledger.Ledger {
	return c.ledger
}

// MaxTransactionsPerBlock is the per-block transaction cap from genesis.
func (c *Chain) MaxTransactionsPerBlock() int {
	return c.maxTransactionsPerBlock
}

// MiningReward is the coinbase credited to a block's miner.
func (c *Chain) MiningReward() types.UInt {
	return c.miningReward
}

// TargetBlockInterval is the number of seconds a block is meant to take.
func (c *Chain) TargetBlockInterval() uint64 {
	return c.targetBlockInterval
}

// Height walks parentOf from h back to the empty-parent sentinel and
// returns the number of blocks on that path, so callers that need a
// block count (RPC status, metrics) don't have to maintain their own
// index. h == "" (before genesis) reports height 0. The walk is O(chain
// length); callers on a hot path should cache the result themselves.
func (c *Chain) Height(h types.Hash) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h != "" {
		if _, ok := c.blocks[h]; !ok {
			return 0, false
		}
	}

	var height uint64
	for cur := h; cur != ""; {
		parent, ok := c.parentOf[cur]
		if !ok {
			return 0, false
		}
		height++
		cur = parent
	}
	return height, true
}

// AddBlock runs the five-step acceptance algorithm: structural validation
// (with the engine stamping the accepted difficulty onto the header),
// proof-of-work verification, insertion into the DAG, fork choice
// (extend / reorg / side branch), and difficulty retarget. It reports
// whether the block was accepted into the DAG at all — a side branch
// still returns true, since it is stored even though it does not become
// the tip.
func (c *Chain) AddBlock(blk *block.Block, minerPK types.PubKey) (bool, error) {
	if blk == nil || blk.Header == nil {
		return false, fmt.Errorf("%w: nil block or header", ErrInvalidBlock)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 1: structural validation. block.Validate recomputes and checks
	// the Merkle root and validates every transaction's own shape and
	// signature; it does not know about chain state.
	if err := blk.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}

	prevHash := blk.Header.PrevHash
	if prevHash != "" {
		if _, known := c.blocks[prevHash]; !known {
			return false, fmt.Errorf("%w: %s", ErrUnknownParent, prevHash)
		}
	}

	// The engine, not the miner, has final say over the difficulty a
	// block is judged against: stamp the target that was current when
	// the block arrived. Difficulty is excluded from the header digest
	// (see block.Header.Hash), so this never changes the block's hash.
	blk.Header.Difficulty = c.currentDifficulty
	hash := blk.Hash()

	if _, exists := c.blocks[hash]; exists {
		return false, ErrBlockKnown
	}

	// Step 2: proof-of-work check. A genesis successor (prev_hash == "")
	// is exempt, allowing a trivial first block onto an empty chain.
	if prevHash != "" {
		digest, err := hash.BigInt()
		if err != nil {
			return false, fmt.Errorf("parse header digest: %w", err)
		}
		if digest.Cmp(c.currentDifficulty.BigInt()) > 0 {
			return false, fmt.Errorf("%w: digest=%s target=%s", ErrPoWNotMet, hash, c.currentDifficulty)
		}
	}

	// Step 3: insert into the DAG and compute cumulative difficulty.
	c.blocks[hash] = blk
	c.parentOf[hash] = prevHash
	c.minerOf[hash] = minerPK
	c.cumDifficulty[hash] = c.cumDifficulty[prevHash].Add(blk.Header.Difficulty)

	rollbackInsert := func() {
		delete(c.blocks, hash)
		delete(c.parentOf, hash)
		delete(c.minerOf, hash)
		delete(c.cumDifficulty, hash)
	}

	// Step 4: fork choice.
	switch {
	case prevHash == c.tip:
		if err := c.ledger.Apply(blk, minerPK, c.miningReward); err != nil {
			rollbackInsert()
			metrics.BlocksReceived.WithLabelValues("rejected").Inc()
			return false, fmt.Errorf("apply block: %w", err)
		}
		c.tip = hash
		metrics.BlocksReceived.WithLabelValues("extend").Inc()

	case c.cumDifficulty[hash].Cmp(c.cumDifficulty[c.tip]) > 0:
		if err := c.reorgTo(hash); err != nil {
			rollbackInsert()
			metrics.BlocksReceived.WithLabelValues("rejected").Inc()
			return false, fmt.Errorf("reorg to %s: %w", hash, err)
		}
		c.tip = hash
		metrics.BlocksReceived.WithLabelValues("reorg").Inc()

	default:
		// Side branch: stored for a later reorg, ledger and tip untouched.
		metrics.BlocksReceived.WithLabelValues("side_branch").Inc()
	}

	metrics.CumulativeDifficulty.Set(cumDifficultyFloat(c.cumDifficulty[c.tip]))

	// Step 5: difficulty retarget, applied on every accepted block
	// regardless of fork-choice outcome, whenever the parent is a known
	// block (the genesis successor has nothing to diff its timestamp
	// against). blocksBetweenDifficultyAdjustment is stored but not
	// consulted here; see retarget.go.
	if prevHash != "" {
		c.retarget(blk.Header.Timestamp, c.blocks[prevHash].Header.Timestamp)
	}
	metrics.CurrentDifficulty.Set(cumDifficultyFloat(c.currentDifficulty))

	return true, nil
}

// cumDifficultyFloat converts a UInt to a float64 for gauge reporting.
// Difficulty and cumulative difficulty can exceed float64's exact integer
// range at high block counts; the gauge is an observability approximation,
// never consulted for consensus decisions.
func cumDifficultyFloat(u types.UInt) float64 {
	f := new(big.Float).SetInt(u.BigInt())
	v, _ := f.Float64()
	return v
}
