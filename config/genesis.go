package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/types"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes or consensus breaks.
// =============================================================================

// DifficultyRetargetStep is the fixed amount the difficulty target moves by
// at each retarget, up or down. There is no proportional retarget curve:
// on every accepted block whose parent is known, difficulty either climbs
// or falls by this same step, or stays put when the block time is within
// BlockTimeToleranceSeconds of the target interval.
const DifficultyRetargetStep = 60_000

// BlockTimeToleranceSeconds is the +/- band around TargetBlockInterval
// within which the last block's mining time is considered on-target and
// does not move the difficulty at all.
const BlockTimeToleranceSeconds = 2

// Genesis holds the genesis block configuration and protocol parameters.
// This is immutable after chain launch — changes require a hard fork.
type Genesis struct {
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	Params Params `json:"params"`
}

// Params holds the consensus-critical proof-of-work parameters. All nodes
// on a chain must agree on these values.
type Params struct {
	// InitialDifficulty is the difficulty target new chains start at.
	InitialDifficulty types.UInt `json:"initial_difficulty"`

	// TargetBlockInterval is the number of seconds a block is meant to
	// take to mine.
	TargetBlockInterval uint64 `json:"target_block_interval"`

	// MaxTransactionsPerBlock caps how many transactions a miner may
	// include in a single block.
	MaxTransactionsPerBlock int `json:"max_transactions_per_block"`

	// BlocksBetweenDifficultyAdjustment is carried in genesis and stored
	// on the chain, but the retarget does not consult it: the difficulty
	// moves by DifficultyRetargetStep after every accepted block, based
	// on how long that block took.
	BlocksBetweenDifficultyAdjustment uint64 `json:"blocks_between_difficulty_adjustment"`

	// MiningReward is the amount credited to a miner's account for each
	// block it mines, in base units.
	MiningReward types.UInt `json:"mining_reward"`
}

// MaxBlockTxs mirrors Params.MaxTransactionsPerBlock for code that
// validates block structure without chain context (pkg/block.Validate).
// It is a package-level default used until a chain's own genesis params
// are wired in; callers that have a *Params should prefer that value.
const MaxBlockTxs = 500

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "accountchain-mainnet-1",
		ChainName: "Accountchain Mainnet",
		Timestamp: 1770734103, // 2026-02-10
		ExtraData: "Accountchain Genesis",
		Params: Params{
			InitialDifficulty:                 types.NewUInt(4),
			TargetBlockInterval:                10,
			MaxTransactionsPerBlock:            MaxBlockTxs,
			BlocksBetweenDifficultyAdjustment:  10,
			MiningReward:                       types.NewUInt(50),
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration: a 5-second
// target block interval (mainnet: 10) and an initial difficulty target of
// 1 (mainnet: 4). A digest must not exceed the target, so testnet's
// smaller starting target is the stricter of the two.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "accountchain-testnet-1"
	g.ChainName = "Accountchain Testnet"
	g.ExtraData = "Accountchain Testnet Genesis"
	g.Params.InitialDifficulty = types.NewUInt(1)
	g.Params.TargetBlockInterval = 5
	g.Params.BlocksBetweenDifficultyAdjustment = 5
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is well-formed.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if g.Params.InitialDifficulty.IsZero() {
		return fmt.Errorf("initial_difficulty must be positive")
	}
	if g.Params.TargetBlockInterval == 0 {
		return fmt.Errorf("target_block_interval must be positive")
	}
	if g.Params.MaxTransactionsPerBlock <= 0 {
		return fmt.Errorf("max_transactions_per_block must be positive")
	}
	if g.Params.BlocksBetweenDifficultyAdjustment == 0 {
		return fmt.Errorf("blocks_between_difficulty_adjustment must be positive")
	}
	return nil
}

// Hash returns a digest of the genesis configuration, used to identify the
// chain and detect genesis mismatches between peers.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return crypto.Hash(data), nil
}
