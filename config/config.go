// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol parameters: defined in genesis, immutable, must match across all nodes
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration. These settings can vary
// between nodes without breaking consensus.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// P2P networking
	P2P P2PConfig

	// RPC server
	RPC RPCConfig

	// Mining (operational, not a consensus rule)
	Mining MiningConfig

	// Logging
	Log LogConfig
}

// P2PConfig holds peer-to-peer network settings.
type P2PConfig struct {
	// Bootnode marks this node as a network entry point: it accepts
	// inbound connections from peers that have no prior address book and
	// answers their snapshot requests.
	Bootnode bool `conf:"p2p.bootnode"`

	// Sync, when true, makes the node request a chain snapshot from its
	// peers on startup instead of starting from genesis alone.
	Sync bool `conf:"p2p.sync"`

	// ListenAddress is the multiaddr this node's libp2p host listens on.
	ListenAddress string `conf:"p2p.listen"`

	// Peers are multiaddrs of peers to dial on startup, in addition to
	// any found through the DHT.
	Peers []string `conf:"p2p.peers"`

	// SecretKeySeed is read from --secret-key-seed, the config file, or
	// BOOTSTRAP_NODE_KEYS and kept here; the node does not use it. The
	// libp2p identity is loaded from <datadir>/node.key, which is
	// generated on first start, so the peer ID depends on the data
	// directory, not on this seed.
	SecretKeySeed string `conf:"p2p.secret_key_seed"`

	// BootnodeAddress and BootnodeID identify a specific bootnode. When
	// both are set, the node dials <BootnodeAddress>/p2p/<BootnodeID> on
	// startup alongside Peers.
	BootnodeAddress string `conf:"p2p.bootnode_address"`
	BootnodeID      string `conf:"p2p.bootnode_id"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled    bool     `conf:"rpc.enabled"`
	Addr       string   `conf:"rpc.addr"`
	Port       int      `conf:"rpc.port"`
	AllowedIPs []string `conf:"rpc.allowed"`
}

// MiningConfig holds block production settings.
type MiningConfig struct {
	Enabled bool   `conf:"mining.enabled"`
	Reward  string `conf:"mining.reward_pubkey"` // hex compressed pubkey to credit block rewards to
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.accountchain
//	macOS:   ~/Library/Application Support/Accountchain
//	Windows: %APPDATA%\Accountchain
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".accountchain"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Accountchain")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Accountchain")
		}
		return filepath.Join(home, "AppData", "Roaming", "Accountchain")
	default:
		return filepath.Join(home, ".accountchain")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "accountchain.conf")
}
