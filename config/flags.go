package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// P2P
	Bootnode        bool
	Sync            bool
	ListenAddress   string
	Peers           string
	SecretKeySeed   string
	BootnodeAddress string
	BootnodeID      string

	// RPC
	RPC        bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed string

	// Mining (operational only)
	Mine   bool
	Reward string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetBootnode bool
	SetSync     bool
	SetRPC      bool
	SetMine     bool
	SetLogJSON  bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("accountchaind", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	testnet := fs.Bool("testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// P2P
	fs.BoolVar(&f.Bootnode, "bootnode", false, "Run as a bootnode, accepting inbound peers with no address book")
	fs.BoolVar(&f.Sync, "sync", false, "Request a chain snapshot from peers on startup")
	fs.StringVar(&f.ListenAddress, "listen-address", "", "libp2p listen multiaddr")
	fs.StringVar(&f.Peers, "peer", "", "Peer multiaddr to dial on startup (comma-separated for multiple)")
	fs.StringVar(&f.SecretKeySeed, "secret-key-seed", "", "Identity seed, stored in the config only (the libp2p identity comes from <datadir>/node.key)")
	fs.StringVar(&f.BootnodeAddress, "bootnode-address", "", "Multiaddr of a specific bootnode to dial")
	fs.StringVar(&f.BootnodeID, "bootnode-id", "", "Peer ID of the bootnode named by --bootnode-address")

	// RPC
	fs.BoolVar(&f.RPC, "rpc", true, "Enable RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed IPs for RPC")

	// Mining
	fs.BoolVar(&f.Mine, "mine", false, "Enable block production")
	fs.StringVar(&f.Reward, "reward-pubkey", "", "Hex compressed public key to receive block rewards")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if *testnet {
		f.Network = "testnet"
	}
	f.SetBootnode = isFlagSet(fs, "bootnode")
	f.SetSync = isFlagSet(fs, "sync")
	f.SetRPC = isFlagSet(fs, "rpc")
	f.SetMine = isFlagSet(fs, "mine")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			fmt.Fprintf(os.Stderr, "Hint: --bootnode is a boolean flag. Use --bootnode (not --bootnode <name>)\n")
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies environment variables, then command-line flags, to a
// Config struct. Flags take precedence over environment variables, which
// take precedence over the config file and defaults.
func ApplyFlags(cfg *Config, f *Flags) {
	applyEnv(cfg)

	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// P2P
	if f.SetBootnode {
		cfg.P2P.Bootnode = f.Bootnode
	}
	if f.SetSync {
		cfg.P2P.Sync = f.Sync
	}
	if f.ListenAddress != "" {
		cfg.P2P.ListenAddress = f.ListenAddress
	}
	if f.Peers != "" {
		cfg.P2P.Peers = parseStringList(f.Peers)
	}
	if f.SecretKeySeed != "" {
		cfg.P2P.SecretKeySeed = f.SecretKeySeed
	}
	if f.BootnodeAddress != "" {
		cfg.P2P.BootnodeAddress = f.BootnodeAddress
	}
	if f.BootnodeID != "" {
		cfg.P2P.BootnodeID = f.BootnodeID
	}

	// RPC
	if f.SetRPC {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}

	// Mining
	if f.SetMine {
		cfg.Mining.Enabled = f.Mine
	}
	if f.Reward != "" {
		cfg.Mining.Reward = f.Reward
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// applyEnv overlays the environment variables the node also accepts, for
// deployments that set peer addresses and bootnode keys through the
// process environment rather than flags. BOOTSTRAP_NODE_KEYS is a
// comma-separated list whose first entry is stored as P2P.SecretKeySeed
// when none is set yet; SERVER_ADDR and P2P_SERVER_ADDR set the RPC and
// P2P listen addresses respectively. ApplyFlags runs it before the flag
// overrides, so an explicitly set flag still wins.
func applyEnv(cfg *Config) {
	if keys := os.Getenv("BOOTSTRAP_NODE_KEYS"); keys != "" && cfg.P2P.SecretKeySeed == "" {
		if first := strings.SplitN(keys, ",", 2)[0]; first != "" {
			cfg.P2P.SecretKeySeed = first
		}
	}
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.RPC.Addr = addr
	}
	if addr := os.Getenv("P2P_SERVER_ADDR"); addr != "" {
		cfg.P2P.ListenAddress = addr
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Accountchain - account-model proof-of-work blockchain node

Usage:
  accountchaind [options]
  accountchaind --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network         Network type: mainnet (default) or testnet
  --testnet         Shorthand for --network=testnet
  --datadir         Data directory (default: ~/.accountchain)
  --config, -c      Config file path (default: <datadir>/accountchain.conf)

P2P Options:
  --bootnode          Run as a bootnode, accepting inbound peers with no address book
  --sync              Request a chain snapshot from peers on startup
  --listen-address    libp2p listen multiaddr
  --peer              Peer multiaddr to dial on startup (comma-separated for multiple)
  --secret-key-seed   Identity seed, stored in the config only (identity: <datadir>/node.key)
  --bootnode-address  Multiaddr of a specific bootnode to dial
  --bootnode-id       Peer ID of the bootnode named by --bootnode-address

RPC Options:
  --rpc           Enable RPC server (default: true)
  --rpc-addr      RPC listen address (default: 127.0.0.1)
  --rpc-port      RPC port (mainnet: 8545, testnet: 8645)
  --rpc-allowed   Allowed IPs for RPC (comma-separated)

Mining Options:
  --mine            Enable block production
  --reward-pubkey   Hex compressed public key to receive block rewards

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: <datadir>/logs/accountchain.log)
  --log-json      Output logs as JSON

Environment:
  BOOTSTRAP_NODE_KEYS   Comma-separated identity seeds (first stored as --secret-key-seed)
  SERVER_ADDR           RPC listen address
  P2P_SERVER_ADDR       P2P listen multiaddr

Examples:
  # Start mainnet node
  accountchaind

  # Start a bootnode with a stable identity
  accountchaind --bootnode --secret-key-seed=1 --listen-address=/ip4/0.0.0.0/tcp/30303

  # Join an existing network and sync from a bootnode
  accountchaind --sync --bootnode-address=/ip4/203.0.113.1/tcp/30303 --bootnode-id=12D3KooW...

  # Mine blocks, crediting a reward public key
  accountchaind --mine --reward-pubkey=02abcd...

Note:
  Protocol parameters (difficulty, block interval, reward) are hardcoded in
  the genesis configuration and cannot be changed at runtime. The data
  directory is created automatically on first start.
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags and environment variables
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("accountchaind version 0.1.0")
		os.Exit(0)
	}

	network := Mainnet
	if strings.ToLower(flags.Network) == "testnet" {
		network = Testnet
	}

	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. This is idempotent, safe to call on
// every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.ChainDataDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
