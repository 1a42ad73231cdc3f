package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.P2P.ListenAddress == "" {
		return fmt.Errorf("p2p.listen must not be empty")
	}
	if cfg.P2P.BootnodeAddress != "" && cfg.P2P.BootnodeID == "" {
		return fmt.Errorf("p2p.bootnode_address requires p2p.bootnode_id")
	}
	if cfg.P2P.BootnodeID != "" && cfg.P2P.BootnodeAddress == "" {
		return fmt.Errorf("p2p.bootnode_id requires p2p.bootnode_address")
	}
	return nil
}
