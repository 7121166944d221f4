package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
// ai3_enabled=true alongside a classical_pow genesis is allowed — AI3
// augments PoW, it does not replace it (spec.md §4.H: a miner chooses
// per-block between the classical and tensor sealing path).
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.P2P.ListenPort < 0 || cfg.P2P.ListenPort > 65535 {
		return fmt.Errorf("p2p.port must be in range [0, 65535]")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.P2P.MaxPeers < 0 {
		return fmt.Errorf("p2p.maxpeers must not be negative")
	}
	if cfg.Mining.Enabled && cfg.Mining.Coinbase == "" {
		return fmt.Errorf("mining.enabled requires mining.coinbase")
	}
	if cfg.Mining.BaselineHashRate < 0 {
		return fmt.Errorf("mining.baseline_hashrate must not be negative")
	}
	return nil
}
