package config

// DefaultMainnet returns the default node configuration for mainnet,
// per spec.md §6's config surface defaults.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		P2P: P2PConfig{
			Enabled:    true,
			ListenAddr: "0.0.0.0",
			ListenPort: 8333,
			MaxPeers:   50,
			Seeds:      []string{},
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8334,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Wallet: WalletConfig{
			Enabled: false,
		},
		Mining: MiningConfig{
			Enabled:          false,
			AI3Enabled:       false,
			BaselineHashRate: 1,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default node configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.P2P.ListenPort = 18333
	cfg.RPC.Port = 18334
	return cfg
}

// Default returns the default node configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
