// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: defined in genesis, immutable, must match across all nodes
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

// Config holds node-specific runtime configuration. These settings can
// vary between nodes without breaking consensus — the consensus-
// critical rules live in Genesis instead.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// P2P networking
	P2P P2PConfig

	// RPC server
	RPC RPCConfig

	// Wallet (miner identity)
	Wallet WalletConfig

	// Mining
	Mining MiningConfig

	// Logging
	Log LogConfig

	// Maintenance (not persisted in config file)
	RebuildIndexes bool
}

// P2PConfig holds peer-to-peer network settings.
type P2PConfig struct {
	Enabled    bool     `conf:"p2p.enabled"`
	ListenAddr string   `conf:"p2p.listen"`
	ListenPort int      `conf:"p2p.port"`
	Seeds      []string `conf:"p2p.seeds"` // BootstrapPeers — dialed at startup
	MaxPeers   int      `conf:"p2p.maxpeers"`
	NoDiscover bool     `conf:"p2p.nodiscover"`
}

// RPCConfig holds JSON-RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// WalletConfig holds the local miner-identity wallet settings.
type WalletConfig struct {
	Enabled  bool   `conf:"wallet.enabled"`
	FilePath string `conf:"wallet.file"`
}

// MiningConfig holds block production settings.
type MiningConfig struct {
	Enabled          bool    `conf:"mining.enabled"`
	AI3Enabled       bool    `conf:"mining.ai3"` // allow the tensor-PoW path alongside classical
	Coinbase         string  `conf:"mining.coinbase"`
	BaselineHashRate float64 `conf:"mining.baseline_hashrate"` // denominator for optimization_factor
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
//	Linux:   ~/.tribechain
//	macOS:   ~/Library/Application Support/TribeChain
//	Windows: %APPDATA%\TribeChain
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tribechain"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "TribeChain")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "TribeChain")
		}
		return filepath.Join(home, "AppData", "Roaming", "TribeChain")
	default:
		return filepath.Join(home, ".tribechain")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the byte-store directory handed to internal/storage.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.ChainDataDir(), "ledger")
}

// WalletDir returns the wallet storage directory.
func (c *Config) WalletDir() string {
	return filepath.Join(c.ChainDataDir(), "wallet")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "tribechain.conf")
}
