package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tribechain/tribechain/internal/difficulty"
	"github.com/tribechain/tribechain/internal/ledger"
)

// =============================================================================
// Protocol Rules (immutable, defined in genesis)
// These MUST match across all nodes or consensus breaks.
// =============================================================================

// Consensus type constants, per spec.md §6's config surface table.
const (
	ConsensusClassicalPoW = "classical_pow"
	ConsensusTensorPoW    = "tensor_pow" // reserved: tensor-only chains
)

// Denomination constants. All on-chain values are in base units
// (1 TRIBE = 10^6 base units); Unit is the atomic balance increment.
const Unit = 1

// Genesis holds the genesis block configuration and protocol rules.
// This is immutable after chain launch — changes require a hard fork.
// The genesis balance allocation itself (the single "genesis" address
// credited with ledger.GenesisBalance, spec.md §3) is a core invariant
// and not configurable here; Genesis only carries the rules that vary
// the ambient config surface names: consensus type and difficulty
// algorithm choice.
type Genesis struct {
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`
	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	Protocol ProtocolConfig `json:"protocol"`
}

// ProtocolConfig holds consensus-critical rules. All nodes MUST agree
// on these values.
type ProtocolConfig struct {
	Consensus ConsensusRules `json:"consensus"`
}

// ConsensusRules defines how blocks are produced and validated.
type ConsensusRules struct {
	// Type: "classical_pow" or "tensor_pow" (reserved). AI3Enabled in
	// MiningConfig augments classical_pow with the tensor path; it
	// does not require Type to be tensor_pow.
	Type string `json:"type"`

	// DifficultyAlgorithm: one of difficulty.AI3Adaptive (default),
	// difficulty.BitcoinLike, difficulty.EthereumLike.
	DifficultyAlgorithm string `json:"difficulty_algorithm"`
}

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "tribechain-mainnet-1",
		ChainName: "TribeChain Mainnet",
		Timestamp: 1785369600, // 2026-07-30
		ExtraData: "TribeChain Genesis",
		Protocol: ProtocolConfig{
			Consensus: ConsensusRules{
				Type:                ConsensusClassicalPoW,
				DifficultyAlgorithm: string(difficulty.AI3Adaptive),
			},
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "tribechain-testnet-1"
	g.ChainName = "TribeChain Testnet"
	g.ExtraData = "TribeChain Testnet Genesis"
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

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	switch g.Protocol.Consensus.Type {
	case ConsensusClassicalPoW, ConsensusTensorPoW:
	default:
		return fmt.Errorf("unknown consensus type: %s", g.Protocol.Consensus.Type)
	}

	switch difficulty.Algorithm(g.Protocol.Consensus.DifficultyAlgorithm) {
	case difficulty.AI3Adaptive, difficulty.BitcoinLike, difficulty.EthereumLike:
	default:
		return fmt.Errorf("unknown difficulty_algorithm: %s", g.Protocol.Consensus.DifficultyAlgorithm)
	}

	return nil
}

// GenesisAddress and GenesisBalance re-export the ledger's hardcoded
// genesis allocation for callers that only import config.
const (
	GenesisAddress = ledger.GenesisAddress
	GenesisBalance = ledger.GenesisBalance
)
