package config

import (
	"testing"

	"github.com/tribechain/tribechain/internal/difficulty"
)

func TestMainnetGenesis_Valid(t *testing.T) {
	g := MainnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("mainnet genesis should be valid: %v", err)
	}
	if g.Protocol.Consensus.Type != ConsensusClassicalPoW {
		t.Errorf("mainnet consensus type = %q, want %q", g.Protocol.Consensus.Type, ConsensusClassicalPoW)
	}
	if g.Protocol.Consensus.DifficultyAlgorithm != string(difficulty.AI3Adaptive) {
		t.Errorf("mainnet difficulty algorithm = %q, want %q", g.Protocol.Consensus.DifficultyAlgorithm, difficulty.AI3Adaptive)
	}
}

func TestTestnetGenesis_Valid(t *testing.T) {
	g := TestnetGenesis()
	if err := g.Validate(); err != nil {
		t.Errorf("testnet genesis should be valid: %v", err)
	}
	if g.ChainID == MainnetGenesis().ChainID {
		t.Errorf("testnet chain_id should differ from mainnet")
	}
}

func TestGenesis_Validate_RejectsUnknownConsensusType(t *testing.T) {
	g := MainnetGenesis()
	g.Protocol.Consensus.Type = "proof_of_stake"
	if err := g.Validate(); err == nil {
		t.Fatal("expected validation error for unknown consensus type")
	}
}

func TestGenesis_Validate_RejectsUnknownDifficultyAlgorithm(t *testing.T) {
	g := MainnetGenesis()
	g.Protocol.Consensus.DifficultyAlgorithm = "proportional"
	if err := g.Validate(); err == nil {
		t.Fatal("expected validation error for unknown difficulty_algorithm")
	}
}

func TestGenesis_Validate_RequiresChainID(t *testing.T) {
	g := MainnetGenesis()
	g.ChainID = ""
	if err := g.Validate(); err == nil {
		t.Fatal("expected validation error for empty chain_id")
	}
}
