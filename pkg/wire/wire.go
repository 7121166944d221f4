// Package wire provides the JSON envelope used to carry transactions
// and blocks over the network: internal/p2p's gossip topics and
// cmd/tribenoded's handlers exchange these bytes, not Go values, so
// tx.Transaction's and block.Block's interface-typed fields (tx.Kind,
// block.AI3Proof) need an explicit, round-trippable shape the same
// way internal/ledger's own (unexported) storage encoding does.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

type kindEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type txEnvelope struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Kind      kindEnvelope `json:"kind"`
	Fee       uint64       `json:"fee"`
	Timestamp uint64       `json:"timestamp"`
	Nonce     uint64       `json:"nonce"`
	Hash      types.Hash   `json:"hash"`
}

type proofEnvelope struct {
	TaskID             string     `json:"task_id"`
	OptimizationFactor float32    `json:"optimization_factor"`
	TensorHash         types.Hash `json:"tensor_hash"`
	ComputationTimeMs  uint64     `json:"computation_time_ms"`
	MinerSignature     []byte     `json:"miner_signature,omitempty"`
}

type blockEnvelope struct {
	Index        uint64         `json:"index"`
	Timestamp    uint64         `json:"timestamp"`
	PreviousHash types.Hash     `json:"previous_hash"`
	Nonce        uint64         `json:"nonce"`
	Difficulty   uint64         `json:"difficulty"`
	Transactions []txEnvelope   `json:"transactions"`
	Miner        string         `json:"miner"`
	MerkleRoot   types.Hash     `json:"merkle_root"`
	AI3Proof     *proofEnvelope `json:"ai3_proof,omitempty"`
	Hash         types.Hash     `json:"hash"`
}

func kindToEnvelope(k tx.Kind) (kindEnvelope, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return kindEnvelope{}, fmt.Errorf("wire: encode kind: %w", err)
	}
	return kindEnvelope{Type: k.Tag(), Data: data}, nil
}

func kindFromEnvelope(e kindEnvelope) (tx.Kind, error) {
	switch e.Type {
	case (tx.Transfer{}).Tag():
		var k tx.Transfer
		return k, json.Unmarshal(e.Data, &k)
	case (tx.TokenCreate{}).Tag():
		var k tx.TokenCreate
		return k, json.Unmarshal(e.Data, &k)
	case (tx.TokenTransfer{}).Tag():
		var k tx.TokenTransfer
		return k, json.Unmarshal(e.Data, &k)
	case (tx.Stake{}).Tag():
		var k tx.Stake
		return k, json.Unmarshal(e.Data, &k)
	case (tx.TensorCompute{}).Tag():
		var k tx.TensorCompute
		return k, json.Unmarshal(e.Data, &k)
	case (tx.ContractDeploy{}).Tag():
		var k tx.ContractDeploy
		return k, json.Unmarshal(e.Data, &k)
	case (tx.ContractCall{}).Tag():
		var k tx.ContractCall
		return k, json.Unmarshal(e.Data, &k)
	default:
		return nil, fmt.Errorf("wire: unknown transaction kind tag %q", e.Type)
	}
}

func txToEnvelope(t tx.Transaction) (txEnvelope, error) {
	ke, err := kindToEnvelope(t.Kind)
	if err != nil {
		return txEnvelope{}, err
	}
	return txEnvelope{
		ID:        t.ID,
		From:      t.From.String(),
		Kind:      ke,
		Fee:       uint64(t.Fee),
		Timestamp: t.Timestamp,
		Nonce:     t.Nonce,
		Hash:      t.Hash,
	}, nil
}

func txFromEnvelope(e txEnvelope) (tx.Transaction, error) {
	from, err := types.ParseAddress(e.From)
	if err != nil {
		return tx.Transaction{}, fmt.Errorf("wire: decode tx: %w", err)
	}
	kind, err := kindFromEnvelope(e.Kind)
	if err != nil {
		return tx.Transaction{}, fmt.Errorf("wire: decode tx: %w", err)
	}
	return tx.Transaction{
		ID:        e.ID,
		From:      from,
		Kind:      kind,
		Fee:       types.Amount(e.Fee),
		Timestamp: e.Timestamp,
		Nonce:     e.Nonce,
		Hash:      e.Hash,
	}, nil
}

func proofToEnvelope(p *block.AI3Proof) *proofEnvelope {
	if p == nil {
		return nil
	}
	return &proofEnvelope{
		TaskID:             p.TaskID,
		OptimizationFactor: p.OptimizationFactor,
		TensorHash:         p.TensorHash,
		ComputationTimeMs:  p.ComputationTimeMs,
		MinerSignature:     p.MinerSignature,
	}
}

func proofFromEnvelope(e *proofEnvelope) *block.AI3Proof {
	if e == nil {
		return nil
	}
	return &block.AI3Proof{
		TaskID:             e.TaskID,
		OptimizationFactor: e.OptimizationFactor,
		TensorHash:         e.TensorHash,
		ComputationTimeMs:  e.ComputationTimeMs,
		MinerSignature:     e.MinerSignature,
	}
}

// EncodeTransaction produces the gossip-wire bytes for t.
func EncodeTransaction(t tx.Transaction) ([]byte, error) {
	e, err := txToEnvelope(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// DecodeTransaction parses gossip-wire bytes produced by EncodeTransaction.
func DecodeTransaction(data []byte) (tx.Transaction, error) {
	var e txEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return tx.Transaction{}, fmt.Errorf("wire: decode tx: %w", err)
	}
	return txFromEnvelope(e)
}

// EncodeBlock produces the gossip-wire bytes for b.
func EncodeBlock(b block.Block) ([]byte, error) {
	txs := make([]txEnvelope, len(b.Transactions))
	for i, t := range b.Transactions {
		te, err := txToEnvelope(t)
		if err != nil {
			return nil, err
		}
		txs[i] = te
	}
	e := blockEnvelope{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
		Transactions: txs,
		Miner:        b.Miner.String(),
		MerkleRoot:   b.MerkleRoot,
		AI3Proof:     proofToEnvelope(b.AI3Proof),
		Hash:         b.Hash,
	}
	return json.Marshal(e)
}

// DecodeBlock parses gossip-wire bytes produced by EncodeBlock.
func DecodeBlock(data []byte) (block.Block, error) {
	var e blockEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return block.Block{}, fmt.Errorf("wire: decode block: %w", err)
	}
	miner, err := types.ParseAddress(e.Miner)
	if err != nil {
		return block.Block{}, fmt.Errorf("wire: decode block: %w", err)
	}
	txs := make([]tx.Transaction, len(e.Transactions))
	for i, te := range e.Transactions {
		t, err := txFromEnvelope(te)
		if err != nil {
			return block.Block{}, err
		}
		txs[i] = t
	}
	return block.Block{
		Index:        e.Index,
		Timestamp:    e.Timestamp,
		PreviousHash: e.PreviousHash,
		Nonce:        e.Nonce,
		Difficulty:   e.Difficulty,
		Transactions: txs,
		Miner:        miner,
		MerkleRoot:   e.MerkleRoot,
		AI3Proof:     proofFromEnvelope(e.AI3Proof),
		Hash:         e.Hash,
	}, nil
}
