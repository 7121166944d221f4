package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// wireProof/wireTx/wireBlock/wireTask are the JSON-serializable
// mirrors of the pkg/block, pkg/tx, pkg/task value types, needed
// because those types carry interface fields (tx.Kind) that
// encoding/json cannot round-trip without an explicit envelope.

type wireProof struct {
	TaskID             string     `json:"task_id"`
	OptimizationFactor float32    `json:"optimization_factor"`
	TensorHash         types.Hash `json:"tensor_hash"`
	ComputationTimeMs  uint64     `json:"computation_time_ms"`
	MinerSignature     []byte     `json:"miner_signature,omitempty"`
}

type wireKind struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireTx struct {
	ID        string     `json:"id"`
	From      string     `json:"from"`
	Kind      wireKind   `json:"kind"`
	Fee       uint64     `json:"fee"`
	Timestamp uint64     `json:"timestamp"`
	Nonce     uint64     `json:"nonce"`
	Hash      types.Hash `json:"hash"`
}

type wireBlock struct {
	Index        uint64     `json:"index"`
	Timestamp    uint64     `json:"timestamp"`
	PreviousHash types.Hash `json:"previous_hash"`
	Nonce        uint64     `json:"nonce"`
	Difficulty   uint64     `json:"difficulty"`
	Transactions []wireTx   `json:"transactions"`
	Miner        string     `json:"miner"`
	MerkleRoot   types.Hash `json:"merkle_root"`
	AI3Proof     *wireProof `json:"ai3_proof,omitempty"`
	Hash         types.Hash `json:"hash"`
}

func kindToWire(k tx.Kind) (wireKind, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return wireKind{}, err
	}
	return wireKind{Type: k.Tag(), Data: data}, nil
}

func kindFromWire(w wireKind) (tx.Kind, error) {
	switch w.Type {
	case (tx.Transfer{}).Tag():
		var k tx.Transfer
		return k, json.Unmarshal(w.Data, &k)
	case (tx.TokenCreate{}).Tag():
		var k tx.TokenCreate
		return k, json.Unmarshal(w.Data, &k)
	case (tx.TokenTransfer{}).Tag():
		var k tx.TokenTransfer
		return k, json.Unmarshal(w.Data, &k)
	case (tx.Stake{}).Tag():
		var k tx.Stake
		return k, json.Unmarshal(w.Data, &k)
	case (tx.TensorCompute{}).Tag():
		var k tx.TensorCompute
		return k, json.Unmarshal(w.Data, &k)
	case (tx.ContractDeploy{}).Tag():
		var k tx.ContractDeploy
		return k, json.Unmarshal(w.Data, &k)
	case (tx.ContractCall{}).Tag():
		var k tx.ContractCall
		return k, json.Unmarshal(w.Data, &k)
	default:
		return nil, fmt.Errorf("ledger: unknown transaction kind tag %q", w.Type)
	}
}

func txToWire(t tx.Transaction) (wireTx, error) {
	wk, err := kindToWire(t.Kind)
	if err != nil {
		return wireTx{}, err
	}
	return wireTx{
		ID:        t.ID,
		From:      t.From.String(),
		Kind:      wk,
		Fee:       uint64(t.Fee),
		Timestamp: t.Timestamp,
		Nonce:     t.Nonce,
		Hash:      t.Hash,
	}, nil
}

func txFromWire(w wireTx) (tx.Transaction, error) {
	from, err := types.ParseAddress(w.From)
	if err != nil {
		return tx.Transaction{}, err
	}
	kind, err := kindFromWire(w.Kind)
	if err != nil {
		return tx.Transaction{}, err
	}
	return tx.Transaction{
		ID:        w.ID,
		From:      from,
		Kind:      kind,
		Fee:       types.Amount(w.Fee),
		Timestamp: w.Timestamp,
		Nonce:     w.Nonce,
		Hash:      w.Hash,
	}, nil
}

func proofToWire(p *block.AI3Proof) *wireProof {
	if p == nil {
		return nil
	}
	return &wireProof{
		TaskID:             p.TaskID,
		OptimizationFactor: p.OptimizationFactor,
		TensorHash:         p.TensorHash,
		ComputationTimeMs:  p.ComputationTimeMs,
		MinerSignature:     p.MinerSignature,
	}
}

func proofFromWire(w *wireProof) *block.AI3Proof {
	if w == nil {
		return nil
	}
	return &block.AI3Proof{
		TaskID:             w.TaskID,
		OptimizationFactor: w.OptimizationFactor,
		TensorHash:         w.TensorHash,
		ComputationTimeMs:  w.ComputationTimeMs,
		MinerSignature:     w.MinerSignature,
	}
}

func blockToWire(b block.Block) (wireBlock, error) {
	txs := make([]wireTx, len(b.Transactions))
	for i, t := range b.Transactions {
		wt, err := txToWire(t)
		if err != nil {
			return wireBlock{}, err
		}
		txs[i] = wt
	}
	return wireBlock{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
		Transactions: txs,
		Miner:        b.Miner.String(),
		MerkleRoot:   b.MerkleRoot,
		AI3Proof:     proofToWire(b.AI3Proof),
		Hash:         b.Hash,
	}, nil
}

func blockFromWire(w wireBlock) (block.Block, error) {
	miner, err := types.ParseAddress(w.Miner)
	if err != nil {
		return block.Block{}, err
	}
	txs := make([]tx.Transaction, len(w.Transactions))
	for i, wt := range w.Transactions {
		t, err := txFromWire(wt)
		if err != nil {
			return block.Block{}, err
		}
		txs[i] = t
	}
	return block.Block{
		Index:        w.Index,
		Timestamp:    w.Timestamp,
		PreviousHash: w.PreviousHash,
		Nonce:        w.Nonce,
		Difficulty:   w.Difficulty,
		Transactions: txs,
		Miner:        miner,
		MerkleRoot:   w.MerkleRoot,
		AI3Proof:     proofFromWire(w.AI3Proof),
		Hash:         w.Hash,
	}, nil
}

func encodeBlock(b block.Block) ([]byte, error) {
	wb, err := blockToWire(b)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wb)
}

func decodeBlock(data []byte) (block.Block, error) {
	var wb wireBlock
	if err := json.Unmarshal(data, &wb); err != nil {
		return block.Block{}, err
	}
	return blockFromWire(wb)
}

func encodeTx(t tx.Transaction) ([]byte, error) {
	wt, err := txToWire(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wt)
}

func decodeTx(data []byte) (tx.Transaction, error) {
	var wt wireTx
	if err := json.Unmarshal(data, &wt); err != nil {
		return tx.Transaction{}, err
	}
	return txFromWire(wt)
}

// headSnapshot is the convenience cold-start record stored under the
// "blockchain" key: enough to resume without replaying every block.
type headSnapshot struct {
	HeadIndex uint64               `json:"head_index"`
	HeadHash  types.Hash           `json:"head_hash"`
	Balances  map[string]uint64    `json:"balances"`
	Tasks     map[string]wireTask  `json:"tasks"`
	Miners    map[string]MinerInfo `json:"miners"`
}

type wireTask struct {
	ID                 string    `json:"id"`
	Operation          string    `json:"operation"`
	InputData          []float32 `json:"input_data"`
	ExpectedOutputSize int       `json:"expected_output_size"`
	MaxComputeTimeMs   uint64    `json:"max_compute_time_ms"`
	Reward             uint64    `json:"reward"`
	Requester          string    `json:"requester"`
	Completed          bool      `json:"completed"`
	Result             []float32 `json:"result,omitempty"`
	AssignedMiner      string    `json:"assigned_miner,omitempty"`
	CreatedAtSeconds   uint64    `json:"created_at_seconds"`
}

func taskToWire(t task.TensorTask) wireTask {
	return wireTask{
		ID:                  t.ID,
		Operation:           t.Operation,
		InputData:           t.InputData,
		ExpectedOutputSize:  t.ExpectedOutputSize,
		MaxComputeTimeMs:    t.MaxComputeTimeMs,
		Reward:              uint64(t.Reward),
		Requester:           t.Requester.String(),
		Completed:           t.Completed,
		Result:              t.Result,
		AssignedMiner:       t.AssignedMiner.String(),
		CreatedAtSeconds:    t.CreatedAtSeconds,
	}
}

func taskFromWire(w wireTask) (task.TensorTask, error) {
	requester, err := types.ParseAddress(w.Requester)
	if err != nil {
		return task.TensorTask{}, err
	}
	var assigned types.Address
	if w.AssignedMiner != "" {
		assigned, err = types.ParseAddress(w.AssignedMiner)
		if err != nil {
			return task.TensorTask{}, err
		}
	}
	return task.TensorTask{
		ID:                  w.ID,
		Operation:           w.Operation,
		InputData:           w.InputData,
		ExpectedOutputSize:  w.ExpectedOutputSize,
		MaxComputeTimeMs:    w.MaxComputeTimeMs,
		Reward:              types.Amount(w.Reward),
		Requester:           requester,
		Completed:           w.Completed,
		Result:              w.Result,
		AssignedMiner:       assigned,
		CreatedAtSeconds:    w.CreatedAtSeconds,
	}, nil
}
