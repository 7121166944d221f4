package validator

import (
	"testing"
	"time"

	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tensor"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

func mustAddr(t *testing.T, s string) types.Address {
	t.Helper()
	a, err := types.NewAddress(s)
	if err != nil {
		t.Fatalf("NewAddress(%q): %v", s, err)
	}
	return a
}

type fakeState struct {
	balances map[types.Address]types.Amount
	tasks    map[string]task.TensorTask
}

func (f fakeState) Balance(addr types.Address) types.Amount { return f.balances[addr] }
func (f fakeState) Task(id string) (task.TensorTask, bool) {
	t, ok := f.tasks[id]
	return t, ok
}

type fixedDifficulty uint64

func (f fixedDifficulty) ExpectedDifficulty(uint64) uint64 { return uint64(f) }

func TestValidateTransactionStateInsufficientBalance(t *testing.T) {
	alice := mustAddr(t, "alice")
	carol := mustAddr(t, "carol")
	txn, err := tx.New(alice, tx.Transfer{To: carol, Amount: 60}, 1, 1_700_000_000, 1, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	state := fakeState{balances: map[types.Address]types.Amount{alice: 50}}
	verr := ValidateTransactionState(txn, state)
	if verr == nil || verr.Kind != InvalidTransaction {
		t.Fatalf("expected InvalidTransaction for insufficient balance, got %v", verr)
	}
}

func TestValidateTransactionStateSufficientBalance(t *testing.T) {
	alice := mustAddr(t, "alice")
	carol := mustAddr(t, "carol")
	txn, err := tx.New(alice, tx.Transfer{To: carol, Amount: 60}, 1, 1_700_000_000, 1, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	state := fakeState{balances: map[types.Address]types.Amount{alice: 1000}}
	if verr := ValidateTransactionState(txn, state); verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
}

func buildProofBlock(t *testing.T, parentHash types.Hash, miner types.Address, tt task.TensorTask, tamperHash bool) block.Block {
	t.Helper()
	op, err := task.BuildOp(tt.Operation, tt.InputData)
	if err != nil {
		t.Fatalf("BuildOp: %v", err)
	}
	out, err := tensor.Execute(op)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	hash := types.Sum(out.Encode())
	if tamperHash {
		hash[0] ^= 0xFF
	}
	proof := &block.AI3Proof{TaskID: tt.ID, OptimizationFactor: 1.0, TensorHash: hash, ComputationTimeMs: 10}
	b, err := block.New(1, 1_700_000_100, parentHash, 0, 4, nil, miner, proof)
	if err != nil {
		t.Fatalf("block.New: %v", err)
	}
	return b
}

func TestValidateBlockStateRecomputesTensorProof(t *testing.T) {
	miner := mustAddr(t, "bob")
	tt := task.New("task-1", "relu", []float32{-1, 2, -3}, 3, 60_000, 10, mustAddr(t, "alice"), 1_700_000_000)
	state := fakeState{
		balances: map[types.Address]types.Amount{},
		tasks:    map[string]task.TensorTask{tt.ID: tt},
	}
	v := New()

	good := buildProofBlock(t, types.ZeroHash, miner, tt, false)
	if verr := v.ValidateBlockState(good, state, fixedDifficulty(good.Difficulty)); verr != nil {
		t.Fatalf("expected a valid proof to pass, got %v", verr)
	}

	bad := buildProofBlock(t, types.ZeroHash, miner, tt, true)
	verr := v.ValidateBlockState(bad, state, fixedDifficulty(bad.Difficulty))
	if verr == nil || verr.Kind != Ai3Failure {
		t.Fatalf("expected Ai3Failure for a tampered tensor_hash, got %v", verr)
	}
}

func TestValidateBlockStateRejectsUnknownTask(t *testing.T) {
	miner := mustAddr(t, "bob")
	tt := task.New("ghost", "relu", []float32{1}, 1, 1000, 1, mustAddr(t, "alice"), 1_700_000_000)
	proof := &block.AI3Proof{TaskID: "does-not-exist", OptimizationFactor: 1.0, TensorHash: types.ZeroHash, ComputationTimeMs: 1}
	b, err := block.New(1, 1_700_000_100, types.ZeroHash, 0, 4, nil, miner, proof)
	if err != nil {
		t.Fatalf("block.New: %v", err)
	}
	state := fakeState{tasks: map[string]task.TensorTask{tt.ID: tt}}
	v := New()
	verr := v.ValidateBlockState(b, state, fixedDifficulty(4))
	if verr == nil || verr.Kind != Ai3Failure {
		t.Fatalf("expected Ai3Failure for an unknown task_id, got %v", verr)
	}
}

func TestValidateBlockStateRejectsDifficultyMismatch(t *testing.T) {
	miner := mustAddr(t, "bob")
	b, err := block.New(1, 1_700_000_100, types.ZeroHash, 0, 4, nil, miner, nil)
	if err != nil {
		t.Fatalf("block.New: %v", err)
	}
	state := fakeState{}
	v := New()
	verr := v.ValidateBlockState(b, state, fixedDifficulty(8))
	if verr == nil || verr.Kind != InvalidBlock {
		t.Fatalf("expected InvalidBlock for a difficulty mismatch, got %v", verr)
	}
}

func TestValidateBlockStatelessRejectsBadParentLinkage(t *testing.T) {
	miner := mustAddr(t, "bob")
	parent, _ := block.New(0, 1_700_000_000, block.GenesisPreviousHash, 0, 4, nil, miner, nil)
	wrongPrev, _ := block.New(1, 1_700_000_100, types.ZeroHash, 0, 4, nil, miner, nil)
	v := New()
	verr := v.ValidateBlockStateless(wrongPrev, parent, true, time.Unix(1_700_000_100, 0))
	if verr == nil || verr.Kind != InvalidBlock {
		t.Fatalf("expected InvalidBlock for mismatched previous_hash, got %v", verr)
	}
}
