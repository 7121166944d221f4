package validator

import (
	"time"

	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tensor"
	"github.com/tribechain/tribechain/pkg/types"
)

// Validator runs stateless and state-dependent acceptance checks
// against transactions and blocks, per spec.md §4.E. It is stateless
// itself; State and DifficultyExpecter are supplied per call so the
// same Validator can check against whatever store/controller pair the
// caller (internal/chain, or a peer-sync path) holds a lock on.
type Validator struct {
	// RecomputeTensorProofs controls whether ValidateBlockState
	// independently re-runs the kernel to check AI3Proof.tensor_hash
	// (spec.md §9's decision: yes, the validator recomputes rather
	// than trusting the miner's reported hash).
	RecomputeTensorProofs bool
}

// New builds a Validator that recomputes tensor proofs.
func New() *Validator {
	return &Validator{RecomputeTensorProofs: true}
}

// ValidateBlockStateless runs every block-level check spec.md §4.E
// lists as not needing state access, plus the per-transaction
// stateless checks for every transaction the block carries.
func (v *Validator) ValidateBlockStateless(b block.Block, parent block.Block, hasParent bool, now time.Time) *Error {
	if err := b.VerifyHash(); err != nil {
		return errf(InvalidBlock, "%v", err)
	}
	if err := b.VerifyMerkleRoot(); err != nil {
		return errf(InvalidBlock, "%v", err)
	}
	if err := b.VerifyProofOfWork(); err != nil {
		return errf(InvalidBlock, "%v", err)
	}
	if hasParent {
		if b.PreviousHash != parent.Hash {
			return errf(InvalidBlock, "previous_hash does not match parent.hash")
		}
		if b.Index != parent.Index+1 {
			return errf(InvalidBlock, "index %d is not parent.index+1 (%d)", b.Index, parent.Index+1)
		}
	} else if b.Index != 0 {
		return errf(InvalidBlock, "first block must be genesis (index 0)")
	}
	if b.AI3Proof != nil {
		if err := b.AI3Proof.ValidateStateless(); err != nil {
			return errf(Ai3Failure, "%v", err)
		}
	}
	for _, t := range b.Transactions {
		if err := ValidateTransactionStateless(t, now); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBlockState runs the state-dependent checks spec.md §4.E
// names: sender balances (including the TensorCompute reward+fee
// rule), difficulty-controller agreement, and — if an AI3Proof is
// present — task membership, time budget, and (optionally)
// tensor-hash recomputation. The proof's factor range is checked by
// ValidateBlockStateless.
func (v *Validator) ValidateBlockState(b block.Block, state State, diff DifficultyExpecter) *Error {
	expected := diff.ExpectedDifficulty(b.Index)
	if b.Difficulty != expected {
		return errf(InvalidBlock, "difficulty %d does not match expected %d for index %d", b.Difficulty, expected, b.Index)
	}
	for _, t := range b.Transactions {
		if verr := ValidateTransactionState(t, state); verr != nil {
			return verr
		}
	}
	if b.AI3Proof == nil {
		return nil
	}
	return v.validateProofState(*b.AI3Proof, state)
}

func (v *Validator) validateProofState(proof block.AI3Proof, state State) *Error {
	t, ok := state.Task(proof.TaskID)
	if !ok {
		return errf(Ai3Failure, "task %s not found", proof.TaskID)
	}
	if t.Completed {
		return errf(Ai3Failure, "task %s is already completed", proof.TaskID)
	}
	if proof.ComputationTimeMs > t.MaxComputeTimeMs {
		return errf(Ai3Failure, "computation_time_ms %d exceeds task budget %d", proof.ComputationTimeMs, t.MaxComputeTimeMs)
	}
	if v.RecomputeTensorProofs {
		op, err := task.BuildOp(t.Operation, t.InputData)
		if err != nil {
			return errf(Ai3Failure, "rebuild operation %q: %v", t.Operation, err)
		}
		out, err := tensor.Execute(op)
		if err != nil {
			return errf(Ai3Failure, "recompute %q: %v", t.Operation, err)
		}
		if gotHash := types.Sum(out.Encode()); gotHash != proof.TensorHash {
			return errf(Ai3Failure, "tensor_hash does not match independent recomputation")
		}
	}
	return nil
}
