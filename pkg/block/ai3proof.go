package block

import (
	"errors"
	"fmt"

	"github.com/tribechain/tribechain/pkg/types"
)

// MinOptimizationFactor and MaxOptimizationFactor bound AI3Proof.OptimizationFactor.
const (
	MinOptimizationFactor = 0.1
	MaxOptimizationFactor = 2.0
)

// ErrInvalidProof is the sentinel wrapped by AI3Proof validation failures.
var ErrInvalidProof = errors.New("invalid ai3 proof")

// AI3Proof accompanies a tensor-PoW block: it names the task the
// miner completed, the hash of the resulting tensor, and a claimed
// optimization factor that scales the mining bonus.
//
// MinerSignature is a reserved, forward-compatible placeholder — the
// core never verifies it (spec.md §9 open question 6); it exists so a
// future signer can populate it without a wire-format change.
type AI3Proof struct {
	TaskID             string     `json:"task_id"`
	OptimizationFactor float32    `json:"optimization_factor"`
	TensorHash         types.Hash `json:"tensor_hash"`
	ComputationTimeMs  uint64     `json:"computation_time_ms"`
	MinerSignature     []byte     `json:"miner_signature,omitempty"`
}

// ValidateStateless checks everything about a proof that doesn't need
// task-pool access: the optimization factor's range.
func (p AI3Proof) ValidateStateless() error {
	if p.OptimizationFactor < MinOptimizationFactor || p.OptimizationFactor > MaxOptimizationFactor {
		return fmt.Errorf("%w: optimization_factor %v outside [%v, %v]", ErrInvalidProof, p.OptimizationFactor, MinOptimizationFactor, MaxOptimizationFactor)
	}
	if p.TaskID == "" {
		return fmt.Errorf("%w: missing task_id", ErrInvalidProof)
	}
	return nil
}
