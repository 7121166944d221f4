// Package task defines TensorTask, the open-work-item entity created
// by a TensorCompute transaction and closed by a block's AI3Proof.
package task

import (
	"errors"
	"fmt"

	"github.com/tribechain/tribechain/pkg/types"
)

// ErrAlreadyCompleted is returned by Complete on a task that is already terminal.
var ErrAlreadyCompleted = errors.New("task: already completed")

// TensorTask is a unit of verifiable tensor computation up for grabs
// in the task pool. It is terminal once Completed is true: per
// spec.md §3/§8 property 6, a completed task is never un-completed.
type TensorTask struct {
	ID                 string
	Operation          string
	InputData          []float32
	ExpectedOutputSize int
	MaxComputeTimeMs   uint64
	Reward             types.Amount
	Requester          types.Address
	Completed          bool
	Result             []float32
	AssignedMiner      types.Address
	CreatedAtSeconds   uint64
}

// New builds an open (Completed == false) task.
func New(id, operation string, inputData []float32, expectedOutputSize int, maxComputeTimeMs uint64, reward types.Amount, requester types.Address, createdAtSeconds uint64) TensorTask {
	data := make([]float32, len(inputData))
	copy(data, inputData)
	return TensorTask{
		ID:                 id,
		Operation:          operation,
		InputData:          data,
		ExpectedOutputSize: expectedOutputSize,
		MaxComputeTimeMs:   maxComputeTimeMs,
		Reward:             reward,
		Requester:          requester,
		CreatedAtSeconds:   createdAtSeconds,
	}
}

// Complete returns a new TensorTask with Completed, Result, and
// AssignedMiner set, leaving t untouched. It fails if t is already
// completed, enforcing the terminal-once invariant at the one call
// site that transitions a task (internal/chain's block processor).
func (t TensorTask) Complete(result []float32, miner types.Address) (TensorTask, error) {
	if t.Completed {
		return TensorTask{}, fmt.Errorf("%w: task %s", ErrAlreadyCompleted, t.ID)
	}
	next := t
	next.Result = make([]float32, len(result))
	copy(next.Result, result)
	next.AssignedMiner = miner
	next.Completed = true
	return next, nil
}

// Expired reports whether the task should be dropped from the open
// set: now - CreatedAtSeconds > MaxComputeTimeMs/1000 + graceSeconds.
func (t TensorTask) Expired(nowSeconds uint64, graceSeconds uint64) bool {
	if t.Completed {
		return false
	}
	deadline := t.CreatedAtSeconds + t.MaxComputeTimeMs/1000 + graceSeconds
	return nowSeconds > deadline
}
