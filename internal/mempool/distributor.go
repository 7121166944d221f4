package mempool

import (
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/types"
)

// MinerCapability is the slice of a miner's registry entry the
// distributor needs to match it against a task, per spec.md §4.F.
type MinerCapability struct {
	Address       types.Address
	Operations    map[string]bool // operation tags this miner can run
	MaxTensorSize int             // largest sum(input element counts) it accepts
	IsESPDevice   bool
}

// supports reports whether m can run a task with the given operation
// and total input element count.
func (m MinerCapability) supports(operation string, inputElements int) bool {
	return m.Operations[operation] && m.MaxTensorSize >= inputElements
}

// ESPCompatible is the out-of-core predicate for whether an ESP-class
// miner can actually run a given task (memory limits, codegen support).
// The ESP code-generation utilities themselves are out of this core's
// scope (spec.md §1); the core only calls the predicate the collaborator
// supplies.
type ESPCompatible func(t task.TensorTask) bool

// Distribute implements spec.md §4.F's distribute(task, miners): pick
// the first candidate miner (in the order given) whose capability set
// contains t.Operation, whose MaxTensorSize covers the task's input
// size, and — if it is an ESP device — that espCompatible accepts. The
// assignment is recorded so AssignedMiner can report it; if no
// candidate matches, the task is left in the open set and Distribute
// reports false.
func (p *Pool) Distribute(taskID string, miners []MinerCapability, espCompatible ESPCompatible) (types.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[taskID]
	if !ok || t.Completed {
		return types.Address(""), false
	}
	inputElements := len(t.InputData)

	for _, m := range miners {
		if !m.supports(t.Operation, inputElements) {
			continue
		}
		if m.IsESPDevice && (espCompatible == nil || !espCompatible(t)) {
			continue
		}
		p.assignments[taskID] = m.Address
		return m.Address, true
	}
	return types.Address(""), false
}
