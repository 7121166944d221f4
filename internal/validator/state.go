package validator

import (
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/types"
)

// State is the read-only slice of internal/ledger.Store the validator
// needs for state-dependent checks. internal/ledger.Store satisfies it
// without modification.
type State interface {
	Balance(addr types.Address) types.Amount
	Task(id string) (task.TensorTask, bool)
}

// DifficultyExpecter supplies the expected difficulty for a given
// block height. internal/difficulty.Controller satisfies it.
type DifficultyExpecter interface {
	ExpectedDifficulty(height uint64) uint64
}
