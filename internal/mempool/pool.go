// Package mempool holds the two pending-work bags a miner draws from:
// the FIFO transaction queue and the open tensor-task set, per spec.md
// §4.F. They share one lock — the spec describes them as "two bags
// [that] share one lock", unlike the fee-rate-sorted, UTXO-aware pool
// this package is adapted from.
package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// DefaultMaxPerBlock is the recommended per-block transaction cap for
// constrained miners, per spec.md §4.F.
const DefaultMaxPerBlock = 10

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("mempool: transaction already pending")
	ErrPoolFull      = errors.New("mempool: pool is full")
)

// Pool is the node's pending-transaction queue and open-task set.
// Unlike the fee-rate-prioritized, UTXO-conflict-indexed pool this is
// adapted from, selection here is plain FIFO (spec.md §4.F names no
// fee market) and there is no double-spend index to maintain — balance
// sufficiency is re-checked by internal/validator at block-processing
// time instead of tracked incrementally here.
type Pool struct {
	mu sync.Mutex

	pending     []tx.Transaction
	byHash      map[types.Hash]bool
	maxPoolSize int

	tasks       map[string]task.TensorTask
	assignments map[string]types.Address // task id -> assigned miner
}

// New builds an empty Pool. maxPoolSize <= 0 means unbounded.
func New(maxPoolSize int) *Pool {
	return &Pool{
		pending:     make([]tx.Transaction, 0),
		byHash:      make(map[types.Hash]bool),
		maxPoolSize: maxPoolSize,
		tasks:       make(map[string]task.TensorTask),
		assignments: make(map[string]types.Address),
	}
}

// AddTransaction appends t to the FIFO pending queue. Callers are
// expected to have already run it through internal/validator's
// stateless checks (and, where a store is reachable, the
// state-dependent balance check).
func (p *Pool) AddTransaction(t tx.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.byHash[t.Hash] {
		return ErrAlreadyExists
	}
	if p.maxPoolSize > 0 && len(p.pending) >= p.maxPoolSize {
		return ErrPoolFull
	}
	p.byHash[t.Hash] = true
	p.pending = append(p.pending, t)
	return nil
}

// Has reports whether a transaction hash is already pending.
func (p *Pool) Has(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byHash[hash]
}

// SelectForBlock returns up to maxCount pending transactions in FIFO
// order, leaving the queue untouched — removal happens only once the
// block that includes them actually commits, via RemoveCommitted.
func (p *Pool) SelectForBlock(maxCount int) []tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if maxCount <= 0 || maxCount > len(p.pending) {
		maxCount = len(p.pending)
	}
	out := make([]tx.Transaction, maxCount)
	copy(out, p.pending[:maxCount])
	return out
}

// RemoveCommitted drops transactions that made it into a committed
// block from the pending queue.
func (p *Pool) RemoveCommitted(hashes []types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(hashes) == 0 {
		return
	}
	drop := make(map[types.Hash]bool, len(hashes))
	for _, h := range hashes {
		drop[h] = true
	}
	kept := p.pending[:0]
	for _, t := range p.pending {
		if drop[t.Hash] {
			delete(p.byHash, t.Hash)
			continue
		}
		kept = append(kept, t)
	}
	p.pending = kept
}

// Pending reports the number of queued transactions.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// AddTask appends a newly created TensorCompute task to the open set.
func (p *Pool) AddTask(t task.TensorTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[t.ID] = t
}

// CompleteTask transitions a task to completed, dropping any
// distributor assignment — it is terminal from here.
func (p *Pool) CompleteTask(completed task.TensorTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[completed.ID] = completed
	delete(p.assignments, completed.ID)
}

// OpenTasks returns every not-yet-completed task, ordered by the
// spec's tie-break: created_at ascending, then id lexicographically.
func (p *Pool) OpenTasks() []task.TensorTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.openTasksLocked()
}

func (p *Pool) openTasksLocked() []task.TensorTask {
	open := make([]task.TensorTask, 0, len(p.tasks))
	for _, t := range p.tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].CreatedAtSeconds != open[j].CreatedAtSeconds {
			return open[i].CreatedAtSeconds < open[j].CreatedAtSeconds
		}
		return open[i].ID < open[j].ID
	})
	return open
}

// CleanupExpired drops open tasks whose deadline (created_at +
// max_compute_time_ms/1000 + grace) has passed, returning their ids.
func (p *Pool) CleanupExpired(nowSeconds, graceSeconds uint64) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var dropped []string
	for id, t := range p.tasks {
		if !t.Completed && t.Expired(nowSeconds, graceSeconds) {
			delete(p.tasks, id)
			delete(p.assignments, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// AssignedMiner returns the distributor-recorded assignment for a
// task, if any.
func (p *Pool) AssignedMiner(taskID string) (types.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.assignments[taskID]
	return a, ok
}
