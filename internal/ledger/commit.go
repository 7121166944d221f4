package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/tribechain/tribechain/internal/storage"
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/types"
)

// CommitBatch is everything one accepted block changes, computed by
// the block processor (internal/chain) and applied here atomically:
// all writes land, or (on a storage failure) none do and the
// in-memory state is left exactly as it was (spec.md §4.D/§4.I).
type CommitBatch struct {
	Block block.Block

	// BalanceSets holds the final post-block balance for every address
	// touched by the block (sender debits, recipient/miner credits).
	BalanceSets map[types.Address]types.Amount

	// NewTasks are tasks appended to the pool by TensorCompute transactions in this block.
	NewTasks []task.TensorTask

	// CompletedTasks are tasks transitioning to Completed == true via this block's AI3Proof.
	CompletedTasks []task.TensorTask

	// MinerUpdates holds miner-registry entries changed by this block (at minimum, the sealer).
	MinerUpdates map[types.Address]MinerInfo
}

// Commit applies batch atomically: the underlying byte store's write
// batch is built, flushed, and only on success is the in-memory state
// mutated. A storage failure leaves both the store and the byte-store
// untouched, per spec.md §7's propagation policy for StorageFailure.
func (s *Store) Commit(batch CommitBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.head != nil {
		if batch.Block.Index != s.head.Index+1 {
			return fmt.Errorf("ledger: commit index %d is not head.index+1 (%d)", batch.Block.Index, s.head.Index+1)
		}
	} else if batch.Block.Index != 0 {
		return fmt.Errorf("ledger: first committed block must be genesis (index 0), got %d", batch.Block.Index)
	}

	wb, err := s.stageBatch(batch)
	if err != nil {
		return err
	}
	if err := wb.Commit(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	s.applyInMemory(batch)
	return nil
}

func (s *Store) stageBatch(batch CommitBatch) (storage.Batch, error) {
	batcher, ok := s.db.(storage.Batcher)
	if !ok {
		return nil, fmt.Errorf("ledger: store backend does not support atomic batches")
	}
	wb := batcher.NewBatch()

	blockBytes, err := encodeBlock(batch.Block)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode block %d: %w", batch.Block.Index, err)
	}
	wb.Put(blockKey(batch.Block.Index), blockBytes)

	for _, t := range batch.Block.Transactions {
		txBytes, err := encodeTx(t)
		if err != nil {
			return nil, fmt.Errorf("ledger: encode tx %s: %w", t.Hash, err)
		}
		wb.Put(txKey(t.Hash), txBytes)
	}

	snap := s.nextSnapshot(batch)
	snapBytes, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode head snapshot: %w", err)
	}
	wb.Put([]byte(headKey), snapBytes)

	return wb, nil
}

// nextSnapshot computes the head snapshot that would result from
// applying batch, without mutating s — used both to serialize the
// persisted snapshot and (after a successful Commit) as the new
// in-memory state.
func (s *Store) nextSnapshot(batch CommitBatch) headSnapshot {
	balances := make(map[string]uint64, len(s.balances)+len(batch.BalanceSets))
	for addr, amt := range s.balances {
		balances[addr.String()] = uint64(amt)
	}
	for addr, amt := range batch.BalanceSets {
		balances[addr.String()] = uint64(amt)
	}

	tasks := make(map[string]wireTask, len(s.tasks)+len(batch.NewTasks))
	for id, t := range s.tasks {
		tasks[id] = taskToWire(t)
	}
	for _, t := range batch.NewTasks {
		tasks[t.ID] = taskToWire(t)
	}
	for _, t := range batch.CompletedTasks {
		tasks[t.ID] = taskToWire(t)
	}

	miners := make(map[string]MinerInfo, len(s.miners)+len(batch.MinerUpdates))
	for addr, info := range s.miners {
		miners[addr.String()] = info
	}
	for addr, info := range batch.MinerUpdates {
		miners[addr.String()] = info
	}

	return headSnapshot{
		HeadIndex: batch.Block.Index,
		HeadHash:  batch.Block.Hash,
		Balances:  balances,
		Tasks:     tasks,
		Miners:    miners,
	}
}

func (s *Store) applyInMemory(batch CommitBatch) {
	s.blocks[batch.Block.Index] = batch.Block
	s.byHash[batch.Block.Hash] = batch.Block.Index
	for _, t := range batch.Block.Transactions {
		s.txs[t.Hash] = t
	}
	head := batch.Block
	s.head = &head

	for addr, amt := range batch.BalanceSets {
		s.balances[addr] = amt
	}
	for _, t := range batch.NewTasks {
		s.tasks[t.ID] = t
	}
	for _, t := range batch.CompletedTasks {
		s.tasks[t.ID] = t
	}
	for addr, info := range batch.MinerUpdates {
		s.miners[addr] = info
	}
}
