// Package ledger is the node's single state store: balances,
// blocks-by-index, transactions-by-hash, the open task pool, and the
// miner registry, behind one reader-writer lock (spec.md §4.D/§5,
// open-question decision 4). It is the sole owner of this state; the
// block processor (internal/chain) is the sole caller of Commit.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tribechain/tribechain/internal/storage"
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// ErrNotFound is returned by lookups that miss, and by Open when no
// cold-start snapshot exists (the store's pure in-memory mode).
var ErrNotFound = errors.New("ledger: not found")

// GenesisAddress is the sole balance entry at genesis, per spec.md §3.
const GenesisAddress = types.Address("genesis")

// GenesisBalance is the genesis allocation: 10^12 units (spec.md §3).
const GenesisBalance types.Amount = 1_000_000_000_000

// Store is the node's single state owner.
type Store struct {
	mu sync.RWMutex

	db storage.DB

	head     *block.Block
	blocks   map[uint64]block.Block
	byHash   map[types.Hash]uint64
	txs      map[types.Hash]tx.Transaction
	balances map[types.Address]types.Amount
	tasks    map[string]task.TensorTask
	miners   map[types.Address]MinerInfo
}

// Open builds a Store backed by db, replaying any persisted blocks to
// rebuild in-memory state. If db holds nothing (fresh MemoryDB, or a
// Badger store with no prior run), Open returns an empty, un-genesised
// store and ErrNotFound — the caller (internal/chain) is responsible
// for committing a genesis block.
func Open(db storage.DB) (*Store, error) {
	s := &Store{
		db:       db,
		blocks:   make(map[uint64]block.Block),
		byHash:   make(map[types.Hash]uint64),
		txs:      make(map[types.Hash]tx.Transaction),
		balances: make(map[types.Address]types.Amount),
		tasks:    make(map[string]task.TensorTask),
		miners:   make(map[types.Address]MinerInfo),
	}

	raw, err := db.Get([]byte(headKey))
	if err != nil {
		return s, ErrNotFound
	}
	var snap headSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("ledger: decode head snapshot: %w", err)
	}
	for addr, amt := range snap.Balances {
		a, err := types.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode snapshot balance address: %w", err)
		}
		s.balances[a] = types.Amount(amt)
	}
	for id, wt := range snap.Tasks {
		t, err := taskFromWire(wt)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode snapshot task %s: %w", id, err)
		}
		s.tasks[id] = t
	}
	for addr, info := range snap.Miners {
		a, err := types.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode snapshot miner address: %w", err)
		}
		s.miners[a] = info
	}

	for i := uint64(0); i <= snap.HeadIndex; i++ {
		raw, err := db.Get(blockKey(i))
		if err != nil {
			return nil, fmt.Errorf("ledger: load block %d: %w", i, err)
		}
		b, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode block %d: %w", i, err)
		}
		s.blocks[i] = b
		s.byHash[b.Hash] = i
		for _, t := range b.Transactions {
			s.txs[t.Hash] = t
		}
		head := b
		s.head = &head
	}
	return s, nil
}

// Head returns the current chain tip, if any.
func (s *Store) Head() (block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.head == nil {
		return block.Block{}, false
	}
	return *s.head, true
}

// GetBlock looks up a block by index.
func (s *Store) GetBlock(index uint64) (block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[index]
	return b, ok
}

// GetBlockByHash looks up a block by hash.
func (s *Store) GetBlockByHash(hash types.Hash) (block.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byHash[hash]
	if !ok {
		return block.Block{}, false
	}
	return s.blocks[idx], true
}

// GetTx looks up a transaction by hash.
func (s *Store) GetTx(hash types.Hash) (tx.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[hash]
	return t, ok
}

// Balance returns addr's balance, defaulting to 0.
func (s *Store) Balance(addr types.Address) types.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[addr]
}

// Task looks up a task by id, open or completed.
func (s *Store) Task(id string) (task.TensorTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// OpenTasks returns a snapshot slice of every task with Completed == false.
func (s *Store) OpenTasks() []task.TensorTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make([]task.TensorTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open
}

// Miner returns addr's registry entry, if any.
func (s *Store) Miner(addr types.Address) (MinerInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.miners[addr]
	return m, ok
}

// SaveData stores an arbitrary application key, for collaborators
// outside the consensus core (spec.md §4.D). It participates in the
// same lock as consensus state to avoid interleaving with Commit, but
// is not itself part of the committed snapshot.
func (s *Store) SaveData(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put(appKey(key), value)
}

// LoadData retrieves a key saved with SaveData.
func (s *Store) LoadData(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.db.Get(appKey(key))
	if err != nil {
		return nil, ErrNotFound
	}
	return v, nil
}
