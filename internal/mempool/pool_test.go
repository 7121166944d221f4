package mempool

import (
	"testing"
	"time"

	"github.com/tribechain/tribechain/pkg/task"
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

func mustTx(t *testing.T, from, to types.Address, amount types.Amount, nonce uint64) tx.Transaction {
	t.Helper()
	txn, err := tx.New(from, tx.Transfer{To: to, Amount: amount}, 1, 1_700_000_000, nonce, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	return txn
}

func TestAddTransactionFIFOAndDuplicate(t *testing.T) {
	p := New(0)
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")

	t1 := mustTx(t, alice, bob, 10, 1)
	t2 := mustTx(t, alice, bob, 20, 2)

	if err := p.AddTransaction(t1); err != nil {
		t.Fatalf("AddTransaction t1: %v", err)
	}
	if err := p.AddTransaction(t2); err != nil {
		t.Fatalf("AddTransaction t2: %v", err)
	}
	if err := p.AddTransaction(t1); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got := p.SelectForBlock(10)
	if len(got) != 2 || got[0].Hash != t1.Hash || got[1].Hash != t2.Hash {
		t.Fatalf("expected FIFO order [t1, t2], got %+v", got)
	}
}

func TestSelectForBlockRespectsCap(t *testing.T) {
	p := New(0)
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")
	for i := uint64(1); i <= 15; i++ {
		if err := p.AddTransaction(mustTx(t, alice, bob, types.Amount(i), i)); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	got := p.SelectForBlock(DefaultMaxPerBlock)
	if len(got) != DefaultMaxPerBlock {
		t.Fatalf("len(got) = %d, want %d", len(got), DefaultMaxPerBlock)
	}
}

func TestRemoveCommittedLeavesRestPending(t *testing.T) {
	p := New(0)
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")
	t1 := mustTx(t, alice, bob, 10, 1)
	t2 := mustTx(t, alice, bob, 20, 2)
	p.AddTransaction(t1)
	p.AddTransaction(t2)

	p.RemoveCommitted([]types.Hash{t1.Hash})
	if p.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", p.Pending())
	}
	if p.Has(t1.Hash) {
		t.Fatalf("t1 should have been removed")
	}
	if !p.Has(t2.Hash) {
		t.Fatalf("t2 should still be pending")
	}
}

func TestPoolFullRejectsBeyondCap(t *testing.T) {
	p := New(1)
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")
	if err := p.AddTransaction(mustTx(t, alice, bob, 1, 1)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if err := p.AddTransaction(mustTx(t, alice, bob, 2, 2)); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}

func TestOpenTasksTieBreak(t *testing.T) {
	p := New(0)
	requester := mustAddr(t, "alice")
	t1 := task.New("bbb", "relu", []float32{1}, 1, 1000, 1, requester, 100)
	t2 := task.New("aaa", "relu", []float32{1}, 1, 1000, 1, requester, 100) // same created_at, smaller id
	t3 := task.New("ccc", "relu", []float32{1}, 1, 1000, 1, requester, 50)  // earlier created_at
	p.AddTask(t1)
	p.AddTask(t2)
	p.AddTask(t3)

	open := p.OpenTasks()
	if len(open) != 3 {
		t.Fatalf("len(open) = %d, want 3", len(open))
	}
	if open[0].ID != "ccc" || open[1].ID != "aaa" || open[2].ID != "bbb" {
		t.Fatalf("unexpected tie-break order: %v, %v, %v", open[0].ID, open[1].ID, open[2].ID)
	}
}

func TestCleanupExpiredDropsStaleOpenTasks(t *testing.T) {
	p := New(0)
	requester := mustAddr(t, "alice")
	fresh := task.New("fresh", "relu", []float32{1}, 1, 60_000, 1, requester, 1_000)
	stale := task.New("stale", "relu", []float32{1}, 1, 1_000, 1, requester, 0)
	p.AddTask(fresh)
	p.AddTask(stale)

	dropped := p.CleanupExpired(1_002, 0)
	if len(dropped) != 1 || dropped[0] != "stale" {
		t.Fatalf("expected only 'stale' dropped, got %v", dropped)
	}
	open := p.OpenTasks()
	if len(open) != 1 || open[0].ID != "fresh" {
		t.Fatalf("expected only 'fresh' left open, got %v", open)
	}
}

func TestCompleteTaskClearsAssignment(t *testing.T) {
	p := New(0)
	requester := mustAddr(t, "alice")
	miner := mustAddr(t, "bob")
	tt := task.New("t1", "relu", []float32{1, 2}, 2, 60_000, 1, requester, 0)
	p.AddTask(tt)

	assigned, ok := p.Distribute("t1", []MinerCapability{
		{Address: miner, Operations: map[string]bool{"relu": true}, MaxTensorSize: 8},
	}, nil)
	if !ok || assigned != miner {
		t.Fatalf("Distribute: got (%v, %v), want (%v, true)", assigned, ok, miner)
	}
	if a, ok := p.AssignedMiner("t1"); !ok || a != miner {
		t.Fatalf("AssignedMiner = (%v, %v), want (%v, true)", a, ok, miner)
	}

	completed, err := tt.Complete([]float32{0, 2}, miner)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	p.CompleteTask(completed)
	if _, ok := p.AssignedMiner("t1"); ok {
		t.Fatalf("expected assignment to be cleared once the task completes")
	}
}

func TestDistributeSkipsIncapableMiners(t *testing.T) {
	p := New(0)
	requester := mustAddr(t, "alice")
	tt := task.New("t1", "convolution_like", []float32{1, 2, 3, 4}, 4, 60_000, 1, requester, 0)
	p.AddTask(tt)

	tooSmall := mustAddr(t, "tiny")
	wrongOp := mustAddr(t, "wrong")
	capable := mustAddr(t, "capable")

	assigned, ok := p.Distribute("t1", []MinerCapability{
		{Address: tooSmall, Operations: map[string]bool{"convolution_like": true}, MaxTensorSize: 1},
		{Address: wrongOp, Operations: map[string]bool{"relu": true}, MaxTensorSize: 100},
		{Address: capable, Operations: map[string]bool{"convolution_like": true}, MaxTensorSize: 100},
	}, nil)
	if !ok || assigned != capable {
		t.Fatalf("Distribute: got (%v, %v), want (%v, true)", assigned, ok, capable)
	}
}

func TestDistributeLeavesTaskOpenWhenNoMinerQualifies(t *testing.T) {
	p := New(0)
	requester := mustAddr(t, "alice")
	tt := task.New("t1", "relu", []float32{1}, 1, 60_000, 1, requester, 0)
	p.AddTask(tt)

	_, ok := p.Distribute("t1", []MinerCapability{
		{Address: mustAddr(t, "bob"), Operations: map[string]bool{"sigmoid": true}, MaxTensorSize: 100},
	}, nil)
	if ok {
		t.Fatalf("expected Distribute to report no match")
	}
	if _, ok := p.AssignedMiner("t1"); ok {
		t.Fatalf("expected no assignment to be recorded")
	}
}
