package chain

import (
	"context"
	"testing"
	"time"

	"github.com/tribechain/tribechain/internal/difficulty"
	"github.com/tribechain/tribechain/internal/ledger"
	"github.com/tribechain/tribechain/internal/miner"
	"github.com/tribechain/tribechain/internal/reward"
	"github.com/tribechain/tribechain/internal/storage"
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

func newTestProcessor(t *testing.T) (*Processor, *ledger.Store) {
	t.Helper()
	store, err := ledger.Open(storage.NewMemory())
	if err != nil && err != ledger.ErrNotFound {
		t.Fatalf("ledger.Open: %v", err)
	}
	diff := difficulty.New(difficulty.AI3Adaptive)
	p := New(store, diff, nil)
	if _, err := p.Genesis(); err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	return p, store
}

func TestGenesisCreditsGenesisAddress(t *testing.T) {
	_, store := newTestProcessor(t)
	if got := store.Balance(ledger.GenesisAddress); got != ledger.GenesisBalance {
		t.Fatalf("genesis balance = %d, want %d", got, ledger.GenesisBalance)
	}
	head, ok := store.Head()
	if !ok || head.Index != 0 {
		t.Fatalf("expected genesis head at index 0")
	}
}

func TestProcessClassicalBlockCreditsMinerAndApplesTransfer(t *testing.T) {
	p, store := newTestProcessor(t)
	head, _ := store.Head()

	txn, err := tx.New(ledger.GenesisAddress, tx.Transfer{To: mustAddr(t, "bob"), Amount: 1000}, 5, uint64(time.Now().Unix()), 1, time.Now())
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}

	e := miner.New(mustAddr(t, "minerA"), 1)
	tpl := miner.Template{Index: head.Index + 1, PreviousHash: head.Hash, Transactions: []tx.Transaction{txn}, Difficulty: difficulty.InitialDifficulty}
	b, err := e.SealClassical(context.Background(), tpl)
	if err != nil {
		t.Fatalf("SealClassical: %v", err)
	}

	if verr, err := p.Process(b, Sealed); verr != nil || err != nil {
		t.Fatalf("Process: verr=%v err=%v", verr, err)
	}

	if got := store.Balance(ledger.GenesisAddress); got != ledger.GenesisBalance-1005 {
		t.Fatalf("sender balance = %d, want %d", got, ledger.GenesisBalance-1005)
	}
	if got := store.Balance(mustAddr(t, "bob")); got != 1000 {
		t.Fatalf("recipient balance = %d, want 1000", got)
	}
	wantMiner := reward.MiningReward + 5
	if got := store.Balance(mustAddr(t, "minerA")); got != wantMiner {
		t.Fatalf("miner balance = %d, want %d", got, wantMiner)
	}
}

func TestProcessRejectsNonTipPreviousHash(t *testing.T) {
	p, store := newTestProcessor(t)
	_ = store
	e := miner.New(mustAddr(t, "minerA"), 1)
	tpl := miner.Template{Index: 5, PreviousHash: types.Sum([]byte("bogus")), Difficulty: difficulty.InitialDifficulty}
	b, err := e.SealClassical(context.Background(), tpl)
	if err != nil {
		t.Fatalf("SealClassical: %v", err)
	}
	verr, err := p.Process(b, Sealed)
	if err != nil {
		t.Fatalf("Process returned infra error: %v", err)
	}
	if verr == nil {
		t.Fatalf("expected a validation rejection for a non-tip previous_hash")
	}
}

func TestProcessTensorBlockCompletesTaskAndAddsBonus(t *testing.T) {
	p, store := newTestProcessor(t)
	head, _ := store.Head()

	requester := ledger.GenesisAddress
	taskTx, err := tx.New(requester, tx.TensorCompute{Operation: "relu", InputData: []float32{-1, 0, 1, 2}, ExpectedOutputSize: 4, MaxComputeTimeMs: 5000, Reward: 10}, 2, uint64(time.Now().Unix()), 1, time.Now())
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	e := miner.New(mustAddr(t, "minerA"), 1)
	tpl := miner.Template{Index: head.Index + 1, PreviousHash: head.Hash, Transactions: []tx.Transaction{taskTx}, Difficulty: difficulty.InitialDifficulty}
	b1, err := e.SealClassical(context.Background(), tpl)
	if err != nil {
		t.Fatalf("seal task-submission block: %v", err)
	}
	if verr, err := p.Process(b1, Sealed); verr != nil || err != nil {
		t.Fatalf("process task-submission block: verr=%v err=%v", verr, err)
	}

	open := store.OpenTasks()
	if len(open) != 1 {
		t.Fatalf("expected 1 open task, got %d", len(open))
	}
	taskID := open[0].ID

	head2, _ := store.Head()
	tpl2 := miner.Template{Index: head2.Index + 1, PreviousHash: head2.Hash, Difficulty: difficulty.InitialDifficulty}
	fakeTasks := fakeTaskSource{[]task.TensorTask{open[0]}}
	b2, err := e.SealTensor(context.Background(), tpl2, fakeTasks, nil)
	if err != nil {
		t.Fatalf("SealTensor: %v", err)
	}
	if verr, err := p.Process(b2, Sealed); verr != nil || err != nil {
		t.Fatalf("process tensor block: verr=%v err=%v", verr, err)
	}

	completed, ok := store.Task(taskID)
	if !ok || !completed.Completed {
		t.Fatalf("expected task %s to be completed", taskID)
	}
	if completed.AssignedMiner != mustAddr(t, "minerA") {
		t.Fatalf("AssignedMiner = %v, want minerA", completed.AssignedMiner)
	}
	// Two coinbases, the task-submission fee, and the AI3 bonus.
	wantBalance := 2*reward.MiningReward + taskTx.Fee + reward.Bonus(b2.AI3Proof.OptimizationFactor)
	if got := store.Balance(mustAddr(t, "minerA")); got != wantBalance {
		t.Fatalf("minerA balance = %d, want %d", got, wantBalance)
	}
}

type fakeTaskSource struct{ tasks []task.TensorTask }

func (f fakeTaskSource) OpenTasks() []task.TensorTask { return f.tasks }
