package reward

import (
	"testing"
	"time"

	"github.com/tribechain/tribechain/pkg/block"
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

func TestBonusTruncates(t *testing.T) {
	if got := Bonus(1.0); got != MiningReward {
		t.Fatalf("Bonus(1.0) = %d, want %d", got, MiningReward)
	}
	// 50_000_000 * 1.3 = 65_000_000 exactly, but pick a factor that
	// forces truncation.
	if got := Bonus(0.333); got != 16_650_000 {
		t.Fatalf("Bonus(0.333) = %d, want 16650000", got)
	}
}

func TestCreditClassicalBlockNoBonus(t *testing.T) {
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")
	txn, err := tx.New(alice, tx.Transfer{To: bob, Amount: 10}, 3, 1_700_000_000, 1, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	b, err := block.New(1, 1_700_000_000, types.ZeroHash, 0, 1, []tx.Transaction{txn}, mustAddr(t, "miner"), nil)
	if err != nil {
		t.Fatalf("block.New: %v", err)
	}
	want := MiningReward + 3
	if got := Credit(b); got != want {
		t.Fatalf("Credit = %d, want %d", got, want)
	}
}

func TestCreditTensorBlockAddsBonus(t *testing.T) {
	proof := &block.AI3Proof{TaskID: "t1", OptimizationFactor: 0.5, TensorHash: types.Sum([]byte("x")), ComputationTimeMs: 10}
	b, err := block.New(1, 1_700_000_000, types.ZeroHash, 0, 1, nil, mustAddr(t, "miner"), proof)
	if err != nil {
		t.Fatalf("block.New: %v", err)
	}
	want := MiningReward + Bonus(0.5)
	if got := Credit(b); got != want {
		t.Fatalf("Credit = %d, want %d", got, want)
	}
}
