package block

import (
	"testing"
	"time"

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

func TestBlockHashAndMerkleRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	genesis := mustAddr(t, "genesis")
	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")

	txn, err := tx.New(genesis, tx.Transfer{To: alice, Amount: 100}, 1, uint64(now.Unix()), 1, now)
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}

	b, err := New(1, uint64(now.Unix()), GenesisPreviousHash, 0, 1, []tx.Transaction{txn}, bob, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b.VerifyHash(); err != nil {
		t.Fatalf("VerifyHash: %v", err)
	}
	if err := b.VerifyMerkleRoot(); err != nil {
		t.Fatalf("VerifyMerkleRoot: %v", err)
	}
}

func TestEmptyBlockMerkleRootIsZero(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bob := mustAddr(t, "bob")
	b, err := New(0, uint64(now.Unix()), GenesisPreviousHash, 0, 1, nil, bob, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.MerkleRoot != types.ZeroHash {
		t.Fatalf("empty block merkle root = %s, want all-zero", b.MerkleRoot)
	}
}

func TestTensorDifficultyCeiling(t *testing.T) {
	cases := map[uint64]uint64{
		4: 6,
		5: 8,
		1: 2,
	}
	for in, want := range cases {
		if got := TensorDifficulty(in); got != want {
			t.Errorf("TensorDifficulty(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestVerifyProofOfWorkChecksLeadingZeros(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bob := mustAddr(t, "bob")
	b, err := New(0, uint64(now.Unix()), GenesisPreviousHash, 0, 64, nil, bob, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Difficulty 64 leading zero hex chars is astronomically unlikely to
	// be satisfied by an unsearched nonce, so VerifyProofOfWork must fail.
	if err := b.VerifyProofOfWork(); err == nil {
		t.Fatalf("expected VerifyProofOfWork to fail for an unmined high-difficulty block")
	}
}
