package task

import (
	"errors"
	"testing"

	"github.com/tribechain/tribechain/pkg/types"
)

func TestCompleteIsTerminal(t *testing.T) {
	requester, _ := types.NewAddress("user")
	miner, _ := types.NewAddress("m")
	tsk := New("t1", "relu", []float32{-1, 0, 1, 2}, 4, 5000, 10, requester, 1000)

	done, err := tsk.Complete([]float32{0, 0, 1, 2}, miner)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.Completed || done.AssignedMiner != miner {
		t.Fatalf("Complete did not set Completed/AssignedMiner: %+v", done)
	}

	if _, err := done.Complete([]float32{9}, miner); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	// Original task is untouched (Complete returns a copy).
	if tsk.Completed {
		t.Fatalf("New/Complete mutated the receiver")
	}
}

func TestExpired(t *testing.T) {
	requester, _ := types.NewAddress("user")
	tsk := New("t1", "relu", nil, 4, 5000, 10, requester, 1000)
	if tsk.Expired(1004, 0) {
		t.Fatalf("should not be expired within max_compute_time_ms window")
	}
	if !tsk.Expired(1006, 0) {
		t.Fatalf("should be expired past max_compute_time_ms + grace")
	}
}
