// Package miner implements the sealing engine: the classical and
// tensor proof-of-work loops that turn a block template into a sealed
// Block. It generalizes a big.Int-target nonce-search loop
// (originally sealSingle/sealParallel over a 256-bit target) to the
// leading-hex-zeros rule pkg/block.Block.VerifyProofOfWork uses, and
// extends it with the tensor-task pre-run the classical engine never
// needed.
package miner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tribechain/tribechain/internal/log"
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/crypto"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tensor"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// Timeout is the hard wall-clock cap on one sealing attempt, per
// spec.md §4.H.
const Timeout = 5 * time.Minute

// ProgressInterval is how often the classical loop logs progress.
const ProgressInterval = 100_000

// State is the sealing engine's view of a single sealing attempt:
// Idle -> TemplateBuilt -> (TensorRun ->)? NonceSearch -> (Found | Timeout).
type State string

const (
	Idle          State = "idle"
	TemplateBuilt State = "template_built"
	TensorRun     State = "tensor_run"
	NonceSearch   State = "nonce_search"
	Found         State = "found"
	Timeout_      State = "timeout"
)

// ErrNoSolution is returned when the nonce loop exhausts its timeout
// or is cancelled before finding a satisfying hash.
var ErrNoSolution = errors.New("miner: no solution found before timeout or cancellation")

// ErrNoCapableTask is returned by SealTensor when no open task matches
// the miner's capability set.
var ErrNoCapableTask = errors.New("miner: no open task this miner can run")

// ErrTaskBudgetExceeded is returned by SealTensor when the kernel run
// took longer than the task's max_compute_time_ms budget.
var ErrTaskBudgetExceeded = errors.New("miner: task exceeded its compute time budget")

// TaskSource is the slice of the mempool the tensor loop needs: the
// open-task set, in the pool's deterministic tie-break order.
type TaskSource interface {
	OpenTasks() []task.TensorTask
}

// Capability reports whether a miner can run a task's operation over
// its input size, mirroring internal/mempool.MinerCapability without
// importing it (the engine only needs the predicate, not the registry
// type).
type Capability func(t task.TensorTask) bool

// Engine seals block templates on behalf of one miner identity.
type Engine struct {
	Miner types.Address

	// BaselineHashRate is the denominator of the optimization_factor
	// computation (spec.md §4.H): observed_hashrate/baseline, clamped
	// to [0.1, 2.0].
	BaselineHashRate float64

	// Signer optionally authors AI3Proof.MinerSignature over a tensor
	// seal's task_id/tensor_hash commitment. nil means the proof ships
	// with an empty signature, which the core accepts unconditionally
	// (spec.md §9 open question 6: reserved, never verified).
	Signer *crypto.PrivateKey
}

// New builds an Engine for the given miner address.
func New(miner types.Address, baselineHashRate float64) *Engine {
	if baselineHashRate <= 0 {
		baselineHashRate = 1
	}
	return &Engine{Miner: miner, BaselineHashRate: baselineHashRate}
}

// Template holds everything SealClassical/SealTensor need to build a
// Block except the nonce: the fields spec.md §4.H says a sealing
// attempt assembles before entering either loop.
type Template struct {
	Index        uint64
	PreviousHash types.Hash
	Transactions []tx.Transaction
	Difficulty   uint64
}

// SealClassical runs the classical nonce-search loop against t,
// returning a Found block or ErrNoSolution on timeout/cancellation.
func (e *Engine) SealClassical(ctx context.Context, t Template) (block.Block, error) {
	return e.seal(ctx, t, nil)
}

// SealTensor picks one open task this miner can run (via capable),
// executes it once, then runs the classical loop at the task's
// elevated difficulty (ceil(difficulty*1.5)), attaching the resulting
// AI3Proof to the sealed block.
func (e *Engine) SealTensor(ctx context.Context, t Template, tasks TaskSource, capable Capability) (block.Block, error) {
	var chosen *task.TensorTask
	for _, candidate := range tasks.OpenTasks() {
		if capable == nil || capable(candidate) {
			c := candidate
			chosen = &c
			break
		}
	}
	if chosen == nil {
		return block.Block{}, ErrNoCapableTask
	}

	runStart := time.Now()
	op, err := task.BuildOp(chosen.Operation, chosen.InputData)
	if err != nil {
		return block.Block{}, fmt.Errorf("miner: rebuild operation %q: %w", chosen.Operation, err)
	}
	out, err := tensor.Execute(op)
	if err != nil {
		return block.Block{}, fmt.Errorf("miner: execute %q: %w", chosen.Operation, err)
	}
	computeMs := uint64(time.Since(runStart).Milliseconds())
	if computeMs > chosen.MaxComputeTimeMs {
		return block.Block{}, fmt.Errorf("%w: task %s budget %dms, took %dms", ErrTaskBudgetExceeded, chosen.ID, chosen.MaxComputeTimeMs, computeMs)
	}

	hashRate := e.observedHashRate(computeMs)
	factor := clampFactor(hashRate / e.BaselineHashRate)

	proof := &block.AI3Proof{
		TaskID:             chosen.ID,
		OptimizationFactor: factor,
		TensorHash:         types.Sum(out.Encode()),
		ComputationTimeMs:  computeMs,
	}
	if e.Signer != nil {
		sig, err := e.Signer.Sign(authorshipDigest(proof.TaskID, proof.TensorHash, e.Miner))
		if err != nil {
			return block.Block{}, fmt.Errorf("miner: sign authorship proof: %w", err)
		}
		proof.MinerSignature = sig
	}
	// t.Difficulty stays at the base value: Block.RequiredZeros already
	// applies TensorDifficulty once proof is non-nil, and
	// ValidateBlockState compares Block.Difficulty against the base
	// ExpectedDifficulty, not the elevated target.
	return e.seal(ctx, t, proof)
}

// authorshipDigest is the message an optional miner identity key signs
// into AI3Proof.MinerSignature: a commitment to the task and tensor
// result the proof already carries, independent of the block's own
// nonce/hash so it can be computed once, before the nonce search
// begins (spec.md §9 open question 6).
func authorshipDigest(taskID string, tensorHash types.Hash, miner types.Address) []byte {
	buf := make([]byte, 0, len(taskID)+len(tensorHash)+len(miner))
	buf = append(buf, taskID...)
	buf = append(buf, tensorHash[:]...)
	buf = append(buf, miner...)
	digest := types.Sum(buf)
	return digest[:]
}

// observedHashRate is a placeholder proxy for "how fast this miner
// computes": faster tensor execution implies a faster host, so a
// smaller computeMs yields a larger rate. Grounded on
// original_source/mining/src/ai3_mining.rs's hashrate-from-duration
// heuristic used to score a completed task.
func (e *Engine) observedHashRate(computeMs uint64) float64 {
	if computeMs == 0 {
		computeMs = 1
	}
	return e.BaselineHashRate * (1000.0 / float64(computeMs))
}

func clampFactor(v float64) float32 {
	if v < float64(block.MinOptimizationFactor) {
		return block.MinOptimizationFactor
	}
	if v > float64(block.MaxOptimizationFactor) {
		return block.MaxOptimizationFactor
	}
	return float32(v)
}

// seal builds the block template (Merkle root, timestamp) and runs
// the classical nonce-search loop, attaching proof (nil for a
// classical seal) to the result.
func (e *Engine) seal(ctx context.Context, t Template, proof *block.AI3Proof) (block.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	timestamp := uint64(time.Now().Unix())
	merkleRoot := block.ComputeMerkleRoot(t.Transactions)

	b := block.Block{
		Index:        t.Index,
		Timestamp:    timestamp,
		PreviousHash: t.PreviousHash,
		Difficulty:   t.Difficulty,
		Transactions: t.Transactions,
		Miner:        e.Miner,
		MerkleRoot:   merkleRoot,
		AI3Proof:     proof,
	}
	required := b.RequiredZeros()

	for nonce := uint64(0); ; nonce++ {
		if nonce > 0 && nonce%ProgressInterval == 0 {
			log.Miner.Debug().Uint64("nonce", nonce).Uint64("required_zeros", required).Msg("sealing progress")
			select {
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return block.Block{}, fmt.Errorf("%w: %s", ErrNoSolution, ctx.Err())
				}
				return block.Block{}, fmt.Errorf("%w: cancelled", ErrNoSolution)
			default:
			}
		}

		b.Nonce = nonce
		enc, err := b.Encode()
		if err != nil {
			return block.Block{}, err
		}
		b.Hash = types.Sum(enc)
		if err := b.VerifyProofOfWork(); err == nil {
			return b, nil
		}
		if nonce == ^uint64(0) {
			return block.Block{}, fmt.Errorf("%w: nonce space exhausted", ErrNoSolution)
		}
	}
}
