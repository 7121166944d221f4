// Package chain implements the block processor: the all-or-nothing
// validate -> apply -> persist -> emit sequence spec.md §4.I defines
// for both locally-sealed and peer-delivered blocks.
package chain

import (
	"fmt"
	"time"

	"github.com/tribechain/tribechain/internal/difficulty"
	"github.com/tribechain/tribechain/internal/ledger"
	"github.com/tribechain/tribechain/internal/log"
	"github.com/tribechain/tribechain/internal/reward"
	"github.com/tribechain/tribechain/internal/validator"
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/tensor"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// BroadcastFunc is the P2P broadcast hook, called once per locally-
// accepted block (spec.md §4.I step 9). Process skips it for a
// peer-origin block so the node doesn't echo it back.
type BroadcastFunc func(b block.Block)

// Processor orchestrates validate -> apply -> persist -> emit for
// every block the node accepts, whether sealed locally or received
// from a peer (spec.md §1's data-flow note: "Inbound blocks from peers
// traverse the same Block processor path, skipping the sealing step").
type Processor struct {
	Store      *ledger.Store
	Difficulty *difficulty.Controller
	Validator  *validator.Validator
	Broadcast  BroadcastFunc
}

// New builds a Processor. broadcast may be nil, meaning no P2P hook
// is wired (e.g. in tests, or a node running without networking).
func New(store *ledger.Store, diff *difficulty.Controller, broadcast BroadcastFunc) *Processor {
	return &Processor{
		Store:      store,
		Difficulty: diff,
		Validator:  validator.New(),
		Broadcast:  broadcast,
	}
}

// Genesis builds and commits the chain's genesis block: index 0, the
// sentinel previous_hash, a lone balance entry crediting
// ledger.GenesisAddress with ledger.GenesisBalance, and no
// transactions or proof. It is a no-op (returning the current head)
// if the store already has a head.
func (p *Processor) Genesis() (block.Block, error) {
	if head, ok := p.Store.Head(); ok {
		return head, nil
	}
	g, err := block.New(0, uint64(time.Now().Unix()), block.GenesisPreviousHash, 0, difficulty.InitialDifficulty, nil, ledger.GenesisAddress, nil)
	if err != nil {
		return block.Block{}, fmt.Errorf("chain: build genesis: %w", err)
	}
	batch := ledger.CommitBatch{
		Block:       g,
		BalanceSets: map[types.Address]types.Amount{ledger.GenesisAddress: ledger.GenesisBalance},
	}
	if err := p.Store.Commit(batch); err != nil {
		return block.Block{}, fmt.Errorf("chain: commit genesis: %w", err)
	}
	p.Difficulty.AddBlockTime(0, g.Timestamp, 0)
	return g, nil
}

// Origin marks whether a block being processed was just sealed locally
// or arrived from a peer, so Process knows whether to invoke the
// broadcast hook: a peer-delivered block isn't echoed back to the
// network it came from.
type Origin bool

const (
	FromPeer Origin = false
	Sealed   Origin = true
)

// Process runs the full spec.md §4.I sequence against b. On any
// failure the store is left exactly as it was (ledger.Store.Commit's
// own all-or-nothing guarantee); Process itself never partially
// applies a block.
func (p *Processor) Process(b block.Block, origin Origin) (*validator.Error, error) {
	parent, hasParent := p.Store.Head()
	now := time.Now()

	if verr := p.Validator.ValidateBlockStateless(b, parent, hasParent, now); verr != nil {
		log.Chain.Warn().Str("kind", string(verr.Kind)).Str("reason", verr.Reason).Msg("block rejected: stateless")
		return verr, nil
	}
	if verr := p.Validator.ValidateBlockState(b, p.Store, p.Difficulty); verr != nil {
		log.Chain.Warn().Str("kind", string(verr.Kind)).Str("reason", verr.Reason).Msg("block rejected: state")
		return verr, nil
	}

	batch, err := p.buildBatch(b)
	if err != nil {
		return &validator.Error{Kind: validator.Generic, Reason: err.Error()}, nil
	}

	if err := p.Store.Commit(batch); err != nil {
		return nil, fmt.Errorf("chain: commit block %d: %w", b.Index, err)
	}

	p.Difficulty.AddBlockTime(b.Index, b.Timestamp, p.minerHashRate(b.Miner))
	p.Difficulty.Advance(b.Index + 1)

	log.Chain.Info().Uint64("index", b.Index).Str("hash", b.Hash.String()).Str("miner", b.Miner.String()).Msg("block accepted")

	if origin == Sealed && p.Broadcast != nil {
		p.Broadcast(b)
	}
	return nil, nil
}

// buildBatch computes every balance delta, task-pool transition, and
// miner-registry update b causes, per spec.md §4.I steps 2-6. It does
// not mutate the store; Store.Commit does that once the batch is
// staged to the byte store.
func (p *Processor) buildBatch(b block.Block) (ledger.CommitBatch, error) {
	balances := make(map[types.Address]types.Amount)
	getBalance := func(addr types.Address) types.Amount {
		if v, ok := balances[addr]; ok {
			return v
		}
		return p.Store.Balance(addr)
	}

	var newTasks []task.TensorTask
	for _, t := range b.Transactions {
		consumed := validator.ConsumedAmount(t)
		from := getBalance(t.From)
		next, err := types.SubAmount(from, consumed)
		if err != nil {
			return ledger.CommitBatch{}, fmt.Errorf("chain: tx %s: %w", t.Hash, err)
		}
		balances[t.From] = next

		switch k := t.Kind.(type) {
		case tx.Transfer:
			to, err := types.AddAmount(getBalance(k.To), k.Amount)
			if err != nil {
				return ledger.CommitBatch{}, fmt.Errorf("chain: tx %s: %w", t.Hash, err)
			}
			balances[k.To] = to
		case tx.TensorCompute:
			newTasks = append(newTasks, task.New(t.ID, k.Operation, k.InputData, k.ExpectedOutputSize, k.MaxComputeTimeMs, k.Reward, t.From, b.Timestamp))
		}
	}

	var completed []task.TensorTask
	if b.AI3Proof != nil {
		t, ok := p.Store.Task(b.AI3Proof.TaskID)
		if !ok {
			// Already validated as open by ValidateBlockState; a
			// concurrent-state race would be a programmer error, not a
			// recoverable condition.
			return ledger.CommitBatch{}, fmt.Errorf("chain: ai3 proof references unknown task %s", b.AI3Proof.TaskID)
		}
		result, err := recomputeResult(t, b.AI3Proof)
		if err != nil {
			return ledger.CommitBatch{}, err
		}
		done, err := t.Complete(result, b.Miner)
		if err != nil {
			return ledger.CommitBatch{}, fmt.Errorf("chain: %w", err)
		}
		completed = append(completed, done)
	}

	minerCredit := reward.Credit(b)
	minerBalance, err := types.AddAmount(getBalance(b.Miner), minerCredit)
	if err != nil {
		return ledger.CommitBatch{}, fmt.Errorf("chain: miner credit: %w", err)
	}
	balances[b.Miner] = minerBalance

	return ledger.CommitBatch{
		Block:          b,
		BalanceSets:    balances,
		NewTasks:       newTasks,
		CompletedTasks: completed,
		MinerUpdates: map[types.Address]ledger.MinerInfo{
			b.Miner: p.nextMinerInfo(b),
		},
	}, nil
}

// recomputeResult derives a completed TensorTask's stored result by
// re-running the same kernel the validator already used to check
// proof.tensor_hash, per spec.md §9's decision that the output is
// "recomputed locally" rather than trusted from the wire.
func recomputeResult(t task.TensorTask, proof *block.AI3Proof) ([]float32, error) {
	op, err := task.BuildOp(t.Operation, t.InputData)
	if err != nil {
		return nil, fmt.Errorf("chain: rebuild operation %q for task %s: %w", t.Operation, t.ID, err)
	}
	out, err := tensor.Execute(op)
	if err != nil {
		return nil, fmt.Errorf("chain: recompute task %s: %w", t.ID, err)
	}
	if got := types.Sum(out.Encode()); got != proof.TensorHash {
		return nil, fmt.Errorf("chain: task %s tensor_hash mismatch on recomputation", t.ID)
	}
	return out.Data, nil
}

func (p *Processor) nextMinerInfo(b block.Block) ledger.MinerInfo {
	info, _ := p.Store.Miner(b.Miner)
	info.LastSeen = b.Timestamp
	info.BlocksMined++
	if b.AI3Proof != nil {
		info.AI3Capable = true
	}
	return info
}

func (p *Processor) minerHashRate(miner types.Address) float64 {
	info, ok := p.Store.Miner(miner)
	if !ok {
		return 0
	}
	return info.HashRate
}
