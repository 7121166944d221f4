// Command tribenoded runs a TribeChain full node: it opens the local
// ledger, joins the P2P gossip network, and optionally mines blocks.
// It is the sole binary this module ships: a single daemon with no
// sub-chain sync, no RPC server yet, and no UTXO machinery to wire up.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/tribechain/tribechain/config"
	"github.com/tribechain/tribechain/internal/chain"
	"github.com/tribechain/tribechain/internal/difficulty"
	"github.com/tribechain/tribechain/internal/ledger"
	"github.com/tribechain/tribechain/internal/log"
	"github.com/tribechain/tribechain/internal/mempool"
	"github.com/tribechain/tribechain/internal/miner"
	"github.com/tribechain/tribechain/internal/p2p"
	"github.com/tribechain/tribechain/internal/storage"
	"github.com/tribechain/tribechain/internal/validator"
	"github.com/tribechain/tribechain/internal/wallet"
	"github.com/tribechain/tribechain/pkg/block"
	"github.com/tribechain/tribechain/pkg/crypto"
	"github.com/tribechain/tribechain/pkg/task"
	"github.com/tribechain/tribechain/pkg/types"
	"github.com/tribechain/tribechain/pkg/wire"
)

// minerWalletName and minerWalletPassword name the keystore entry
// SealTensor's optional authorship signature is derived from. The
// signature is never consensus-enforced (spec.md §9 open question 6),
// so a fixed local passphrase is enough: it guards against accidental
// tampering with the on-disk file, not against a motivated attacker
// with filesystem access.
const (
	minerWalletName     = "miner"
	minerWalletPassword = "tribenoded-miner-identity"
)

// loadOrCreateMinerSigner loads the node's miner-identity signing key
// from cfg.WalletDir(), generating and persisting a new HD wallet on
// first run. Mirrors internal/p2p's loadOrCreateIdentity: persist once,
// load thereafter.
func loadOrCreateMinerSigner(cfg *config.Config) (*crypto.PrivateKey, error) {
	ks, err := wallet.NewKeystore(cfg.WalletDir())
	if err != nil {
		return nil, fmt.Errorf("open miner keystore: %w", err)
	}

	seed, err := ks.Load(minerWalletName, []byte(minerWalletPassword))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load miner wallet: %w", err)
		}
		mnemonic, err := wallet.GenerateMnemonic()
		if err != nil {
			return nil, fmt.Errorf("generate miner wallet mnemonic: %w", err)
		}
		seed, err = wallet.SeedFromMnemonic(mnemonic, "")
		if err != nil {
			return nil, fmt.Errorf("derive miner wallet seed: %w", err)
		}
		if err := ks.Create(minerWalletName, seed, []byte(minerWalletPassword), wallet.DefaultParams()); err != nil {
			return nil, fmt.Errorf("create miner wallet: %w", err)
		}
	}

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("derive miner master key: %w", err)
	}
	account, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		return nil, fmt.Errorf("derive miner signing key: %w", err)
	}
	return account.Signer()
}

// mempoolMaxSize bounds the pending-transaction queue. spec.md names
// no fee market or eviction policy, so a generous fixed cap is enough
// to keep an unbounded peer from growing the pool without limit.
const mempoolMaxSize = 50_000

// taskExpiryGrace is the cleanup_expired() grace period (spec.md §4.F),
// added on top of a task's own max_compute_time_ms before it is dropped.
const taskExpiryGrace = 60

// taskCleanupInterval is how often the expired-task sweep runs.
const taskCleanupInterval = 30 * time.Second

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "tribenoded:", err)
		os.Exit(1)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintln(os.Stderr, "tribenoded: init logging:", err)
		os.Exit(1)
	}
	log.Info().Str("network", string(cfg.Network)).Str("datadir", cfg.DataDir).Msg("starting tribenoded")

	genesis := config.GenesisFor(cfg.Network)
	if err := genesis.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid genesis configuration")
	}

	db, err := storage.NewBadger(cfg.LedgerDir())
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger database")
	}
	defer db.Close()

	store, err := ledger.Open(db)
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger store")
	}

	diff := difficulty.New(difficulty.Algorithm(genesis.Protocol.Consensus.DifficultyAlgorithm))

	// node is assigned below, once P2P starts; broadcastBlock closes
	// over the pointer so chain.New can be built before the P2P node
	// exists (the two halves of the gossip transport depend on each
	// other: the processor needs a broadcast hook, the node needs
	// handlers that call the processor).
	var node *p2p.Node
	broadcastBlock := func(b block.Block) {
		if node == nil {
			return
		}
		data, err := wire.EncodeBlock(b)
		if err != nil {
			log.Chain.Error().Err(err).Msg("encode block for broadcast")
			return
		}
		if err := node.BroadcastBlock(data); err != nil {
			log.P2P.Warn().Err(err).Msg("broadcast block")
		}
	}

	proc := chain.New(store, diff, broadcastBlock)
	if _, err := proc.Genesis(); err != nil {
		log.Fatal().Err(err).Msg("build genesis block")
	}

	pool := mempool.New(mempoolMaxSize)

	if cfg.P2P.Enabled {
		node = p2p.New(p2p.Config{
			ListenAddr: cfg.P2P.ListenAddr,
			Port:       cfg.P2P.ListenPort,
			Seeds:      cfg.P2P.Seeds,
			MaxPeers:   cfg.P2P.MaxPeers,
			NoDiscover: cfg.P2P.NoDiscover,
			NetworkID:  string(cfg.Network),
			DataDir:    cfg.ChainDataDir(),
		})

		node.SetTxHandler(func(from peer.ID, data []byte) {
			handleInboundTransaction(store, pool, data)
		})
		node.SetBlockHandler(func(from peer.ID, data []byte) {
			handleInboundBlock(proc, data)
		})

		if err := node.Start(); err != nil {
			log.Fatal().Err(err).Msg("start p2p node")
		}
		defer node.Stop()
		log.P2P.Info().Str("id", node.ID().String()).Strs("addrs", node.Addrs()).Msg("p2p node listening")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Mining.Enabled {
		coinbase, err := types.ParseAddress(cfg.Mining.Coinbase)
		if err != nil {
			log.Fatal().Err(err).Str("coinbase", cfg.Mining.Coinbase).Msg("invalid mining coinbase address")
		}
		engine := miner.New(coinbase, cfg.Mining.BaselineHashRate)
		if cfg.Mining.AI3Enabled {
			signer, err := loadOrCreateMinerSigner(cfg)
			if err != nil {
				log.Fatal().Err(err).Msg("load miner identity key")
			}
			engine.Signer = signer
		}
		go runMiningLoop(ctx, proc, pool, diff, engine, cfg.Mining.AI3Enabled)
	}

	go runTaskCleanup(ctx, pool)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")
	cancel()
}

// handleInboundTransaction decodes, verifies, and stateless-validates
// a gossiped transaction, re-checks its sender's balance against the
// current ledger, and admits it to pool. Failures are logged at debug
// level: a malformed or already-seen transaction from a peer is
// routine, not an operational problem.
func handleInboundTransaction(store *ledger.Store, pool *mempool.Pool, data []byte) {
	t, err := wire.DecodeTransaction(data)
	if err != nil {
		log.Mempool.Debug().Err(err).Msg("reject gossiped transaction: decode")
		return
	}
	if err := t.VerifyHash(); err != nil {
		log.Mempool.Debug().Err(err).Str("tx", t.ID).Msg("reject gossiped transaction: hash")
		return
	}
	if err := t.ValidateStateless(time.Now()); err != nil {
		log.Mempool.Debug().Err(err).Str("tx", t.ID).Msg("reject gossiped transaction: stateless")
		return
	}
	if verr := validator.ValidateTransactionState(t, store); verr != nil {
		log.Mempool.Debug().Str("kind", string(verr.Kind)).Str("tx", t.ID).Msg("reject gossiped transaction: state")
		return
	}
	if err := pool.AddTransaction(t); err != nil {
		log.Mempool.Debug().Err(err).Str("tx", t.ID).Msg("drop gossiped transaction")
		return
	}
	log.Mempool.Debug().Str("tx", t.ID).Msg("accepted gossiped transaction")
}

// handleInboundBlock decodes a gossiped block and runs it through the
// same validate -> apply -> persist sequence a locally-sealed block
// takes, with origin chain.FromPeer so it is not re-broadcast.
func handleInboundBlock(proc *chain.Processor, data []byte) {
	b, err := wire.DecodeBlock(data)
	if err != nil {
		log.Chain.Debug().Err(err).Msg("reject gossiped block: decode")
		return
	}
	if verr, err := proc.Process(b, chain.FromPeer); err != nil {
		log.Chain.Error().Err(err).Uint64("index", b.Index).Msg("process gossiped block")
	} else if verr != nil {
		log.Chain.Debug().Str("kind", string(verr.Kind)).Str("reason", verr.Reason).Uint64("index", b.Index).Msg("reject gossiped block")
	}
}

// runMiningLoop continuously seals blocks on top of the current head
// until ctx is cancelled. When ai3Enabled, it prefers SealTensor
// (self-capable of any open task, since this node has no configured
// operation whitelist) and falls back to SealClassical whenever no
// open task is runnable or the tensor run itself fails.
func runMiningLoop(ctx context.Context, proc *chain.Processor, pool *mempool.Pool, diff *difficulty.Controller, engine *miner.Engine, ai3Enabled bool) {
	anyCapability := func(task.TensorTask) bool { return true }

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		head, ok := proc.Store.Head()
		if !ok {
			log.Miner.Error().Msg("mining loop: no chain head; genesis should have produced one")
			return
		}
		txs := pool.SelectForBlock(mempool.DefaultMaxPerBlock)
		tmpl := miner.Template{
			Index:        head.Index + 1,
			PreviousHash: head.Hash,
			Transactions: txs,
			Difficulty:   diff.ExpectedDifficulty(head.Index + 1),
		}

		var sealed block.Block
		var err error
		if ai3Enabled {
			sealed, err = engine.SealTensor(ctx, tmpl, pool, anyCapability)
			if err != nil {
				sealed, err = engine.SealClassical(ctx, tmpl)
			}
		} else {
			sealed, err = engine.SealClassical(ctx, tmpl)
		}
		if err != nil {
			if errors.Is(err, miner.ErrNoSolution) {
				continue
			}
			log.Miner.Error().Err(err).Msg("seal block")
			continue
		}

		if verr, err := proc.Process(sealed, chain.Sealed); err != nil {
			log.Miner.Error().Err(err).Uint64("index", sealed.Index).Msg("apply sealed block")
			continue
		} else if verr != nil {
			log.Miner.Warn().Str("kind", string(verr.Kind)).Str("reason", verr.Reason).Msg("sealed block rejected by own validator")
			continue
		}

		hashes := make([]types.Hash, len(sealed.Transactions))
		for i, t := range sealed.Transactions {
			hashes[i] = t.Hash
		}
		pool.RemoveCommitted(hashes)
	}
}

// runTaskCleanup periodically drops tensor-compute tasks that have
// sat open past max_compute_time_ms + taskExpiryGrace (spec.md §4.F's
// cleanup_expired()).
func runTaskCleanup(ctx context.Context, pool *mempool.Pool) {
	ticker := time.NewTicker(taskCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := pool.CleanupExpired(uint64(time.Now().Unix()), taskExpiryGrace)
			if len(expired) > 0 {
				log.Mempool.Debug().Int("count", len(expired)).Msg("dropped expired tensor tasks")
			}
		}
	}
}
