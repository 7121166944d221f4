// Package block defines the Block entity: construction, canonical
// encoding, and hash derivation, per spec §3/§4.C. Like pkg/tx, it
// implements only the checks derivable from the block's own fields;
// parent-linkage and difficulty-target checks that need chain state
// live in internal/validator.
package block

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tribechain/tribechain/pkg/merkle"
	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// GenesisPreviousHash is the sentinel previous_hash of the genesis block.
var GenesisPreviousHash = types.ZeroHash

// ErrInvalidBlock is the sentinel wrapped by block validation failures.
var ErrInvalidBlock = errors.New("invalid block")

// Block is immutable once constructed; Seal (in internal/miner) is the
// only place nonce/hash are iterated, and it does so on an unshared
// template copy before the block is ever returned.
type Block struct {
	Index        uint64
	Timestamp    uint64
	PreviousHash types.Hash
	Nonce        uint64
	Difficulty   uint64
	Transactions []tx.Transaction
	Miner        types.Address
	MerkleRoot   types.Hash
	AI3Proof     *AI3Proof
	Hash         types.Hash
}

// ComputeMerkleRoot derives the Merkle root of txs per spec.md §4.A:
// each transaction's own hash is a leaf directly, not re-hashed.
func ComputeMerkleRoot(txs []tx.Transaction) types.Hash {
	leaves := make([]types.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash
	}
	return merkle.Root(leaves)
}

// New builds, merkle-roots, and hashes a block template. It does not
// search for a nonce-satisfying difficulty; that is the sealing
// engine's job (internal/miner). New is also used directly for the
// genesis block, whose Nonce is always 0 and whose difficulty is the
// chain's configured initial difficulty.
func New(index, timestamp uint64, previousHash types.Hash, nonce, difficulty uint64, txs []tx.Transaction, miner types.Address, proof *AI3Proof) (Block, error) {
	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		PreviousHash: previousHash,
		Nonce:        nonce,
		Difficulty:   difficulty,
		Transactions: txs,
		Miner:        miner,
		AI3Proof:     proof,
	}
	b.MerkleRoot = ComputeMerkleRoot(txs)
	h, err := b.deriveHash()
	if err != nil {
		return Block{}, err
	}
	b.Hash = h
	return b, nil
}

// Encode produces the canonical byte string hashed to derive Hash:
// index, timestamp, previous_hash, nonce, difficulty, miner,
// merkle_root, and the JSON encoding of the optional AI3 proof, per
// spec.md §3.
func (b Block) Encode() ([]byte, error) {
	proofJSON, err := json.Marshal(b.AI3Proof)
	if err != nil {
		return nil, fmt.Errorf("%w: encode ai3_proof: %v", ErrInvalidBlock, err)
	}
	buf := make([]byte, 0, 128+len(proofJSON))
	buf = strconv.AppendUint(buf, b.Index, 10)
	buf = strconv.AppendUint(buf, b.Timestamp, 10)
	buf = append(buf, b.PreviousHash.String()...)
	buf = strconv.AppendUint(buf, b.Nonce, 10)
	buf = strconv.AppendUint(buf, b.Difficulty, 10)
	buf = append(buf, b.Miner.String()...)
	buf = append(buf, b.MerkleRoot.String()...)
	buf = append(buf, proofJSON...)
	return buf, nil
}

func (b Block) deriveHash() (types.Hash, error) {
	enc, err := b.Encode()
	if err != nil {
		return types.Hash{}, err
	}
	return types.Sum(enc), nil
}

// VerifyHash reports whether b.Hash matches its derivation.
func (b Block) VerifyHash() error {
	want, err := b.deriveHash()
	if err != nil {
		return err
	}
	if want != b.Hash {
		return fmt.Errorf("%w: hash mismatch", ErrInvalidBlock)
	}
	return nil
}

// VerifyMerkleRoot reports whether b.MerkleRoot matches a fresh
// computation from b.Transactions.
func (b Block) VerifyMerkleRoot() error {
	if ComputeMerkleRoot(b.Transactions) != b.MerkleRoot {
		return fmt.Errorf("%w: merkle root mismatch", ErrInvalidBlock)
	}
	return nil
}

// RequiredZeros is the number of leading hex zero characters b.Hash
// must have: Difficulty for a classical block, ceil(Difficulty*1.5)
// when an AI3Proof is present (spec.md §3 Block invariants).
func (b Block) RequiredZeros() uint64 {
	if b.AI3Proof == nil {
		return b.Difficulty
	}
	return TensorDifficulty(b.Difficulty)
}

// TensorDifficulty computes ceil(difficulty * 1.5).
func TensorDifficulty(difficulty uint64) uint64 {
	return (difficulty*3 + 1) / 2
}

// VerifyProofOfWork reports whether b.Hash has at least RequiredZeros
// leading hex zero characters.
func (b Block) VerifyProofOfWork() error {
	want := b.RequiredZeros()
	hex := b.Hash.String()
	if uint64(len(hex)) < want {
		return fmt.Errorf("%w: hash too short for required difficulty", ErrInvalidBlock)
	}
	for i := uint64(0); i < want; i++ {
		if hex[i] != '0' {
			return fmt.Errorf("%w: hash %s does not have %d leading zeros", ErrInvalidBlock, hex, want)
		}
	}
	return nil
}
