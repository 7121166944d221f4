// Package merkle computes the binary Merkle root used to commit a
// block's transaction set to its header.
package merkle

import "github.com/tribechain/tribechain/pkg/types"

// Root computes the Merkle root of a list of leaf hashes.
//
// The tree is built bottom-up: at each level, pairs of nodes are hashed
// together with types.SumConcat; if a level has an odd number of nodes,
// the last node is duplicated and hashed with itself. An empty input
// yields the all-zero hash (32 zero bytes), matching the empty-block
// sentinel used throughout the ledger.
func Root(leaves []types.Hash) types.Hash {
	if len(leaves) == 0 {
		return types.ZeroHash
	}

	level := make([]types.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]types.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, types.SumConcat(level[i], level[i+1]))
			} else {
				next = append(next, types.SumConcat(level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}
