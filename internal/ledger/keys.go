package ledger

import (
	"fmt"

	"github.com/tribechain/tribechain/pkg/types"
)

// Key prefixes, per spec.md §4.D's persistence layout.
const (
	headKey      = "blockchain"
	blockKeyFmt  = "block_%d"
	txKeyFmt     = "tx_%s"
	appKeyPrefix = "app_"
)

func blockKey(index uint64) []byte {
	return []byte(fmt.Sprintf(blockKeyFmt, index))
}

func txKey(hash types.Hash) []byte {
	return []byte(fmt.Sprintf(txKeyFmt, hash.String()))
}

func appKey(key string) []byte {
	return append([]byte(appKeyPrefix), key...)
}
