package ledger

// MinerInfo is the miner-registry entry for one address, per spec.md §3.
type MinerInfo struct {
	HashRate    float64
	LastSeen    uint64
	BlocksMined uint64
	AI3Capable  bool
}
