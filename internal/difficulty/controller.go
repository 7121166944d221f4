// Package difficulty implements the block-sealing difficulty
// controller: retargeting from recent block times (and, for the
// default algorithm, observed hash rate), per spec.md §4.G.
package difficulty

// Algorithm selects which retargeting rule a Controller applies.
type Algorithm string

const (
	// AI3Adaptive is the default: retargets every 10 blocks, factoring
	// in both block-time drift and reported hash rate.
	AI3Adaptive Algorithm = "ai3_adaptive"
	// BitcoinLike retargets every 2016 blocks against a 600s target.
	BitcoinLike Algorithm = "bitcoin_like"
	// EthereumLike retargets every block against a 15s target.
	EthereumLike Algorithm = "ethereum_like"
)

// InitialDifficulty is the chain's genesis difficulty, per spec.md §4.G.
const InitialDifficulty uint64 = 4

// MinDifficulty and MaxDifficulty bound every retarget result for the
// default algorithm, per spec.md §4.G's explicit clamp.
const (
	MinDifficulty uint64 = 1
	MaxDifficulty uint64 = 32
)

// blockTimeRecord is one entry in a Controller's retained history.
type blockTimeRecord struct {
	height     uint64
	timestamp  uint64
	difficulty uint64
	hashRate   float64
}

// Controller tracks recent block times (and, for AI3Adaptive, hash
// rate) and computes the expected difficulty for the next block.
// It is not safe for concurrent use without external synchronization;
// internal/chain calls it only while holding the ledger's write lock
// (spec.md §5's stated lock order: state -> difficulty-controller).
type Controller struct {
	Algorithm           Algorithm
	TargetBlockTime     uint64 // seconds
	AdjustmentInterval  uint64 // blocks
	MaxAdjustmentFactor float64

	current uint64
	records []blockTimeRecord
	maxKept int
}

// New builds a Controller for alg with the defaults spec.md §4.G and
// original_source/mining/src/difficulty.rs name for each algorithm.
func New(alg Algorithm) *Controller {
	c := &Controller{Algorithm: alg, current: InitialDifficulty, MaxAdjustmentFactor: 4.0}
	switch alg {
	case BitcoinLike:
		c.TargetBlockTime = 600
		c.AdjustmentInterval = 2016
		c.maxKept = 2017
	case EthereumLike:
		c.TargetBlockTime = 15
		c.AdjustmentInterval = 1
		c.maxKept = 2048
	default:
		c.Algorithm = AI3Adaptive
		c.TargetBlockTime = 30
		c.AdjustmentInterval = 10
		c.maxKept = 100
	}
	return c
}

// CurrentDifficulty returns the controller's present difficulty value.
func (c *Controller) CurrentDifficulty() uint64 { return c.current }

// AddBlockTime records a newly-accepted block's height, timestamp, and
// the sealing miner's reported hash rate (0 if unknown).
func (c *Controller) AddBlockTime(height, timestamp uint64, hashRate float64) {
	c.records = append(c.records, blockTimeRecord{height: height, timestamp: timestamp, difficulty: c.current, hashRate: hashRate})
	if len(c.records) > c.maxKept {
		c.records = c.records[len(c.records)-c.maxKept:]
	}
}

// ShouldAdjust reports whether height is a retargeting boundary.
func (c *Controller) ShouldAdjust(height uint64) bool {
	if c.Algorithm == EthereumLike {
		return height > 0
	}
	return height > 0 && c.AdjustmentInterval > 0 && height%c.AdjustmentInterval == 0
}

// ExpectedDifficulty returns the difficulty a new block at height must
// satisfy: the carried-forward current difficulty off a retargeting
// boundary, or a freshly retargeted value on one.
func (c *Controller) ExpectedDifficulty(height uint64) uint64 {
	if !c.ShouldAdjust(height) {
		return c.current
	}
	window := c.AdjustmentInterval
	if c.Algorithm == EthereumLike {
		window = 1
	}
	if uint64(len(c.records)) < window+1 {
		return c.current
	}
	recent := c.records[len(c.records)-int(window+1):]

	switch c.Algorithm {
	case AI3Adaptive:
		return c.ai3Adaptive(recent)
	case BitcoinLike:
		return c.bitcoinLike(recent)
	case EthereumLike:
		return c.ethereumLike(recent)
	default:
		return c.current
	}
}

// Advance commits the expected difficulty for height as the
// controller's new current difficulty, for the next
// expected_difficulty query (spec.md §4.I step 7).
func (c *Controller) Advance(height uint64) uint64 {
	c.current = c.ExpectedDifficulty(height)
	return c.current
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDifficulty(v float64) uint64 {
	if v < float64(MinDifficulty) {
		return MinDifficulty
	}
	if v > float64(MaxDifficulty) {
		return MaxDifficulty
	}
	return uint64(v)
}

// ai3Adaptive implements spec.md §4.G's default algorithm: raw factor
// = target/avg block time, multiplied by a hash-rate-normalization
// factor clamped to [0.5, 2.0], total clamped to [0.5, 2.0], applied
// to the current difficulty and clamped to [1, 32]. Grounded on
// original_source/mining/src/difficulty.rs's ai3_adaptive_adjustment.
func (c *Controller) ai3Adaptive(recent []blockTimeRecord) uint64 {
	var totalTime uint64
	var hashRateSum float64
	for i := 0; i < len(recent)-1; i++ {
		totalTime += recent[i+1].timestamp - recent[i].timestamp
	}
	for _, r := range recent {
		hashRateSum += r.hashRate
	}
	avgBlockTime := totalTime / uint64(len(recent)-1)
	if avgBlockTime == 0 {
		avgBlockTime = 1
	}
	avgHashRate := hashRateSum / float64(len(recent))

	baseAdjustment := float64(c.TargetBlockTime) / float64(avgBlockTime)
	hashRateFactor := 1.0
	if avgHashRate > 0 {
		hashRateFactor = clamp(avgHashRate/1000.0, 0.5, 2.0)
	}
	factor := clamp(baseAdjustment*hashRateFactor, 0.5, 2.0)
	return clampDifficulty(float64(c.current) * factor)
}

// bitcoinLike retargets every AdjustmentInterval blocks against a
// total-elapsed-time ratio, clamped to [1/MaxAdjustmentFactor,
// MaxAdjustmentFactor]. Grounded on the same source file's
// bitcoin_adjustment and the consensus engine's CalcNextDifficulty.
func (c *Controller) bitcoinLike(recent []blockTimeRecord) uint64 {
	elapsed := recent[len(recent)-1].timestamp - recent[0].timestamp
	if elapsed == 0 {
		elapsed = 1
	}
	expected := c.AdjustmentInterval * c.TargetBlockTime
	factor := clamp(float64(expected)/float64(elapsed), 1.0/c.MaxAdjustmentFactor, c.MaxAdjustmentFactor)
	newDiff := float64(c.current) * factor
	if newDiff < 1 {
		newDiff = 1
	}
	return uint64(newDiff)
}

// ethereumLike retargets every block from the single parent-child gap,
// clamped to [0.9, 1.1]. Grounded on the same source file's
// ethereum_adjustment.
func (c *Controller) ethereumLike(recent []blockTimeRecord) uint64 {
	blockTime := recent[len(recent)-1].timestamp - recent[len(recent)-2].timestamp
	var factor float64
	if blockTime < c.TargetBlockTime {
		factor = 1.0 + float64(c.TargetBlockTime-blockTime)/float64(c.TargetBlockTime)*0.1
	} else {
		factor = 1.0 - float64(blockTime-c.TargetBlockTime)/float64(c.TargetBlockTime)*0.1
	}
	factor = clamp(factor, 0.9, 1.1)
	newDiff := float64(c.current) * factor
	if newDiff < 1 {
		newDiff = 1
	}
	return uint64(newDiff)
}
