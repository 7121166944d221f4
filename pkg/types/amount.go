package types

import (
	"errors"
	"math"
)

// Amount is a quantity of base units, either of the native coin or of a
// token. All ledger arithmetic is integer and saturates into an error
// rather than wrapping, since a silent uint64 wraparound would mint or
// burn value outside consensus rules.
type Amount uint64

// MaxAmount caps any single balance/transfer value well below the
// uint64 range, so that summing a bounded number of them (fees, task
// rewards, genesis allocations) can never overflow uint64.
const MaxAmount = math.MaxUint64 / 1_000_000

// ErrAmountOverflow is returned by AddAmount/SubAmount on overflow/underflow.
var ErrAmountOverflow = errors.New("amount overflow")

// AddAmount returns a+b, or ErrAmountOverflow if the result would exceed MaxAmount.
func AddAmount(a, b Amount) (Amount, error) {
	if a > MaxAmount-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// SubAmount returns a-b, or ErrAmountOverflow if b > a.
func SubAmount(a, b Amount) (Amount, error) {
	if b > a {
		return 0, ErrAmountOverflow
	}
	return a - b, nil
}
