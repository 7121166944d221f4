package validator

import (
	"time"

	"github.com/tribechain/tribechain/pkg/tx"
	"github.com/tribechain/tribechain/pkg/types"
)

// ConsumedAmount is the native-coin amount a transaction debits from
// From's balance, per spec.md §3's balance-map rule: "transfer+fee,
// stake+fee, reward+fee, value+fee, or fee alone".
func ConsumedAmount(t tx.Transaction) types.Amount {
	switch k := t.Kind.(type) {
	case tx.Transfer:
		return k.Amount + t.Fee
	case tx.Stake:
		return k.Amount + t.Fee
	case tx.TensorCompute:
		return k.Reward + t.Fee
	case tx.ContractCall:
		return k.Value + t.Fee
	default:
		// TokenCreate, TokenTransfer (moves a non-native token), ContractDeploy.
		return t.Fee
	}
}

// ValidateTransactionStateless runs every check spec.md §4.E lists as
// not needing state access: hash derivation, timestamp tolerance, and
// kind-specific positivity.
func ValidateTransactionStateless(t tx.Transaction, now time.Time) *Error {
	if err := t.VerifyHash(); err != nil {
		return errf(InvalidTransaction, "%v", err)
	}
	if err := t.ValidateStateless(now); err != nil {
		return errf(InvalidTransaction, "%v", err)
	}
	return nil
}

// ValidateTransactionState runs the one state-dependent transaction
// check spec.md §4.E names outside of block processing: the sender
// must hold at least ConsumedAmount. A shortfall is surfaced as
// InvalidTransaction, per spec.md §7's note that InsufficientBalance
// is a subclass of it, not a sibling ErrorKind.
func ValidateTransactionState(t tx.Transaction, state State) *Error {
	need := ConsumedAmount(t)
	have := state.Balance(t.From)
	if have < need {
		return errf(InvalidTransaction, "insufficient balance: %s has %d, needs %d", t.From, have, need)
	}
	return nil
}
