// Package tx defines the Transaction entity: construction, canonical
// encoding, and hash derivation, per spec §3/§4.C. Validation beyond
// the stateless checks performed at construction time (kind-specific
// positivity, timestamp skew) lives in internal/validator, which also
// needs the state store to check balances and task-pool membership.
package tx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tribechain/tribechain/pkg/types"
)

// MaxFutureSkew bounds how far into the future a transaction's
// timestamp may claim to be, relative to the verifier's clock.
const MaxFutureSkew = 300 * time.Second

// MaxTokenDecimals is the upper bound on TokenCreate.Decimals.
const MaxTokenDecimals = 18

// ErrInvalidTransaction is the sentinel wrapped by every construction/validation failure.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction is immutable once constructed: every field is set by
// New and never mutated afterward.
type Transaction struct {
	ID        string
	From      types.Address
	Kind      Kind
	Fee       types.Amount
	Timestamp uint64
	Nonce     uint64
	Hash      types.Hash
}

// New builds and hashes a Transaction. now is the construction-time
// clock reading (Timestamp must not exceed now+MaxFutureSkew).
func New(from types.Address, kind Kind, fee types.Amount, timestamp, nonce uint64, now time.Time) (Transaction, error) {
	t := Transaction{
		ID:        uuid.NewString(),
		From:      from,
		Kind:      kind,
		Fee:       fee,
		Timestamp: timestamp,
		Nonce:     nonce,
	}
	if err := t.validateStateless(now); err != nil {
		return Transaction{}, err
	}
	h, err := t.deriveHash()
	if err != nil {
		return Transaction{}, err
	}
	t.Hash = h
	return t, nil
}

// Encode produces the canonical byte string hashed to derive Hash:
// the concatenation of id, from, the JSON encoding of kind, fee,
// timestamp, and nonce, per spec.md §3.
func (t Transaction) Encode() ([]byte, error) {
	kindJSON, err := encodeKind(t.Kind)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 128+len(kindJSON))
	buf = append(buf, t.ID...)
	buf = append(buf, t.From.String()...)
	buf = append(buf, kindJSON...)
	buf = strconv.AppendUint(buf, uint64(t.Fee), 10)
	buf = strconv.AppendUint(buf, t.Timestamp, 10)
	buf = strconv.AppendUint(buf, t.Nonce, 10)
	return buf, nil
}

func (t Transaction) deriveHash() (types.Hash, error) {
	enc, err := t.Encode()
	if err != nil {
		return types.Hash{}, err
	}
	return types.Sum(enc), nil
}

// VerifyHash reports whether t.Hash matches its derivation.
func (t Transaction) VerifyHash() error {
	want, err := t.deriveHash()
	if err != nil {
		return err
	}
	if want != t.Hash {
		return fmt.Errorf("%w: hash mismatch", ErrInvalidTransaction)
	}
	return nil
}

// ValidateStateless re-runs the construction-time checks against a
// transaction obtained some other way (decoded from the wire, loaded
// from storage): timestamp skew and kind-specific positivity. It does
// not check Hash; callers pair it with VerifyHash.
func (t Transaction) ValidateStateless(now time.Time) error {
	return t.validateStateless(now)
}

// validateStateless checks everything derivable from the transaction
// alone: timestamp skew and kind-specific positivity.
func (t Transaction) validateStateless(now time.Time) error {
	maxTs := uint64(now.Add(MaxFutureSkew).Unix())
	if t.Timestamp > maxTs {
		return fmt.Errorf("%w: timestamp %d exceeds now+%s", ErrInvalidTransaction, t.Timestamp, MaxFutureSkew)
	}
	switch k := t.Kind.(type) {
	case Transfer:
		if k.Amount == 0 {
			return fmt.Errorf("%w: transfer amount must be positive", ErrInvalidTransaction)
		}
	case TokenCreate:
		if k.TotalSupply == 0 {
			return fmt.Errorf("%w: token_create total_supply must be positive", ErrInvalidTransaction)
		}
		if k.Decimals > MaxTokenDecimals {
			return fmt.Errorf("%w: token_create decimals %d exceeds %d", ErrInvalidTransaction, k.Decimals, MaxTokenDecimals)
		}
		if k.Name == "" || k.Symbol == "" {
			return fmt.Errorf("%w: token_create requires a name and symbol", ErrInvalidTransaction)
		}
	case TokenTransfer:
		if k.Amount == 0 {
			return fmt.Errorf("%w: token_transfer amount must be positive", ErrInvalidTransaction)
		}
		if k.TokenID == "" {
			return fmt.Errorf("%w: token_transfer requires a token_id", ErrInvalidTransaction)
		}
	case Stake:
		if k.Amount == 0 {
			return fmt.Errorf("%w: stake amount must be positive", ErrInvalidTransaction)
		}
		if k.DurationSeconds == 0 {
			return fmt.Errorf("%w: stake duration_seconds must be positive", ErrInvalidTransaction)
		}
	case TensorCompute:
		if k.ExpectedOutputSize <= 0 {
			return fmt.Errorf("%w: tensor_compute expected_output_size must be positive", ErrInvalidTransaction)
		}
		if k.Operation == "" {
			return fmt.Errorf("%w: tensor_compute requires an operation", ErrInvalidTransaction)
		}
	case ContractDeploy:
		if len(k.Code) == 0 {
			return fmt.Errorf("%w: contract_deploy requires non-empty code", ErrInvalidTransaction)
		}
	case ContractCall:
		if len(k.ContractAddress) == 0 {
			return fmt.Errorf("%w: contract_call requires a contract_address", ErrInvalidTransaction)
		}
		if k.Method == "" {
			return fmt.Errorf("%w: contract_call requires a method", ErrInvalidTransaction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %T", ErrInvalidTransaction, t.Kind)
	}
	return nil
}

// kindEnvelope is the deterministic JSON shape for a Kind: a type tag
// plus the concrete struct's own (field-order-stable) encoding.
type kindEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func encodeKind(k Kind) ([]byte, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return nil, fmt.Errorf("%w: encode kind: %v", ErrInvalidTransaction, err)
	}
	return json.Marshal(kindEnvelope{Type: k.Tag(), Data: data})
}
