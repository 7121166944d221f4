package tx

import "github.com/tribechain/tribechain/pkg/types"

// Kind is the tagged union of transaction payload variants. Like
// tensor.Op, the set of implementations is closed: a Kind value is
// always one of the seven structs below, switched on in Encode and in
// the validator, never dispatched through an open string registry.
type Kind interface {
	// Tag is the wire type tag written into the transaction's canonical encoding.
	Tag() string
	isKind()
}

// Transfer moves Amount of the native coin from the sender to To.
type Transfer struct {
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
}

func (Transfer) Tag() string { return "transfer" }
func (Transfer) isKind()     {}

// TokenCreate mints a new token with a fixed total supply.
type TokenCreate struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	TotalSupply types.Amount `json:"total_supply"`
	Decimals    uint8        `json:"decimals"`
}

func (TokenCreate) Tag() string { return "token_create" }
func (TokenCreate) isKind()     {}

// TokenTransfer moves Amount of an existing token identified by TokenID.
type TokenTransfer struct {
	To      types.Address `json:"to"`
	Amount  types.Amount  `json:"amount"`
	TokenID string        `json:"token_id"`
}

func (TokenTransfer) Tag() string { return "token_transfer" }
func (TokenTransfer) isKind()     {}

// Stake locks Amount with Validator for DurationSeconds.
type Stake struct {
	Amount          types.Amount  `json:"amount"`
	Validator       types.Address `json:"validator"`
	DurationSeconds uint64        `json:"duration_seconds"`
}

func (Stake) Tag() string { return "stake" }
func (Stake) isKind()     {}

// TensorCompute submits a tensor-computation task to the task pool, with
// Reward escrowed from the sender for whichever miner completes it.
type TensorCompute struct {
	Operation          string       `json:"operation"`
	InputData          []float32    `json:"input_data"`
	ExpectedOutputSize int          `json:"expected_output_size"`
	MaxComputeTimeMs   uint64       `json:"max_compute_time_ms"`
	Reward             types.Amount `json:"reward"`
}

func (TensorCompute) Tag() string { return "tensor_compute" }
func (TensorCompute) isKind()     {}

// ContractDeploy is an opaque side-effect handed to the (out-of-core) VM.
type ContractDeploy struct {
	Code            []byte `json:"code"`
	ConstructorArgs []byte `json:"constructor_args"`
}

func (ContractDeploy) Tag() string { return "contract_deploy" }
func (ContractDeploy) isKind()     {}

// ContractCall is an opaque side-effect handed to the (out-of-core) VM.
type ContractCall struct {
	ContractAddress types.Address `json:"contract_address"`
	Method          string        `json:"method"`
	Args            []byte        `json:"args"`
	Value           types.Amount  `json:"value"`
}

func (ContractCall) Tag() string { return "contract_call" }
func (ContractCall) isKind()     {}
