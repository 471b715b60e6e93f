// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the LXRouter swap-routing precompile (LP-9012).
// A single call routes one logical exchange (input token -> output token)
// across an ordered list of legs, each executed against an external liquidity
// venue in that venue's own calldata dialect. Per-leg amounts are measured,
// summed, and reconciled against the caller-declared input amount before the
// aggregated output is released to the caller.
package router

import (
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/registry"
)

// ContractAddress is the address of the swap router precompile (LP-9012)
var ContractAddress = common.HexToAddress(registry.LXRouter)

// Method selectors. The router is addressed directly as a precompile, so the
// selectors are assigned protocol constants rather than ABI-derived hashes;
// callers use these exact values.
var (
	SelectorExecuteStrategy = [4]byte{0x01, 0x00, 0x00, 0x00} // executeStrategy(tokenIn,tokenOut,declaredAmount,legs)
	SelectorApproveSpenders = [4]byte{0x02, 0x00, 0x00, 0x00} // approveSpenders(tokens,spenders,amount)
	SelectorSetFrontDoor    = [4]byte{0x03, 0x00, 0x00, 0x00} // setFrontDoor(address)
	SelectorSetAdmin        = [4]byte{0x04, 0x00, 0x00, 0x00} // setAdmin(address)
	SelectorGetFrontDoor    = [4]byte{0x05, 0x00, 0x00, 0x00} // getFrontDoor()
	SelectorGetAdmin        = [4]byte{0x06, 0x00, 0x00, 0x00} // getAdmin()
	SelectorGetVenueKind    = [4]byte{0x07, 0x00, 0x00, 0x00} // getVenueKind(address)
)

// Storage slot keys under the precompile's address. Assigned constants;
// only distinctness matters.
var (
	AdminSlot     = common.HexToHash("0x4c11f8a2e6b09d37c5e1a84f20d6b3957e8c4a1d0f62b79e3a5c8d10b4f7e296")
	FrontDoorSlot = common.HexToHash("0x91d2c60a7b34f8e51c09a6d4e72b0f38a5c1e89d6f40b237e9a8c51d02f6b473")
)

// eventSwapRouted is the assigned first topic of the swap record log.
// Topics: [eventSwapRouted, tokenIn, tokenOut].
// Data: amountIn W | amountOut W | routeId W | venueCount W | venue W per leg.
var eventSwapRouted = common.HexToHash("0x6f2c8b1de94a06c5e37d10b8f45a29c70d1e8b3a64f5c092e7ad84b1c63f90e5")

// Gas costs
const (
	GasStrategyBase uint64 = 20_000 // executeStrategy fixed overhead
	GasPerLeg       uint64 = 8_000  // decode + dispatch per leg
	GasVenueCall    uint64 = 400_000 // stipend forwarded to each venue call
	GasTokenCall    uint64 = 60_000 // stipend for ERC20 transfer/approve/balanceOf
	GasAdminRead    uint64 = 200    // reading admin state
	GasAdminWrite   uint64 = 5_000  // writing admin state
	GasApprove      uint64 = 10_000 // per token/spender approval pair
)

// VenueKind identifies the calldata dialect an external venue speaks.
type VenueKind uint8

const (
	// VenueUnknown is the zero value; never stored in the venue table.
	VenueUnknown VenueKind = iota
	// VenuePair is a constant-product pair router (amounts-array return).
	VenuePair
	// VenueConcentrated is a concentrated-liquidity router
	// (single-pool or multi-hop form, chosen by a payload tag byte).
	VenueConcentrated
	// VenueBatchVault is a weighted-pool batch vault (signed delta return).
	VenueBatchVault
	// VenueBondingCurve is a bonding-curve pool. Venue addresses that match
	// no table entry fall through to this kind: such pools are numerous and
	// addressed individually rather than through one fixed router.
	VenueBondingCurve
)

// String implements fmt.Stringer for diagnostics.
func (k VenueKind) String() string {
	switch k {
	case VenuePair:
		return "pair"
	case VenueConcentrated:
		return "concentrated"
	case VenueBatchVault:
		return "batchVault"
	case VenueBondingCurve:
		return "bondingCurve"
	default:
		return "unknown"
	}
}

// Leg is one venue-specific swap instruction within a routed exchange.
// Payload is opaque until the venue's adapter decodes it.
type Leg struct {
	Venue   common.Address
	Payload []byte
}

// SwapRequest is the decoded executeStrategy calldata. It lives for one
// invocation only.
type SwapRequest struct {
	InputToken          common.Address
	OutputToken         common.Address
	DeclaredInputAmount *big.Int
	Legs                []Leg
}

// LegResult is the measured outcome of one executed leg.
type LegResult struct {
	Consumed *big.Int
	Produced *big.Int
}

// AggregateResult accumulates leg results across the whole request.
type AggregateResult struct {
	TotalConsumed *big.Int
	TotalProduced *big.Int
}

// NewAggregateResult returns a zeroed accumulator.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{
		TotalConsumed: big.NewInt(0),
		TotalProduced: big.NewInt(0),
	}
}

// Add folds one leg result into the aggregate.
func (ar *AggregateResult) Add(lr LegResult) {
	ar.TotalConsumed.Add(ar.TotalConsumed, lr.Consumed)
	ar.TotalProduced.Add(ar.TotalProduced, lr.Produced)
}

// Decoded leg shapes, one per dialect.

// PairPath is the constant-product pair router dialect.
type PairPath struct {
	AmountIn *big.Int
	Deadline *big.Int
	Path     []common.Address
}

// ConcentratedSingle is the single-pool concentrated-liquidity dialect.
type ConcentratedSingle struct {
	AmountIn *big.Int
	PoolFee  uint32
	Deadline *big.Int
}

// ConcentratedMulti is the multi-hop concentrated-liquidity dialect.
// EncodedPath is the packed token/fee/token/... hop encoding the venue expects.
type ConcentratedMulti struct {
	AmountIn    *big.Int
	Deadline    *big.Int
	EncodedPath []byte
}

// BatchStep is one hop inside a batch vault leg. Only the first step of a
// leg may carry a nonzero Amount; the venue sizes the rest internally.
type BatchStep struct {
	PoolID        [32]byte
	AssetInIndex  int
	AssetOutIndex int
	Amount        *big.Int
}

// BatchVaultLeg is the weighted-pool batch vault dialect.
type BatchVaultLeg struct {
	AmountIn *big.Int
	Deadline *big.Int
	Assets   []common.Address
	Steps    []BatchStep
}

// Bonding-curve call methods.
const (
	CurveMethodDirect     uint8 = 0 // exchange
	CurveMethodUnderlying uint8 = 1 // exchange_underlying (v1 only)
)

// BondingCurveLeg is the bonding-curve pool dialect. Version 1 pools take
// signed int128 coin indices and support the underlying variant; version 2
// pools take unsigned indices and only the direct call form.
type BondingCurveLeg struct {
	AmountIn    *big.Int
	Version     uint8
	Method      uint8
	InputIndex  *big.Int
	OutputIndex *big.Int
}

// Errors - request validation
var (
	ErrInvalidPath        = errors.New("invalid path: must start at input token and end at output token")
	ErrInvalidBatch       = errors.New("invalid batch: inconsistent asset indices or step amounts")
	ErrInvalidVenueParams = errors.New("invalid venue params")
	ErrUnsupportedDialect = errors.New("unsupported dialect: payload does not decode")
)

// Errors - execution
var (
	ErrUnauthorized        = errors.New("unauthorized: caller is not the front door")
	ErrVenueCallFailed     = errors.New("venue call failed")
	ErrEmptyLegOutput      = errors.New("leg produced zero output")
	ErrInputAmountMismatch = errors.New("aggregate consumed does not equal declared input amount")
	ErrForwardFailed       = errors.New("output transfer failed")
)

// Errors - calldata / admin
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidAddress = errors.New("invalid address: cannot be zero")
)

// MaxInt256 is the signed-amount representation ceiling of batch vaults
// (2^255 - 1). Declared amounts above it cannot be expressed in the venue's
// limits vector.
var MaxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
