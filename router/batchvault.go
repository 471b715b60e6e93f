// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// Weighted-pool batch vault adapter. A leg is a sequence of steps over a
// shared asset list; the vault reports net per-asset deltas (positive = paid
// to the vault, negative = paid out by the vault).

// selectorBatchSwap is batchSwap(uint8,(bytes32,uint256,uint256,uint256,bytes)[],
// address[],(address,bool,address,bool),int256[],uint256)
var selectorBatchSwap = [4]byte{0x94, 0x5b, 0xce, 0xc9}

// swapKindGivenIn fixes the vault to exact-input semantics.
const swapKindGivenIn = 0

// decodeBatchVault decodes the batch vault payload:
// amountIn | deadline | assetCount | assets... | stepCount |
// per step: poolId | assetInIndex | assetOutIndex | amount.
func decodeBatchVault(payload []byte) (BatchVaultLeg, error) {
	amountIn, ok := readWord(payload, 0)
	if !ok {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload too short", ErrUnsupportedDialect)
	}
	deadline, ok := readWord(payload, 1)
	if !ok {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload too short", ErrUnsupportedDialect)
	}
	assetCountV, ok := readWord(payload, 2)
	if !ok || !assetCountV.IsUint64() || assetCountV.Uint64() > uint64(len(payload)/wordSize) {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload missing asset count", ErrUnsupportedDialect)
	}
	assetCount := int(assetCountV.Uint64())
	if assetCount == 0 || len(payload) < (4+assetCount)*wordSize {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload truncated assets", ErrUnsupportedDialect)
	}
	assets := make([]common.Address, assetCount)
	for i := 0; i < assetCount; i++ {
		assets[i], _ = readAddress(payload, 3+i)
	}

	stepCountV, ok := readWord(payload, 3+assetCount)
	if !ok || !stepCountV.IsUint64() || stepCountV.Uint64() > uint64(len(payload)/(4*wordSize)) {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload missing step count", ErrUnsupportedDialect)
	}
	stepCount := int(stepCountV.Uint64())
	stepBase := 4 + assetCount
	if stepCount == 0 || len(payload) < (stepBase+4*stepCount)*wordSize {
		return BatchVaultLeg{}, fmt.Errorf("%w: batch payload truncated steps", ErrUnsupportedDialect)
	}
	steps := make([]BatchStep, stepCount)
	for i := 0; i < stepCount; i++ {
		off := (stepBase + 4*i) * wordSize
		var poolID [32]byte
		copy(poolID[:], payload[off:off+wordSize])
		inIdxV, _ := readWord(payload, stepBase+4*i+1)
		outIdxV, _ := readWord(payload, stepBase+4*i+2)
		amount, _ := readWord(payload, stepBase+4*i+3)
		if !inIdxV.IsInt64() || !outIdxV.IsInt64() {
			return BatchVaultLeg{}, fmt.Errorf("%w: batch step index overflow", ErrUnsupportedDialect)
		}
		steps[i] = BatchStep{
			PoolID:        poolID,
			AssetInIndex:  int(inIdxV.Int64()),
			AssetOutIndex: int(outIdxV.Int64()),
			Amount:        amount,
		}
	}
	return BatchVaultLeg{AmountIn: amountIn, Deadline: deadline, Assets: assets, Steps: steps}, nil
}

// buildLimits constructs the vault's per-asset limit vector. Only the
// boundary flows are constrained: position 0 is the maximum paid in, the last
// position the minimum paid out (zero here, slippage policy is upstream), and
// every interior hop is unconstrained routing internals.
func buildLimits(assetCount int, amountIn *big.Int) []*big.Int {
	limits := make([]*big.Int, assetCount)
	for i := range limits {
		limits[i] = new(big.Int).Set(MaxInt256)
	}
	limits[0] = new(big.Int).Set(amountIn)
	limits[assetCount-1] = big.NewInt(0)
	return limits
}

// encodeBatchSwap builds the batchSwap calldata. Internal-balance accounting
// is disabled on both ends so tokens move immediately instead of accruing as
// vault-internal credit.
func encodeBatchSwap(leg BatchVaultLeg, self common.Address, limits []*big.Int) []byte {
	// Head: kind, offset(swaps), offset(assets), funds (static tuple,
	// inlined), offset(limits), deadline.
	const headWords = 9
	swapsOffset := headWords * wordSize
	// Each swap tuple carries dynamic userData, so the array stores one
	// offset word per element followed by the 6-word tuples (empty userData).
	const swapTupleWords = 6
	swapsWords := 1 + len(leg.Steps) + swapTupleWords*len(leg.Steps)
	assetsOffset := swapsOffset + swapsWords*wordSize
	assetsWords := 1 + len(leg.Assets)
	limitsOffset := assetsOffset + assetsWords*wordSize

	args := make([][]byte, 0, headWords+swapsWords+assetsWords+1+len(limits))
	args = append(args,
		wordUint64(swapKindGivenIn),
		wordUint64(uint64(swapsOffset)),
		wordUint64(uint64(assetsOffset)),
		wordAddress(self),       // funds.sender
		word(big.NewInt(0)),     // funds.fromInternalBalance = false
		wordAddress(self),       // funds.recipient
		word(big.NewInt(0)),     // funds.toInternalBalance = false
		wordUint64(uint64(limitsOffset)),
		word(leg.Deadline),
	)

	// swaps array
	args = append(args, wordUint64(uint64(len(leg.Steps))))
	for i := range leg.Steps {
		elemOffset := (len(leg.Steps) + swapTupleWords*i) * wordSize
		args = append(args, wordUint64(uint64(elemOffset)))
	}
	for _, s := range leg.Steps {
		args = append(args,
			s.PoolID[:],
			wordUint64(uint64(s.AssetInIndex)),
			wordUint64(uint64(s.AssetOutIndex)),
			word(s.Amount),
			wordUint64(5*wordSize), // userData offset within tuple
			wordUint64(0),          // empty userData
		)
	}

	// assets array
	args = append(args, wordUint64(uint64(len(leg.Assets))))
	for _, a := range leg.Assets {
		args = append(args, wordAddress(a))
	}

	// limits array
	args = append(args, wordUint64(uint64(len(limits))))
	for _, l := range limits {
		args = append(args, wordInt256(l))
	}

	return calldata(selectorBatchSwap, args...)
}

// executeBatchVaultLeg runs one batch vault leg. The vault's signed delta
// array is authoritative: the first asset's delta is consumed, the last
// asset's delta (vault pays out, so non-positive) negated is produced.
func executeBatchVaultLeg(
	env contract.AccessibleState,
	self common.Address,
	inputToken, outputToken common.Address,
	venue common.Address,
	payload []byte,
) (LegResult, error) {
	leg, err := decodeBatchVault(payload)
	if err != nil {
		return LegResult{}, err
	}
	if err := ValidateBatch(inputToken, outputToken, leg.AmountIn, leg.Assets, leg.Steps); err != nil {
		return LegResult{}, err
	}

	limits := buildLimits(len(leg.Assets), leg.AmountIn)
	ret, _, err := env.Call(venue, encodeBatchSwap(leg, self, limits), GasVenueCall, nil)
	if err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}

	deltas, ok := decodeIntArrayReturn(ret)
	if !ok || len(deltas) != len(leg.Assets) {
		return LegResult{}, fmt.Errorf("%w: %s: malformed delta return", ErrVenueCallFailed, venue)
	}
	consumed := deltas[0]
	produced := deltas[len(deltas)-1]
	if consumed.Sign() < 0 || produced.Sign() > 0 {
		return LegResult{}, fmt.Errorf("%w: %s: delta signs inverted", ErrVenueCallFailed, venue)
	}
	return LegResult{
		Consumed: consumed,
		Produced: new(big.Int).Neg(produced),
	}, nil
}
