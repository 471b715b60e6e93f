// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// Bonding-curve pool adapter. Pools are numerous and addressed individually,
// so any venue address absent from the table is dispatched here. These pools
// do not return a trustworthy output amount: produced is always measured as
// the precompile's own output-token balance delta around the call, and the
// call's return data is ignored.

var (
	// v1: exchange(int128,int128,uint256,uint256)
	selectorCurveExchange = [4]byte{0x3d, 0xf0, 0x21, 0x24}
	// v1: exchange_underlying(int128,int128,uint256,uint256)
	selectorCurveExchangeUnderlying = [4]byte{0xa6, 0x41, 0x7e, 0xd6}
	// v2: exchange(uint256,uint256,uint256,uint256)
	selectorCurveExchangeV2 = [4]byte{0x5b, 0x41, 0xb9, 0x08}
)

// maxInt128 bounds v1 coin indices, which the venue takes as int128.
var maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// decodeBondingCurve decodes the bonding-curve payload:
// amountIn | version | method | inputIndex | outputIndex.
func decodeBondingCurve(payload []byte) (BondingCurveLeg, error) {
	amountIn, ok := readWord(payload, 0)
	if !ok {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve payload too short", ErrUnsupportedDialect)
	}
	versionV, ok := readWord(payload, 1)
	if !ok {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve payload too short", ErrUnsupportedDialect)
	}
	methodV, ok := readWord(payload, 2)
	if !ok {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve payload too short", ErrUnsupportedDialect)
	}
	inIdx, ok := readInt256(payload, 3)
	if !ok {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve payload too short", ErrUnsupportedDialect)
	}
	outIdx, ok := readInt256(payload, 4)
	if !ok {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve payload too short", ErrUnsupportedDialect)
	}
	if !versionV.IsUint64() || !methodV.IsUint64() {
		return BondingCurveLeg{}, fmt.Errorf("%w: curve version or method overflow", ErrUnsupportedDialect)
	}
	leg := BondingCurveLeg{
		AmountIn:    amountIn,
		Version:     uint8(versionV.Uint64()),
		Method:      uint8(methodV.Uint64()),
		InputIndex:  inIdx,
		OutputIndex: outIdx,
	}
	if err := validateBondingCurve(leg); err != nil {
		return BondingCurveLeg{}, err
	}
	return leg, nil
}

// validateBondingCurve enforces the version/method matrix: v1 supports the
// direct and underlying forms with signed indices, v2 only the direct form
// with unsigned indices.
func validateBondingCurve(leg BondingCurveLeg) error {
	if leg.InputIndex.Sign() < 0 || leg.OutputIndex.Sign() < 0 {
		return fmt.Errorf("%w: negative coin index", ErrInvalidVenueParams)
	}
	switch leg.Version {
	case 1:
		if leg.Method != CurveMethodDirect && leg.Method != CurveMethodUnderlying {
			return fmt.Errorf("%w: v1 method %d", ErrInvalidVenueParams, leg.Method)
		}
		if leg.InputIndex.Cmp(maxInt128) > 0 || leg.OutputIndex.Cmp(maxInt128) > 0 {
			return fmt.Errorf("%w: v1 coin index exceeds int128", ErrInvalidVenueParams)
		}
	case 2:
		if leg.Method != CurveMethodDirect {
			return fmt.Errorf("%w: v2 has no underlying variant", ErrInvalidVenueParams)
		}
	default:
		return fmt.Errorf("%w: unknown curve version %d", ErrInvalidVenueParams, leg.Version)
	}
	return nil
}

// encodeCurveExchange builds the exchange call for the pool's version and
// method. min_dy is zero; slippage policy is upstream.
func encodeCurveExchange(leg BondingCurveLeg) []byte {
	var selector [4]byte
	switch {
	case leg.Version == 2:
		selector = selectorCurveExchangeV2
	case leg.Method == CurveMethodUnderlying:
		selector = selectorCurveExchangeUnderlying
	default:
		selector = selectorCurveExchange
	}
	return calldata(selector,
		wordInt256(leg.InputIndex),
		wordInt256(leg.OutputIndex),
		word(leg.AmountIn),
		word(big.NewInt(0)), // min_dy
	)
}

// executeBondingCurveLeg runs one bonding-curve leg, measuring produced
// output by direct before/after balance observation of the precompile's own
// holdings. External calls can re-enter shared state, so the delta is never
// inferred from the venue's return value.
func executeBondingCurveLeg(
	env contract.AccessibleState,
	self common.Address,
	inputToken, outputToken common.Address,
	venue common.Address,
	payload []byte,
) (LegResult, error) {
	leg, err := decodeBondingCurve(payload)
	if err != nil {
		return LegResult{}, err
	}

	before, err := erc20BalanceOf(env, outputToken, self)
	if err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}

	if _, _, err := env.Call(venue, encodeCurveExchange(leg), GasVenueCall, nil); err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}

	after, err := erc20BalanceOf(env, outputToken, self)
	if err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}

	produced := new(big.Int).Sub(after, before)
	if produced.Sign() < 0 {
		return LegResult{}, fmt.Errorf("%w: %s: output balance decreased", ErrVenueCallFailed, venue)
	}
	return LegResult{Consumed: leg.AmountIn, Produced: produced}, nil
}
