// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// Concentrated-liquidity router adapter. The payload's leading tag byte
// selects between the single-pool and multi-hop call forms.

const (
	concentratedTagSingle byte = 0x01
	concentratedTagMulti  byte = 0x02
)

// maxPoolFee is the uint24 ceiling the venue's fee field uses.
const maxPoolFee = 1 << 24

// Packed multi-hop path layout: 20-byte token, 3-byte fee, 20-byte token, ...
const (
	packedAddrSize = 20
	packedFeeSize  = 3
	packedHopSize  = packedAddrSize + packedFeeSize
)

var (
	// exactInputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))
	selectorExactInputSingle = [4]byte{0x41, 0x4b, 0xf3, 0x89}
	// exactInput((bytes,address,uint256,uint256,uint256))
	selectorExactInput = [4]byte{0xc0, 0x4b, 0x8d, 0x59}
)

// decodeConcentratedSingle decodes tag 0x01: amountIn | fee | deadline.
func decodeConcentratedSingle(payload []byte) (ConcentratedSingle, error) {
	amountIn, ok := readWord(payload, 0)
	if !ok {
		return ConcentratedSingle{}, fmt.Errorf("%w: concentrated payload too short", ErrUnsupportedDialect)
	}
	feeV, ok := readWord(payload, 1)
	if !ok {
		return ConcentratedSingle{}, fmt.Errorf("%w: concentrated payload too short", ErrUnsupportedDialect)
	}
	deadline, ok := readWord(payload, 2)
	if !ok {
		return ConcentratedSingle{}, fmt.Errorf("%w: concentrated payload too short", ErrUnsupportedDialect)
	}
	if !feeV.IsUint64() || feeV.Uint64() >= maxPoolFee {
		return ConcentratedSingle{}, fmt.Errorf("%w: pool fee out of range", ErrInvalidVenueParams)
	}
	return ConcentratedSingle{
		AmountIn: amountIn,
		PoolFee:  uint32(feeV.Uint64()),
		Deadline: deadline,
	}, nil
}

// decodeConcentratedMulti decodes tag 0x02: amountIn | deadline | pathLen |
// packed path bytes.
func decodeConcentratedMulti(payload []byte) (ConcentratedMulti, error) {
	amountIn, ok := readWord(payload, 0)
	if !ok {
		return ConcentratedMulti{}, fmt.Errorf("%w: concentrated payload too short", ErrUnsupportedDialect)
	}
	deadline, ok := readWord(payload, 1)
	if !ok {
		return ConcentratedMulti{}, fmt.Errorf("%w: concentrated payload too short", ErrUnsupportedDialect)
	}
	pathLenV, ok := readWord(payload, 2)
	if !ok || !pathLenV.IsUint64() || pathLenV.Uint64() > uint64(len(payload)) {
		return ConcentratedMulti{}, fmt.Errorf("%w: concentrated payload missing path length", ErrUnsupportedDialect)
	}
	pathLen := int(pathLenV.Uint64())
	if len(payload) < 3*wordSize+pathLen {
		return ConcentratedMulti{}, fmt.Errorf("%w: concentrated payload truncated path", ErrUnsupportedDialect)
	}
	path := payload[3*wordSize : 3*wordSize+pathLen]
	// A valid packed path is token (20) followed by one or more fee+token
	// hops (23 each).
	if pathLen < packedAddrSize+packedHopSize || (pathLen-packedAddrSize)%packedHopSize != 0 {
		return ConcentratedMulti{}, fmt.Errorf("%w: malformed packed path", ErrInvalidVenueParams)
	}
	return ConcentratedMulti{AmountIn: amountIn, Deadline: deadline, EncodedPath: path}, nil
}

// packedPathEndpoints returns the first and last token of a packed path.
func packedPathEndpoints(path []byte) (common.Address, common.Address) {
	first := common.BytesToAddress(path[:packedAddrSize])
	last := common.BytesToAddress(path[len(path)-packedAddrSize:])
	return first, last
}

// encodeExactInputSingle builds the single-pool call. amountOutMinimum and
// sqrtPriceLimitX96 are zero: both protections live upstream.
func encodeExactInputSingle(leg ConcentratedSingle, tokenIn, tokenOut, recipient common.Address) []byte {
	return calldata(selectorExactInputSingle,
		wordAddress(tokenIn),
		wordAddress(tokenOut),
		wordUint64(uint64(leg.PoolFee)),
		wordAddress(recipient),
		word(leg.Deadline),
		word(leg.AmountIn),
		word(big.NewInt(0)), // amountOutMinimum
		word(big.NewInt(0)), // sqrtPriceLimitX96
	)
}

// encodeExactInput builds the multi-hop call. The params struct carries a
// dynamic bytes path, so the tuple itself is passed by offset.
func encodeExactInput(leg ConcentratedMulti, recipient common.Address) []byte {
	pathPadded := padRight(append([]byte(nil), leg.EncodedPath...))
	return calldata(selectorExactInput,
		wordUint64(wordSize),   // offset of params tuple
		wordUint64(5*wordSize), // offset of path within tuple
		wordAddress(recipient),
		word(leg.Deadline),
		word(leg.AmountIn),
		word(big.NewInt(0)), // amountOutMinimum
		wordUint64(uint64(len(leg.EncodedPath))),
		pathPadded,
	)
}

// executeConcentratedLeg runs one concentrated-liquidity leg. The router's
// returned output amount is trusted.
func executeConcentratedLeg(
	env contract.AccessibleState,
	self common.Address,
	inputToken, outputToken common.Address,
	venue common.Address,
	payload []byte,
) (LegResult, error) {
	if len(payload) < 1 {
		return LegResult{}, fmt.Errorf("%w: empty concentrated payload", ErrUnsupportedDialect)
	}
	tag, body := payload[0], payload[1:]

	var (
		input    []byte
		consumed *big.Int
	)
	switch tag {
	case concentratedTagSingle:
		leg, err := decodeConcentratedSingle(body)
		if err != nil {
			return LegResult{}, err
		}
		input = encodeExactInputSingle(leg, inputToken, outputToken, self)
		consumed = leg.AmountIn

	case concentratedTagMulti:
		leg, err := decodeConcentratedMulti(body)
		if err != nil {
			return LegResult{}, err
		}
		first, last := packedPathEndpoints(leg.EncodedPath)
		if err := ValidatePath(inputToken, outputToken, []common.Address{first, last}); err != nil {
			return LegResult{}, err
		}
		input = encodeExactInput(leg, self)
		consumed = leg.AmountIn

	default:
		return LegResult{}, fmt.Errorf("%w: unknown concentrated tag 0x%02x", ErrUnsupportedDialect, tag)
	}

	ret, _, err := env.Call(venue, input, GasVenueCall, nil)
	if err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}
	produced, ok := readWord(ret, 0)
	if !ok {
		return LegResult{}, fmt.Errorf("%w: %s: short return", ErrVenueCallFailed, venue)
	}
	return LegResult{Consumed: consumed, Produced: produced}, nil
}
