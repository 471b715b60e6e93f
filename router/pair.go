// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// Constant-product pair router adapter. Two deployed router variants share
// this dialect; both are registered in the venue table with VenuePair and
// dispatch here.

// selectorSwapExactTokensForTokens is
// swapExactTokensForTokens(uint256,uint256,address[],address,uint256)
var selectorSwapExactTokensForTokens = [4]byte{0x38, 0xed, 0x17, 0x39}

// decodePairPath decodes the pair router payload:
// amountIn | deadline | pathLen | path...
func decodePairPath(payload []byte) (PairPath, error) {
	amountIn, ok := readWord(payload, 0)
	if !ok {
		return PairPath{}, fmt.Errorf("%w: pair payload too short", ErrUnsupportedDialect)
	}
	deadline, ok := readWord(payload, 1)
	if !ok {
		return PairPath{}, fmt.Errorf("%w: pair payload too short", ErrUnsupportedDialect)
	}
	pathLenV, ok := readWord(payload, 2)
	if !ok || !pathLenV.IsUint64() || pathLenV.Uint64() > uint64(len(payload)/wordSize) {
		return PairPath{}, fmt.Errorf("%w: pair payload missing path length", ErrUnsupportedDialect)
	}
	pathLen := int(pathLenV.Uint64())
	if pathLen == 0 || len(payload) < (3+pathLen)*wordSize {
		return PairPath{}, fmt.Errorf("%w: pair payload truncated path", ErrUnsupportedDialect)
	}
	path := make([]common.Address, pathLen)
	for i := 0; i < pathLen; i++ {
		path[i], _ = readAddress(payload, 3+i)
	}
	return PairPath{AmountIn: amountIn, Deadline: deadline, Path: path}, nil
}

// encodePairSwap builds swapExactTokensForTokens calldata. The minimum
// output is pinned to zero: slippage policy belongs to the upstream caller.
func encodePairSwap(p PairPath, recipient common.Address) []byte {
	head := make([][]byte, 0, 5+1+len(p.Path))
	head = append(head,
		word(p.AmountIn),
		word(big.NewInt(0)),    // amountOutMin
		wordUint64(5*wordSize), // offset of path array
		wordAddress(recipient),
		word(p.Deadline),
		wordUint64(uint64(len(p.Path))),
	)
	for _, a := range p.Path {
		head = append(head, wordAddress(a))
	}
	return calldata(selectorSwapExactTokensForTokens, head...)
}

// executePairLeg runs one pair router leg and reports the measured amounts.
// The router's returned amounts array is trusted: element 0 is the input
// actually consumed, the last element the output produced.
func executePairLeg(
	env contract.AccessibleState,
	self common.Address,
	inputToken, outputToken common.Address,
	venue common.Address,
	payload []byte,
) (LegResult, error) {
	leg, err := decodePairPath(payload)
	if err != nil {
		return LegResult{}, err
	}
	if err := ValidatePath(inputToken, outputToken, leg.Path); err != nil {
		return LegResult{}, err
	}

	ret, _, err := env.Call(venue, encodePairSwap(leg, self), GasVenueCall, nil)
	if err != nil {
		return LegResult{}, fmt.Errorf("%w: %s: %v", ErrVenueCallFailed, venue, err)
	}

	amounts, ok := decodeUintArrayReturn(ret)
	if !ok || len(amounts) != len(leg.Path) {
		return LegResult{}, fmt.Errorf("%w: %s: malformed amounts return", ErrVenueCallFailed, venue)
	}
	return LegResult{
		Consumed: amounts[0],
		Produced: amounts[len(amounts)-1],
	}, nil
}
