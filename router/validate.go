// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
)

// ValidatePath checks that a leg's declared token path is consistent with the
// overall request: it must begin at the request's input token and end at its
// output token. Pure, O(1).
func ValidatePath(inputToken, outputToken common.Address, path []common.Address) error {
	if len(path) < 2 {
		return fmt.Errorf("%w: path length %d", ErrInvalidPath, len(path))
	}
	if path[0] != inputToken {
		return fmt.Errorf("%w: path starts at %s", ErrInvalidPath, path[0])
	}
	if path[len(path)-1] != outputToken {
		return fmt.Errorf("%w: path ends at %s", ErrInvalidPath, path[len(path)-1])
	}
	return nil
}

// ValidateBatch checks the internal consistency of a batch vault leg.
// Only the first step may size the flow; every later step must declare a
// zero amount and is sized by the venue's internal routing.
func ValidateBatch(
	inputToken, outputToken common.Address,
	declaredAmount *big.Int,
	assets []common.Address,
	steps []BatchStep,
) error {
	// The venue's limits vector is int256; a declared amount above the
	// signed ceiling cannot be expressed.
	if declaredAmount.Cmp(MaxInt256) > 0 {
		return fmt.Errorf("%w: declared amount exceeds signed ceiling", ErrInvalidBatch)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidBatch)
	}
	for i, s := range steps {
		if s.AssetInIndex < 0 || s.AssetInIndex >= len(assets) ||
			s.AssetOutIndex < 0 || s.AssetOutIndex >= len(assets) {
			return fmt.Errorf("%w: step %d asset index out of range", ErrInvalidBatch, i)
		}
	}
	if assets[steps[0].AssetInIndex] != inputToken {
		return fmt.Errorf("%w: first step does not start at input token", ErrInvalidBatch)
	}
	if assets[steps[len(steps)-1].AssetOutIndex] != outputToken {
		return fmt.Errorf("%w: last step does not end at output token", ErrInvalidBatch)
	}
	if steps[0].Amount.Cmp(declaredAmount) > 0 {
		return fmt.Errorf("%w: first step amount exceeds declared input", ErrInvalidBatch)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Amount.Sign() != 0 {
			return fmt.Errorf("%w: step %d declares nonzero amount", ErrInvalidBatch, i)
		}
	}
	return nil
}
