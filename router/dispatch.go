// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/zeebo/blake3"

	"github.com/luxfi/swaprouter/contract"
)

// decodeStrategyInput decodes executeStrategy calldata:
// inputToken | outputToken | declaredInputAmount | legCount |
// per leg: venue | payloadLen | payload bytes (unpadded).
func decodeStrategyInput(args []byte) (SwapRequest, error) {
	inputToken, ok := readAddress(args, 0)
	if !ok {
		return SwapRequest{}, ErrInvalidInput
	}
	outputToken, ok := readAddress(args, 1)
	if !ok {
		return SwapRequest{}, ErrInvalidInput
	}
	declared, ok := readWord(args, 2)
	if !ok {
		return SwapRequest{}, ErrInvalidInput
	}
	legCountV, ok := readWord(args, 3)
	if !ok || !legCountV.IsUint64() {
		return SwapRequest{}, ErrInvalidInput
	}
	// Each leg needs at least two words of calldata; anything claiming more
	// legs than the input could carry is rejected before the count is used,
	// so an adversarial count word cannot overflow int or size a slice.
	if !legCountV.IsUint64() || legCountV.Uint64() > uint64(len(args)/(2*wordSize)) {
		return SwapRequest{}, fmt.Errorf("%w: leg count exceeds calldata", ErrInvalidInput)
	}
	legCount := int(legCountV.Uint64())
	if legCount == 0 {
		return SwapRequest{}, fmt.Errorf("%w: no legs", ErrInvalidInput)
	}

	legs := make([]Leg, 0, legCount)
	off := 4 * wordSize
	for i := 0; i < legCount; i++ {
		if len(args) < off+2*wordSize {
			return SwapRequest{}, fmt.Errorf("%w: leg %d truncated", ErrInvalidInput, i)
		}
		venue := common.BytesToAddress(args[off+12 : off+wordSize])
		payloadLen, ok := readWord(args[off+wordSize:], 0)
		if !ok || !payloadLen.IsUint64() || payloadLen.Uint64() > uint64(len(args)) {
			return SwapRequest{}, fmt.Errorf("%w: leg %d payload length", ErrInvalidInput, i)
		}
		n := int(payloadLen.Uint64())
		off += 2 * wordSize
		if len(args) < off+n {
			return SwapRequest{}, fmt.Errorf("%w: leg %d payload truncated", ErrInvalidInput, i)
		}
		legs = append(legs, Leg{Venue: venue, Payload: args[off : off+n]})
		off += n
	}
	return SwapRequest{
		InputToken:          inputToken,
		OutputToken:         outputToken,
		DeclaredInputAmount: declared,
		Legs:                legs,
	}, nil
}

// executeLeg dispatches one leg to the adapter for its venue kind.
func (r *routerPrecompile) executeLeg(
	env contract.AccessibleState,
	self common.Address,
	req SwapRequest,
	leg Leg,
) (LegResult, error) {
	switch r.venueKind(leg.Venue) {
	case VenuePair:
		return executePairLeg(env, self, req.InputToken, req.OutputToken, leg.Venue, leg.Payload)
	case VenueConcentrated:
		return executeConcentratedLeg(env, self, req.InputToken, req.OutputToken, leg.Venue, leg.Payload)
	case VenueBatchVault:
		return executeBatchVaultLeg(env, self, req.InputToken, req.OutputToken, leg.Venue, leg.Payload)
	default:
		return executeBondingCurveLeg(env, self, req.InputToken, req.OutputToken, leg.Venue, leg.Payload)
	}
}

// executeStrategy runs the full leg sequence and reconciles the aggregate.
// Effects are committed only after every invariant holds; on any failure the
// state snapshot taken before the first leg is restored, so a failing leg
// discards the effects of every leg before it.
func (r *routerPrecompile) executeStrategy(
	env contract.AccessibleState,
	self common.Address,
	req SwapRequest,
) (*AggregateResult, error) {
	stateDB := env.GetStateDB()
	snapshot := stateDB.Snapshot()

	agg, err := r.runLegs(env, self, req)
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, err
	}

	// Commit point: release the aggregated output to the front door and
	// record the route. Nothing before this line is observable on failure.
	frontDoor := getStateAddress(stateDB, FrontDoorSlot)
	if err := erc20Transfer(env, req.OutputToken, frontDoor, agg.TotalProduced); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, fmt.Errorf("%w: %v", ErrForwardFailed, err)
	}
	r.emitSwapRouted(env, self, req, agg)
	return agg, nil
}

// runLegs executes each leg in order and enforces the aggregate invariants.
func (r *routerPrecompile) runLegs(
	env contract.AccessibleState,
	self common.Address,
	req SwapRequest,
) (*AggregateResult, error) {
	agg := NewAggregateResult()
	for i, leg := range req.Legs {
		res, err := r.executeLeg(env, self, req, leg)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		if res.Produced.Sign() == 0 {
			return nil, fmt.Errorf("leg %d: %w", i, ErrEmptyLegOutput)
		}
		agg.Add(res)
	}
	if agg.TotalConsumed.Cmp(req.DeclaredInputAmount) != 0 {
		return nil, fmt.Errorf("%w: consumed %s, declared %s",
			ErrInputAmountMismatch, agg.TotalConsumed, req.DeclaredInputAmount)
	}
	return agg, nil
}

// routeID fingerprints the venue sequence of a request.
func routeID(legs []Leg) common.Hash {
	h := blake3.New()
	for _, leg := range legs {
		h.Write(leg.Venue.Bytes())
	}
	var id common.Hash
	h.Digest().Read(id[:])
	return id
}

// emitSwapRouted appends the swap record log:
// topics = [SwapRouted, tokenIn, tokenOut],
// data = amountIn | amountOut | routeId | venueCount | venues...
func (r *routerPrecompile) emitSwapRouted(
	env contract.AccessibleState,
	self common.Address,
	req SwapRequest,
	agg *AggregateResult,
) {
	data := make([]byte, 0, (4+len(req.Legs))*wordSize)
	data = append(data, word(req.DeclaredInputAmount)...)
	data = append(data, word(agg.TotalProduced)...)
	id := routeID(req.Legs)
	data = append(data, id[:]...)
	data = append(data, wordUint64(uint64(len(req.Legs)))...)
	for _, leg := range req.Legs {
		data = append(data, wordAddress(leg.Venue)...)
	}

	env.GetStateDB().AddLog(&types.Log{
		Address: self,
		Topics: []common.Hash{
			eventSwapRouted,
			common.BytesToHash(req.InputToken.Bytes()),
			common.BytesToHash(req.OutputToken.Bytes()),
		},
		Data:        data,
		BlockNumber: env.GetBlockContext().Number().Uint64(),
	})
}
