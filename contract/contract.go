// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the runtime boundary between stateful precompiled
// contracts and the EVM that hosts them: state access, block context, and
// outbound calls to ordinary contracts (liquidity venues, ERC20 tokens).
package contract

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/luxfi/geth/core/types"
)

// Shared errors
var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrWriteProtection = errors.New("write protection: read-only call cannot mutate state")
)

// StateDB is the subset of the EVM state database precompiles operate on.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64, tracing.NonceChangeReason)

	CreateAccount(common.Address)
	Exist(common.Address) bool

	AddLog(*types.Log)
	Logs() []*types.Log

	TxHash() common.Hash

	Snapshot() int
	RevertToSnapshot(int)
}

// BlockContext exposes block-level values to precompiles.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// ConfigurationBlockContext is the block context available during Configure.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState is the execution environment handed to a precompile Run.
// Call and StaticCall execute against ordinary contracts with the precompile
// itself as msg.sender; errors returned by the callee are surfaced verbatim.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext

	Call(addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, remainingGas uint64, err error)
	StaticCall(addr common.Address, input []byte, gas uint64) (ret []byte, remainingGas uint64, err error)
}

// StatefulPrecompiledContract is the interface all precompiles implement.
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// DeductGas checks that [suppliedGas] covers [requiredGas] and deducts it.
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}
