// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// ERC20 function selectors
var (
	selectorBalanceOf = [4]byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	selectorTransfer  = [4]byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selectorApprove   = [4]byte{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
)

// erc20BalanceOf reads [holder]'s balance of [token] with a static call.
func erc20BalanceOf(env contract.AccessibleState, token, holder common.Address) (*big.Int, error) {
	input := calldata(selectorBalanceOf, wordAddress(holder))
	ret, _, err := env.StaticCall(token, input, GasTokenCall)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", token, err)
	}
	bal, ok := readWord(ret, 0)
	if !ok {
		return nil, fmt.Errorf("balanceOf %s: short return", token)
	}
	return bal, nil
}

// erc20Transfer moves [amount] of [token] from the precompile to [to].
// Tokens that return a boolean must return true; tokens that return nothing
// are accepted (pre-standard ERC20s).
func erc20Transfer(env contract.AccessibleState, token, to common.Address, amount *big.Int) error {
	input := calldata(selectorTransfer, wordAddress(to), word(amount))
	ret, _, err := env.Call(token, input, GasTokenCall, nil)
	if err != nil {
		return fmt.Errorf("transfer %s: %w", token, err)
	}
	if len(ret) >= wordSize {
		if success, _ := readWord(ret, 0); success.Sign() == 0 {
			return fmt.Errorf("transfer %s: token returned false", token)
		}
	}
	return nil
}

// erc20Approve grants [spender] an allowance of [amount] on [token].
func erc20Approve(env contract.AccessibleState, token, spender common.Address, amount *big.Int) error {
	input := calldata(selectorApprove, wordAddress(spender), word(amount))
	ret, _, err := env.Call(token, input, GasTokenCall, nil)
	if err != nil {
		return fmt.Errorf("approve %s for %s: %w", token, spender, err)
	}
	if len(ret) >= wordSize {
		if success, _ := readWord(ret, 0); success.Sign() == 0 {
			return fmt.Errorf("approve %s for %s: token returned false", token, spender)
		}
	}
	return nil
}
