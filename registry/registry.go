// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry defines the LP-numbered precompile address scheme and the
// DEX/Markets page assignments used by this module.
package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// Lux-native precompiles use trailing-significant 20-byte addresses:
//
//	Format: 0x0000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number. P is the family page (aligned
// with LP-Pxxx), C the chain slot, II the item within the family. The
// DEX/Markets family lives on page 9, so its addresses match their LP numbers
// directly: the swap router is LP-9012 at 0x...9012.
const (
	// Core DEX (LP-9010 series)
	LXPool   = "0x0000000000000000000000000000000000009010" // LP-9010 singleton AMM
	LXOracle = "0x0000000000000000000000000000000000009011" // LP-9011 price aggregation
	LXRouter = "0x0000000000000000000000000000000000009012" // LP-9012 swap routing
	LXHooks  = "0x0000000000000000000000000000000000009013" // LP-9013 hook registry
	LXFlash  = "0x0000000000000000000000000000000000009014" // LP-9014 flash loans

	// Trading & DeFi extensions (LP-90xx)
	LXBook  = "0x0000000000000000000000000000000000009020" // LP-9020 orderbook + matching
	LXVault = "0x0000000000000000000000000000000000009030" // LP-9030 custody + margin
	LXFeed  = "0x0000000000000000000000000000000000009040" // LP-9040 computed prices
)

// PrecompileAddress calculates an address from (P, C, II) nibbles.
// Returns the trailing-significant format: 0x0000000000000000000000000000000000PCII.
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	selector := fmt.Sprintf("%x%x%02x", p, c, ii)
	addr := "0000000000000000000000000000000000" + selector
	return common.HexToAddress("0x" + addr)
}

// PrecompileInfo contains metadata about a precompile.
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	LPNumber    string
}

// DEXPrecompiles lists the DEX/Markets family precompiles.
var DEXPrecompiles = []PrecompileInfo{
	{LXPool, "LX_POOL", "Singleton AMM pool manager", 50000, "LP-9010"},
	{LXOracle, "LX_ORACLE", "Price oracle aggregation", 15000, "LP-9011"},
	{LXRouter, "LX_ROUTER", "Multi-venue swap routing", 10000, "LP-9012"},
	{LXHooks, "LX_HOOKS", "Hook contract registry", 10000, "LP-9013"},
	{LXFlash, "LX_FLASH", "Flash loan facility", 50000, "LP-9014"},
	{LXBook, "LX_BOOK", "Central limit order book", 25000, "LP-9020"},
	{LXVault, "LX_VAULT", "Custody, margin, positions", 50000, "LP-9030"},
	{LXFeed, "LX_FEED", "Computed price feeds", 10000, "LP-9040"},
}

// GetPrecompileAddress returns the address for a DEX precompile by name.
func GetPrecompileAddress(name string) common.Address {
	for _, p := range DEXPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}
