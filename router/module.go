// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
	"github.com/luxfi/swaprouter/modules"
	"github.com/luxfi/swaprouter/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)
var _ contract.StatefulPrecompiledContract = (*routerPrecompile)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "swapRouterConfig"

// RouterPrecompile is the singleton instance
var RouterPrecompile = &routerPrecompile{
	venues: make(map[common.Address]VenueKind),
}

// Module is the precompile module (LXRouter at LP-9012)
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Contract:     RouterPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

// Configure seeds the admin and front door slots and populates the venue
// table. The table is written here only; dispatch reads it without locking
// because administrative mutation cannot interleave with an in-flight call.
func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}

	setStateAddress(state, AdminSlot, config.Admin)
	setStateAddress(state, FrontDoorSlot, config.FrontDoor)

	// Replace the table wholesale so venues dropped by a reconfiguration
	// do not linger from the previous activation.
	venues := make(map[common.Address]VenueKind, len(config.Venues))
	for _, v := range config.Venues {
		kind, err := venueKindFromString(v.Kind)
		if err != nil {
			return err
		}
		venues[v.Address] = kind
	}
	RouterPrecompile.venues = venues
	return nil
}

// VenueConfig maps one venue address to its calldata dialect.
type VenueConfig struct {
	Address common.Address `json:"address"`
	Kind    string         `json:"kind"`
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade   precompileconfig.Upgrade `json:"upgrade,omitempty"`
	Admin     common.Address           `json:"admin"`
	FrontDoor common.Address           `json:"frontDoor"`
	Venues    []VenueConfig            `json:"venues,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	if !c.Upgrade.Equal(&other.Upgrade) ||
		c.Admin != other.Admin ||
		c.FrontDoor != other.FrontDoor ||
		len(c.Venues) != len(other.Venues) {
		return false
	}
	for i := range c.Venues {
		if c.Venues[i] != other.Venues[i] {
			return false
		}
	}
	return true
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.Admin == (common.Address{}) {
		return fmt.Errorf("swap router config: admin cannot be zero")
	}
	if c.FrontDoor == (common.Address{}) {
		return fmt.Errorf("swap router config: front door cannot be zero")
	}
	seen := make(map[common.Address]bool, len(c.Venues))
	for _, v := range c.Venues {
		if _, err := venueKindFromString(v.Kind); err != nil {
			return err
		}
		if seen[v.Address] {
			return fmt.Errorf("swap router config: duplicate venue %s", v.Address)
		}
		seen[v.Address] = true
	}
	return nil
}

func venueKindFromString(s string) (VenueKind, error) {
	switch s {
	case "pair":
		return VenuePair, nil
	case "concentrated":
		return VenueConcentrated, nil
	case "batchVault":
		return VenueBatchVault, nil
	case "bondingCurve":
		return VenueBondingCurve, nil
	default:
		return VenueUnknown, fmt.Errorf("swap router config: unknown venue kind %q", s)
	}
}

// routerPrecompile implements the swap routing precompile.
type routerPrecompile struct {
	// venues maps configured venue addresses to their dialect. Read-only
	// during dispatch; addresses not present dispatch to the bonding-curve
	// family.
	venues map[common.Address]VenueKind
}

// venueKind resolves the dialect for [venue], falling through to the
// bonding-curve family for unconfigured addresses.
func (r *routerPrecompile) venueKind(venue common.Address) VenueKind {
	if kind, ok := r.venues[venue]; ok {
		return kind
	}
	return VenueBondingCurve
}

// Run executes the swap router precompile
func (r *routerPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if len(input) < 4 {
		return nil, suppliedGas, ErrInvalidInput
	}

	var selector [4]byte
	copy(selector[:], input[:4])
	args := input[4:]

	switch selector {
	case SelectorExecuteStrategy:
		return r.runExecuteStrategy(accessibleState, caller, addr, args, suppliedGas, readOnly)
	case SelectorApproveSpenders:
		return r.runApproveSpenders(accessibleState, caller, args, suppliedGas, readOnly)
	case SelectorSetFrontDoor:
		return r.runSetAddressSlot(accessibleState, caller, FrontDoorSlot, args, suppliedGas, readOnly)
	case SelectorSetAdmin:
		return r.runSetAddressSlot(accessibleState, caller, AdminSlot, args, suppliedGas, readOnly)
	case SelectorGetFrontDoor:
		return r.runGetAddressSlot(accessibleState, FrontDoorSlot, suppliedGas)
	case SelectorGetAdmin:
		return r.runGetAddressSlot(accessibleState, AdminSlot, suppliedGas)
	case SelectorGetVenueKind:
		return r.runGetVenueKind(args, suppliedGas)
	default:
		return nil, suppliedGas, fmt.Errorf("unknown method selector: %x", selector)
	}
}

func (r *routerPrecompile) runExecuteStrategy(
	env contract.AccessibleState,
	caller common.Address,
	self common.Address,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	stateDB := env.GetStateDB()

	// Authorization is checked before any leg work.
	if caller != getStateAddress(stateDB, FrontDoorSlot) {
		return nil, suppliedGas, ErrUnauthorized
	}

	req, err := decodeStrategyInput(args)
	if err != nil {
		return nil, suppliedGas, err
	}

	cost := GasStrategyBase + GasPerLeg*uint64(len(req.Legs))
	remainingGas, err := contract.DeductGas(suppliedGas, cost)
	if err != nil {
		return nil, 0, err
	}

	if _, err := r.executeStrategy(env, self, req); err != nil {
		return nil, remainingGas, err
	}
	return nil, remainingGas, nil
}

func (r *routerPrecompile) runApproveSpenders(
	env contract.AccessibleState,
	caller common.Address,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	stateDB := env.GetStateDB()
	if caller != getStateAddress(stateDB, AdminSlot) {
		return nil, suppliedGas, ErrUnauthorized
	}

	tokens, spenders, amount, err := decodeApproveSpenders(args)
	if err != nil {
		return nil, suppliedGas, err
	}

	cost := GasApprove * uint64(len(tokens)) * uint64(len(spenders))
	remainingGas, err := contract.DeductGas(suppliedGas, cost)
	if err != nil {
		return nil, 0, err
	}

	for _, token := range tokens {
		for _, spender := range spenders {
			if err := erc20Approve(env, token, spender, amount); err != nil {
				return nil, remainingGas, err
			}
		}
	}
	return nil, remainingGas, nil
}

func (r *routerPrecompile) runSetAddressSlot(
	env contract.AccessibleState,
	caller common.Address,
	slot common.Hash,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}
	stateDB := env.GetStateDB()
	if caller != getStateAddress(stateDB, AdminSlot) {
		return nil, remainingGas, ErrUnauthorized
	}

	newAddr, ok := readAddress(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	if newAddr == (common.Address{}) {
		return nil, remainingGas, ErrInvalidAddress
	}
	setStateAddress(stateDB, slot, newAddr)
	return nil, remainingGas, nil
}

func (r *routerPrecompile) runGetAddressSlot(
	env contract.AccessibleState,
	slot common.Hash,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminRead)
	if err != nil {
		return nil, 0, err
	}
	addr := getStateAddress(env.GetStateDB(), slot)
	return wordAddress(addr), remainingGas, nil
}

func (r *routerPrecompile) runGetVenueKind(
	args []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminRead)
	if err != nil {
		return nil, 0, err
	}
	venue, ok := readAddress(args, 0)
	if !ok {
		return nil, remainingGas, ErrInvalidInput
	}
	return wordUint64(uint64(r.venueKind(venue))), remainingGas, nil
}

// decodeApproveSpenders decodes approveSpenders calldata:
// tokenCount | tokens... | spenderCount | spenders... | amount.
func decodeApproveSpenders(args []byte) ([]common.Address, []common.Address, *big.Int, error) {
	tokenCountV, ok := readWord(args, 0)
	if !ok || !tokenCountV.IsUint64() || tokenCountV.Uint64() > uint64(len(args)/wordSize) {
		return nil, nil, nil, ErrInvalidInput
	}
	tokenCount := int(tokenCountV.Uint64())
	if tokenCount == 0 || len(args) < (1+tokenCount+1)*wordSize {
		return nil, nil, nil, ErrInvalidInput
	}
	tokens := make([]common.Address, tokenCount)
	for i := 0; i < tokenCount; i++ {
		tokens[i], _ = readAddress(args, 1+i)
	}

	spenderCountV, ok := readWord(args, 1+tokenCount)
	if !ok || !spenderCountV.IsUint64() || spenderCountV.Uint64() > uint64(len(args)/wordSize) {
		return nil, nil, nil, ErrInvalidInput
	}
	spenderCount := int(spenderCountV.Uint64())
	if spenderCount == 0 || len(args) < (2+tokenCount+spenderCount+1)*wordSize {
		return nil, nil, nil, ErrInvalidInput
	}
	spenders := make([]common.Address, spenderCount)
	for i := 0; i < spenderCount; i++ {
		spenders[i], _ = readAddress(args, 2+tokenCount+i)
	}

	amount, _ := readWord(args, 2+tokenCount+spenderCount)
	return tokens, spenders, amount, nil
}

// Storage helpers

func getStateAddress(stateDB contract.StateDB, slot common.Hash) common.Address {
	return common.BytesToAddress(stateDB.GetState(ContractAddress, slot).Bytes())
}

func setStateAddress(stateDB contract.StateDB, slot common.Hash, addr common.Address) {
	stateDB.SetState(ContractAddress, slot, common.BytesToHash(addr.Bytes()))
}
