// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swaprouter/contract"
)

// Module wires a stateful precompile to its address and chain-config entry.
type Module struct {
	// ConfigKey is the json key this module's config is specified under.
	ConfigKey string
	// Address the precompile is reachable at.
	Address common.Address
	// Contract is the precompile implementation.
	Contract contract.StatefulPrecompiledContract
	// Configurator applies activation config to state.
	Configurator contract.Configurator
}

type moduleArray []Module

func (m moduleArray) Len() int { return len(m) }

func (m moduleArray) Swap(i, j int) { m[i], m[j] = m[j], m[i] }

func (m moduleArray) Less(i, j int) bool {
	return bytes.Compare(m[i].Address.Bytes(), m[j].Address.Bytes()) < 0
}
