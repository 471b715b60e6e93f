// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the activation and configuration plumbing
// shared by all stateful precompiles.
package precompileconfig

// Upgrade tracks the activation timestamp of a precompile config.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the timestamp this config activates at, nil if unset.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal returns true iff both upgrades activate at the same time with the
// same disable flag.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	if u.BlockTimestamp == nil || other.BlockTimestamp == nil {
		return u.BlockTimestamp == other.BlockTimestamp
	}
	return *u.BlockTimestamp == *other.BlockTimestamp
}

// ChainConfig provides chain-level context to config verification.
type ChainConfig interface {
	IsPrecompileEnabled(configKey string, timestamp uint64) bool
}

// Config is implemented by every precompile's chain-config entry.
type Config interface {
	// Key returns the unique json key used to identify this config.
	Key() string
	// Timestamp returns the activation timestamp, nil if never.
	Timestamp() *uint64
	// IsDisabled returns true if this config deactivates the precompile.
	IsDisabled() bool
	// Equal returns true iff [other] configures identical behavior.
	Equal(other Config) bool
	// Verify checks the config is internally consistent.
	Verify(chainConfig ChainConfig) error
}
