// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// 32-byte-word helpers for venue calldata. Venues speak standard ABI, so
// encoding here must match the solidity layouts exactly; decoding of our own
// precompile input uses the same word primitives.

const wordSize = 32

// word returns [v] left-padded to 32 bytes. Values wider than 32 bytes are
// truncated to their low 32 bytes.
func word(v *big.Int) []byte {
	out := make([]byte, wordSize)
	b := v.Bytes()
	if len(b) > wordSize {
		b = b[len(b)-wordSize:]
	}
	copy(out[wordSize-len(b):], b)
	return out
}

// wordUint64 returns [v] as a 32-byte word.
func wordUint64(v uint64) []byte {
	return word(new(big.Int).SetUint64(v))
}

// wordAddress returns [addr] left-padded to 32 bytes.
func wordAddress(addr common.Address) []byte {
	out := make([]byte, wordSize)
	copy(out[12:], addr.Bytes())
	return out
}

// wordInt256 encodes a signed value in two's complement. The caller
// guarantees [v] fits in 256 bits.
func wordInt256(v *big.Int) []byte {
	if v.Sign() >= 0 {
		return word(v)
	}
	// two's complement: 2^256 + v
	tc := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), v)
	return word(tc)
}

// readWord returns the 32-byte word at word index [i] of [data] as an
// unsigned big.Int, and false if [data] is too short.
func readWord(data []byte, i int) (*big.Int, bool) {
	off := i * wordSize
	if len(data) < off+wordSize {
		return nil, false
	}
	return new(big.Int).SetBytes(data[off : off+wordSize]), true
}

// readAddress returns the address in the low 20 bytes of word [i].
func readAddress(data []byte, i int) (common.Address, bool) {
	off := i * wordSize
	if len(data) < off+wordSize {
		return common.Address{}, false
	}
	return common.BytesToAddress(data[off+12 : off+wordSize]), true
}

// readInt256 decodes the two's complement word at word index [i].
func readInt256(data []byte, i int) (*big.Int, bool) {
	off := i * wordSize
	if len(data) < off+wordSize {
		return nil, false
	}
	return int256FromBytes(data[off : off+wordSize]), true
}

// int256FromBytes interprets a 32-byte big-endian slice as a signed
// two's complement integer.
func int256FromBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) == wordSize && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}

// padRight pads [b] with zero bytes to the next 32-byte boundary.
func padRight(b []byte) []byte {
	if rem := len(b) % wordSize; rem != 0 {
		return append(b, make([]byte, wordSize-rem)...)
	}
	return b
}

// calldata concatenates a 4-byte selector with encoded argument words.
func calldata(selector [4]byte, args ...[]byte) []byte {
	size := 4
	for _, a := range args {
		size += len(a)
	}
	out := make([]byte, 0, size)
	out = append(out, selector[:]...)
	for _, a := range args {
		out = append(out, a...)
	}
	return out
}

// decodeUintArrayReturn decodes a standard `uint256[]` return value:
// offset word, length word, then elements.
func decodeUintArrayReturn(ret []byte) ([]*big.Int, bool) {
	offV, ok := readWord(ret, 0)
	if !ok || !offV.IsUint64() {
		return nil, false
	}
	off := int(offV.Uint64())
	if off%wordSize != 0 || len(ret) < off+wordSize {
		return nil, false
	}
	body := ret[off:]
	lenV, ok := readWord(body, 0)
	if !ok || !lenV.IsUint64() {
		return nil, false
	}
	n := int(lenV.Uint64())
	if len(body) < (1+n)*wordSize {
		return nil, false
	}
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i], _ = readWord(body, 1+i)
	}
	return out, true
}

// decodeIntArrayReturn decodes a standard `int256[]` return value with
// two's complement elements.
func decodeIntArrayReturn(ret []byte) ([]*big.Int, bool) {
	offV, ok := readWord(ret, 0)
	if !ok || !offV.IsUint64() {
		return nil, false
	}
	off := int(offV.Uint64())
	if off%wordSize != 0 || len(ret) < off+wordSize {
		return nil, false
	}
	body := ret[off:]
	lenV, ok := readWord(body, 0)
	if !ok || !lenV.IsUint64() {
		return nil, false
	}
	n := int(lenV.Uint64())
	if len(body) < (1+n)*wordSize {
		return nil, false
	}
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i], _ = readInt256(body, 1+i)
	}
	return out, true
}
