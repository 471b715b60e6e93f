// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"bytes"
	"math/big"
	"testing"
)

func TestInt256RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    *big.Int
	}{
		{"zero", big.NewInt(0)},
		{"positive", big.NewInt(95)},
		{"negative", big.NewInt(-95)},
		{"large negative", new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 200))},
		{"max int256", MaxInt256},
		{"min int256", new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := wordInt256(tt.v)
			if len(enc) != wordSize {
				t.Fatalf("encoded length %d", len(enc))
			}
			dec := int256FromBytes(enc)
			if dec.Cmp(tt.v) != 0 {
				t.Errorf("round trip: got %s, want %s", dec, tt.v)
			}
		})
	}
}

func TestWordTruncation(t *testing.T) {
	over := new(big.Int).Lsh(big.NewInt(1), 256)
	if got := word(over); !bytes.Equal(got, make([]byte, wordSize)) {
		t.Errorf("2^256 should truncate to zero word, got %x", got)
	}
}

func TestDecodeUintArrayReturn(t *testing.T) {
	amounts, ok := decodeUintArrayReturn(uintArrayReturn(100, 42, 95))
	if !ok {
		t.Fatal("decode failed")
	}
	if len(amounts) != 3 {
		t.Fatalf("got %d elements", len(amounts))
	}
	if amounts[0].Int64() != 100 || amounts[2].Int64() != 95 {
		t.Errorf("got %v", amounts)
	}

	// Truncated body must not decode.
	trunc := uintArrayReturn(100, 42, 95)
	if _, ok := decodeUintArrayReturn(trunc[:len(trunc)-1]); ok {
		t.Error("truncated array decoded")
	}
	if _, ok := decodeUintArrayReturn(nil); ok {
		t.Error("empty return decoded")
	}
}

func TestDecodeIntArrayReturn(t *testing.T) {
	deltas, ok := decodeIntArrayReturn(intArrayReturn(100, 0, -95))
	if !ok {
		t.Fatal("decode failed")
	}
	if deltas[0].Int64() != 100 || deltas[1].Int64() != 0 || deltas[2].Int64() != -95 {
		t.Errorf("got %v", deltas)
	}
}

func TestPackedPathEndpoints(t *testing.T) {
	path := packedPath(testTokenIn, uint32(3000), testTokenMid, uint32(500), testTokenOut)
	first, last := packedPathEndpoints(path)
	if first != testTokenIn || last != testTokenOut {
		t.Errorf("endpoints %s %s", first, last)
	}
}
