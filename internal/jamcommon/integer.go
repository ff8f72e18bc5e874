// Copyright 2024 The Erigon Authors
// (original work, adapted)
// Copyright 2026 The jamnode Authors
// (modifications)
//
// jamnode is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package jamcommon holds small arithmetic and parsing helpers shared
// across the STF that don't deserve a dependency of their own.
package jamcommon

import (
	"fmt"
	"math/bits"
	"strconv"
)

// SafeAdd returns x+y and whether the addition overflowed a uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// SafeMul returns x*y and whether the multiplication overflowed a uint64.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// CeilDiv returns ceil(x/y), or 0 if y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// ParseUint64 parses s as a decimal or 0x-prefixed hexadecimal integer.
// The empty string parses as zero.
func ParseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// MustParseUint64 parses s and panics if it is not a valid integer.
func MustParseUint64(s string) uint64 {
	v, ok := ParseUint64(s)
	if !ok {
		panic(fmt.Sprintf("invalid unsigned 64 bit integer: %q", s))
	}
	return v
}
