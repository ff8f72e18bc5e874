// Package statekey derives the 31-byte keys under which every state
// datum lives (spec.md §4.2). The derivation is a total function;
// a collision between two distinct data is a protocol bug, not a
// recoverable error, so these constructors never return one.
package statekey

import (
	"encoding/binary"

	"github.com/jamstate/jamnode/internal/jamtypes"
)

// Key is a 31-byte Merklisation dictionary key.
type Key [31]byte

// String returns k as a raw 31-byte string, the convention used to key
// Go maps (and tidwall/btree.Map instances) by statekey.Key without
// requiring Key itself to satisfy cmp.Ordered.
func (k Key) String() string { return string(k[:]) }

// FromString inverts String, panicking if s is not exactly 31 bytes —
// an invariant violation (spec.md §7 "internal errors"), since every
// caller only ever round-trips a value produced by String.
func FromString(s string) Key {
	if len(s) != 31 {
		panic("statekey: malformed key string")
	}
	var k Key
	copy(k[:], s)
	return k
}

// Component numbers for the 15 global state components, in the order
// spec.md §3/§4.2 enumerates them (1 = α … 15 = ξ).
const (
	ComponentAuthPools     = 1  // α
	ComponentAuthQueue     = 2  // φ
	ComponentRecentHistory = 3  // β
	ComponentSafrole       = 4  // γ
	ComponentDisputes      = 5  // ψ
	ComponentEntropy       = 6  // η
	ComponentNextValidators = 7 // ι
	ComponentCurrValidators = 8 // κ
	ComponentPrevValidators = 9 // λ
	ComponentAvailability  = 10 // ρ
	ComponentTimeslot      = 11 // τ
	ComponentPrivileges    = 12 // χ
	ComponentStatistics    = 13 // π
	ComponentReadyQueue    = 14 // θ
	ComponentAccumHistory  = 15 // ξ

	serviceBasePrefix = 0xFF
)

// Component builds the key for global state component i (1..15):
// i in byte 0, zeros elsewhere.
func Component(i int) Key {
	if i < 1 || i > 15 {
		panic("statekey: component index out of range")
	}
	var k Key
	k[0] = byte(i)
	return k
}

// ServiceBase builds a service account's base key: byte 0 = 0xFF,
// bytes 1..4 = little-endian service id, zeros elsewhere.
func ServiceBase(s jamtypes.ServiceID) Key {
	var k Key
	k[0] = serviceBasePrefix
	binary.LittleEndian.PutUint32(k[1:5], uint32(s))
	return k
}

// interleave produces the load-bearing 8-byte prefix shared by every
// per-service storage/preimage/lookup key: the four bytes of the
// service id interleaved with the first four bytes of data (service
// byte 0, data byte 0, service byte 1, data byte 1, ...). Downstream
// verifiers depend on this exact byte order (spec.md §4.2).
func interleave(s jamtypes.ServiceID, data [4]byte) [8]byte {
	var sb [4]byte
	binary.LittleEndian.PutUint32(sb[:], uint32(s))
	var out [8]byte
	for i := 0; i < 4; i++ {
		out[2*i] = sb[i]
		out[2*i+1] = data[i]
	}
	return out
}

// ServiceStorage builds a service's storage-map key for a given
// 32-byte storage key: the interleaved prefix over the key's first
// four bytes, followed by the key's remaining 23 bytes (bytes 4..27 of
// the 32-byte input truncated to the tail statekey.Key can hold).
func ServiceStorage(s jamtypes.ServiceID, storageKey [32]byte) Key {
	return buildInterleaved(s, storageKey)
}

// ServicePreimage builds a service's preimage-map key for a given
// preimage hash, using the same interleaving scheme as ServiceStorage.
func ServicePreimage(s jamtypes.ServiceID, preimageHash jamtypes.Hash) Key {
	return buildInterleaved(s, [32]byte(preimageHash))
}

func buildInterleaved(s jamtypes.ServiceID, tail [32]byte) Key {
	var prefix [4]byte
	copy(prefix[:], tail[:4])
	head := interleave(s, prefix)
	var k Key
	copy(k[:8], head[:])
	copy(k[8:], tail[4:27])
	return k
}

// ServicePreimageLookup builds a service's preimage-lookup-map key:
// the interleaved prefix over the little-endian length of the
// preimage, followed by 23 bytes of Blake2b-256(preimageHash).
//
// blake2bOfHash must already be the Blake2b-256 digest of the preimage
// hash (spec.md §4.2) — statekey has no hasher of its own, so the
// caller supplies it via the jamcrypto.Hasher capability.
func ServicePreimageLookup(s jamtypes.ServiceID, length uint32, blake2bOfHash jamtypes.Hash) Key {
	var lengthBytes [4]byte
	binary.LittleEndian.PutUint32(lengthBytes[:], length)
	head := interleave(s, lengthBytes)
	var k Key
	copy(k[:8], head[:])
	copy(k[8:], blake2bOfHash[:23])
	return k
}
