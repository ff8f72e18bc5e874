// Package preimage integrates the preimages extrinsic into Δ: binding
// requested blobs under their service's preimage map and advancing the
// lookup lifecycle, subject to per-block byte/count limits (spec.md
// §4.9).
package preimage

import (
	"fmt"
	"sort"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
	"github.com/jamstate/jamnode/internal/statekey"
)

var (
	ErrUnknownService    = fmt.Errorf("preimage: requester service not found")
	ErrNoMatchingRequest = fmt.Errorf("preimage: no lookup entry requests this blob")
	ErrDuplicate         = fmt.Errorf("preimage: blob already provided")
	ErrTooManyPreimages  = fmt.Errorf("preimage: per-block count limit exceeded")
	ErrTooManyBytes      = fmt.Errorf("preimage: per-block byte limit exceeded")
	ErrUnordered         = fmt.Errorf("preimage: extrinsic not sorted by (requester, blob)")
)

// Engine integrates Preimage extrinsics for one block.
type Engine struct {
	params *jamparams.Params
	hasher jamcrypto.Hasher
}

// New returns an Engine bound to params and hasher.
func New(params *jamparams.Params, hasher jamcrypto.Hasher) *Engine {
	return &Engine{params: params, hasher: hasher}
}

// serviceLookup resolves a service account, writable for mutation.
type serviceLookup func(jamtypes.ServiceID) (*state.ServiceAccount, bool)

// Integrate applies every Preimage in order, enforcing the
// per-block byte and count limits and the canonical (requester, blob)
// ordering (spec.md §4.9). slot is the block's timeslot, used to stamp
// the lookup lifecycle's first unset field.
func (e *Engine) Integrate(lookup serviceLookup, preimages []jamtypes.Preimage, slot jamtypes.TimeSlot) error {
	if !sorted(preimages) {
		return ErrUnordered
	}
	var totalBytes uint64
	if uint32(len(preimages)) > e.params.MaxPreimagesPerBlock {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPreimages, len(preimages), e.params.MaxPreimagesPerBlock)
	}
	for _, p := range preimages {
		totalBytes += uint64(len(p.Blob))
		if totalBytes > e.params.MaxPreimageBytesPerBlock {
			return fmt.Errorf("%w: %d > %d", ErrTooManyBytes, totalBytes, e.params.MaxPreimageBytesPerBlock)
		}
		if err := e.integrateOne(lookup, p, slot); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) integrateOne(lookup serviceLookup, p jamtypes.Preimage, slot jamtypes.TimeSlot) error {
	acc, ok := lookup(p.Requester)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownService, p.Requester)
	}
	preimageHash := jamtypes.Hash(e.hasher.Blake2b256(p.Blob))
	preimageKey := statekey.ServicePreimage(p.Requester, preimageHash).String()
	if _, exists := acc.Preimages.Get(preimageKey); exists {
		return fmt.Errorf("%w: service %d", ErrDuplicate, p.Requester)
	}
	blake2bOfHash := jamtypes.Hash(e.hasher.Blake2b256(preimageHash[:]))
	lookupKey := statekey.ServicePreimageLookup(p.Requester, uint32(len(p.Blob)), blake2bOfHash).String()
	if _, exists := acc.PreimageLookup.Get(lookupKey); !exists {
		return fmt.Errorf("%w: service %d", ErrNoMatchingRequest, p.Requester)
	}
	acc.IntegratePreimage(preimageKey, lookupKey, p.Blob, slot)
	return nil
}

func sorted(preimages []jamtypes.Preimage) bool {
	return sort.SliceIsSorted(preimages, func(i, j int) bool {
		if preimages[i].Requester != preimages[j].Requester {
			return preimages[i].Requester < preimages[j].Requester
		}
		return lessBytes(preimages[i].Blob, preimages[j].Blob)
	})
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
