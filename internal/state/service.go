package state

import (
	"github.com/tidwall/btree"

	"github.com/jamstate/jamnode/internal/jamtypes"
)

// PreimageStatus is the up-to-three-slot lifecycle of a requested
// preimage: provided, expired (re-provided), forgotten (spec.md §4.9).
type PreimageStatus struct {
	Provided *jamtypes.TimeSlot
	Expired  *jamtypes.TimeSlot
	Forgotten *jamtypes.TimeSlot
}

// Advance records slot as the next unset lifecycle field, matching
// spec.md §8 scenario 6 (None,None,None) -> (10,None,None) -> (10,20,None)
// -> (10,20,30); a fourth call is rejected.
func (s *PreimageStatus) Advance(slot jamtypes.TimeSlot) bool {
	switch {
	case s.Provided == nil:
		s.Provided = &slot
	case s.Expired == nil:
		s.Expired = &slot
	case s.Forgotten == nil:
		s.Forgotten = &slot
	default:
		return false
	}
	return true
}

// ServiceAccount is the value of the Δ service-id→account map (spec.md
// §3). Storage, Preimages and PreimageLookup use tidwall/btree.Map's
// copy-on-write Copy() so a deep clone of an account is O(1) until the
// clone is first mutated, matching the CoW discipline C5 requires for
// every value crossing into the transition buffer.
type ServiceAccount struct {
	CodeHash            jamtypes.Hash
	Balance             jamtypes.Balance
	MinGasAccumulate    jamtypes.Gas
	MinGasTransfer      jamtypes.Gas
	Storage             btree.Map[string, []byte]
	Preimages           btree.Map[string, []byte]
	PreimageLookup      btree.Map[string, PreimageStatus]
}

// Clone returns a deep-enough copy of a: the three maps are cloned via
// their O(1) copy-on-write Copy(), never aliased (spec.md §3/§9 "deep
// cloning" contract — any value crossing an ownership boundary, here
// into the CoW transition buffer's Δ overrides, must be cloned).
func (a *ServiceAccount) Clone() *ServiceAccount {
	clone := &ServiceAccount{
		CodeHash:         a.CodeHash,
		Balance:          a.Balance,
		MinGasAccumulate: a.MinGasAccumulate,
		MinGasTransfer:   a.MinGasTransfer,
		Storage:          a.Storage.Copy(),
		Preimages:        a.Preimages.Copy(),
		PreimageLookup:   a.PreimageLookup.Copy(),
	}
	return clone
}

// IntegratePreimage binds blob under its key in the account's preimage
// map and, if a matching lookup entry exists with an unset first slot,
// advances its lifecycle (spec.md §4.9). preimageKey/lookupKey are the
// statekey-derived keys for this blob, already formatted as map keys
// by the caller (internal/statekey builds the byte form; the caller
// stringifies it once so the three maps here share one convention).
func (a *ServiceAccount) IntegratePreimage(preimageKey, lookupKey string, blob []byte, slot jamtypes.TimeSlot) {
	if _, ok := a.Preimages.Get(preimageKey); ok {
		return
	}
	a.Preimages.Set(preimageKey, blob)
	if status, ok := a.PreimageLookup.Get(lookupKey); ok && status.Provided == nil {
		status.Advance(slot)
		a.PreimageLookup.Set(lookupKey, status)
	}
}
