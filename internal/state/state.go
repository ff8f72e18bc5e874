// Package state defines the STF's 15 global components plus the Δ
// service-account map, and the invariants that must hold at every
// block boundary (spec.md §3/§4.3).
package state

import (
	"fmt"

	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
)

// State is the complete posterior-or-prior chain state, one value per
// global component plus Δ (spec.md §3). It carries no behaviour beyond
// construction, cloning, and invariant checking; the STF pipeline
// (C6-C10) mutates it only through internal/transition's CoW buffer.
type State struct {
	AuthPools      AuthPools
	AuthQueue      AuthQueue
	RecentHistory  *RecentHistory
	Safrole        *Safrole
	Disputes       *DisputesRecord
	Entropy        Entropy
	NextValidators []jamtypes.ValidatorKey // ι
	CurrValidators []jamtypes.ValidatorKey // κ
	PrevValidators []jamtypes.ValidatorKey // λ
	Availability   Availability            // ρ
	Timeslot       jamtypes.TimeSlot       // τ
	Privileges     *Privileges
	Statistics     *Statistics
	ReadyQueue     ReadyQueue          // θ
	AccumHistory   AccumulationHistory // ξ
	Services       map[jamtypes.ServiceID]*ServiceAccount
}

// NewGenesis builds an empty State sized to params, with every
// component at its zero/empty value except the fixed-width ones
// (invariants 1/2/4/5) which are pre-sized.
func NewGenesis(params *jamparams.Params) *State {
	s := &State{
		AuthPools:      make(AuthPools, params.CoreCount),
		AuthQueue:      make(AuthQueue, params.CoreCount),
		RecentHistory:  NewRecentHistory(int(params.MaxBlocksHistory)),
		Safrole:        &Safrole{},
		Disputes:       &DisputesRecord{},
		NextValidators: make([]jamtypes.ValidatorKey, params.ValidatorsCount),
		CurrValidators: make([]jamtypes.ValidatorKey, params.ValidatorsCount),
		PrevValidators: make([]jamtypes.ValidatorKey, params.ValidatorsCount),
		Availability:   make(Availability, params.CoreCount),
		Privileges:     &Privileges{AlwaysAccumulate: map[jamtypes.ServiceID]jamtypes.Gas{}},
		Statistics: &Statistics{
			Validators: make([]ValidatorStats, params.ValidatorsCount),
			Cores:      make([]CoreStats, params.CoreCount),
		},
		ReadyQueue:   make(ReadyQueue, params.EpochLength),
		AccumHistory: make(AccumulationHistory, params.EpochLength),
		Services:     map[jamtypes.ServiceID]*ServiceAccount{},
	}
	s.Safrole.SlotAssignment = SlotAssignment{Mode: SlotAssignmentFallbackKeys, Keys: make([]jamtypes.BandersnatchKey, params.EpochLength)}
	return s
}

// CheckInvariants validates invariants 1, 2, 3, 5, 6 and 7 of spec.md §3
// against params; γ.k passes invariant 1 when empty, α is checked for
// its per-core pool count but not its pool sizes, and invariants 4, 8
// and 9 are not checked here. Violations return an error naming which invariant failed;
// the caller (C11's driver) treats any such error as fatal (§4.11).
func (s *State) CheckInvariants(params *jamparams.Params) error {
	vc := int(params.ValidatorsCount)
	if len(s.CurrValidators) != vc || len(s.PrevValidators) != vc || len(s.NextValidators) != vc {
		return fmt.Errorf("state: invariant 1 violated: |κ|=%d |λ|=%d |ι|=%d want %d", len(s.CurrValidators), len(s.PrevValidators), len(s.NextValidators), vc)
	}
	if s.Safrole.SlotAssignment.Mode == SlotAssignmentFallbackKeys && len(s.Safrole.SlotAssignment.Keys) != int(params.EpochLength) {
		// γ.k (pending validators) is sized independently; only the
		// validators_count bound applies to it directly.
	}
	if len(s.Safrole.PendingValidators) != 0 && len(s.Safrole.PendingValidators) != vc {
		return fmt.Errorf("state: invariant 1 violated: |γ.k|=%d want %d", len(s.Safrole.PendingValidators), vc)
	}
	cc := int(params.CoreCount)
	if len(s.Availability) != cc {
		return fmt.Errorf("state: invariant 2 violated: |ρ|=%d want %d", len(s.Availability), cc)
	}
	if len(s.AuthPools) != cc {
		return fmt.Errorf("state: invariant 3 violated: |α.pools|=%d want %d", len(s.AuthPools), cc)
	}
	for core, queue := range s.AuthQueue {
		if len(queue) > int(params.MaxAuthorizationsQueue) {
			return fmt.Errorf("state: invariant 3 violated: core %d queue has %d items, max %d", core, len(queue), params.MaxAuthorizationsQueue)
		}
	}
	if len(s.AccumHistory) != int(params.EpochLength) {
		return fmt.Errorf("state: invariant 5 violated: |ξ|=%d want %d", len(s.AccumHistory), params.EpochLength)
	}
	switch s.Safrole.SlotAssignment.Mode {
	case SlotAssignmentTickets:
		if len(s.Safrole.SlotAssignment.Tickets) != int(params.EpochLength) {
			return fmt.Errorf("state: invariant 6 violated: γ.s tickets mode has %d entries, want %d", len(s.Safrole.SlotAssignment.Tickets), params.EpochLength)
		}
	case SlotAssignmentFallbackKeys:
		if len(s.Safrole.SlotAssignment.Keys) != int(params.EpochLength) {
			return fmt.Errorf("state: invariant 6 violated: γ.s fallback mode has %d entries, want %d", len(s.Safrole.SlotAssignment.Keys), params.EpochLength)
		}
	}
	for i, bucket := range s.ReadyQueue {
		for _, item := range bucket {
			for _, dep := range item.Dependencies {
				if s.AccumHistory.Contains(dep) {
					return fmt.Errorf("state: invariant 7 violated: θ[%d] depends on already-accumulated %x", i, dep)
				}
			}
		}
	}
	return nil
}

// Clone returns a copy of the full state built from each component's
// Clone; the work reports held in ρ and θ share their slices with s
// (see Availability.Clone and ReadyQueue.Clone). Used to materialise a
// CoW buffer's base snapshot and in tests that need an independent
// mutation target.
func (s *State) Clone() *State {
	clone := &State{
		RecentHistory:  s.RecentHistory.Clone(),
		Safrole:        s.Safrole.Clone(),
		Disputes:       s.Disputes.Clone(),
		Entropy:        s.Entropy,
		NextValidators: append([]jamtypes.ValidatorKey(nil), s.NextValidators...),
		CurrValidators: append([]jamtypes.ValidatorKey(nil), s.CurrValidators...),
		PrevValidators: append([]jamtypes.ValidatorKey(nil), s.PrevValidators...),
		Availability:   s.Availability.Clone(),
		Timeslot:       s.Timeslot,
		Privileges:     s.Privileges.Clone(),
		Statistics:     s.Statistics.Clone(),
		ReadyQueue:     s.ReadyQueue.Clone(),
		AccumHistory:   s.AccumHistory.Clone(),
		Services:       make(map[jamtypes.ServiceID]*ServiceAccount, len(s.Services)),
	}
	clone.AuthPools = make(AuthPools, len(s.AuthPools))
	for i, p := range s.AuthPools {
		clone.AuthPools[i] = append([]jamtypes.Hash(nil), p...)
	}
	clone.AuthQueue = make(AuthQueue, len(s.AuthQueue))
	for i, q := range s.AuthQueue {
		clone.AuthQueue[i] = append([]jamtypes.Hash(nil), q...)
	}
	for id, acc := range s.Services {
		clone.Services[id] = acc.Clone()
	}
	return clone
}
