// Package transition implements the copy-on-write staging buffer that
// every STF mutation goes through (spec.md §4.5). A Buffer wraps an
// immutable base State; each component has a lazy "prime" slot,
// materialised by a clone on first mutation. Commit builds a new State
// from base with every touched prime value applied, leaving base
// unchanged; Deinit discards them.
package transition

import (
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

// Buffer stages a state transition over an immutable base (spec.md
// §4.5). Reads before a component's first mutation see base; after,
// they see prime. Δ is staged separately as per-service overrides,
// merged onto the base account map on commit.
type Buffer struct {
	base *state.State

	authPools     *state.AuthPools
	authQueue     *state.AuthQueue
	recentHistory *state.RecentHistory
	safrole       *state.Safrole
	disputes      *state.DisputesRecord
	entropy       *state.Entropy
	next          *[]jamtypes.ValidatorKey
	curr          *[]jamtypes.ValidatorKey
	prev          *[]jamtypes.ValidatorKey
	availability  *state.Availability
	timeslot      *jamtypes.TimeSlot
	privileges    *state.Privileges
	statistics    *state.Statistics
	readyQueue    *state.ReadyQueue
	accumHistory  *state.AccumulationHistory

	serviceOverrides map[jamtypes.ServiceID]*state.ServiceAccount
	serviceDeleted   map[jamtypes.ServiceID]bool

	committed bool
}

// New returns a Buffer staging a transition over base. base is never
// mutated directly; all writes land in prime slots until Commit.
func New(base *state.State) *Buffer {
	return &Buffer{
		base:             base,
		serviceOverrides: map[jamtypes.ServiceID]*state.ServiceAccount{},
		serviceDeleted:   map[jamtypes.ServiceID]bool{},
	}
}

// AuthPools returns the mutable α, cloning from base on first call.
func (b *Buffer) AuthPools() *state.AuthPools {
	if b.authPools == nil {
		clone := make(state.AuthPools, len(b.base.AuthPools))
		for i, p := range b.base.AuthPools {
			clone[i] = append([]jamtypes.Hash(nil), p...)
		}
		b.authPools = &clone
	}
	return b.authPools
}

// AuthQueue returns the mutable φ, cloning from base on first call.
func (b *Buffer) AuthQueue() *state.AuthQueue {
	if b.authQueue == nil {
		clone := make(state.AuthQueue, len(b.base.AuthQueue))
		for i, q := range b.base.AuthQueue {
			clone[i] = append([]jamtypes.Hash(nil), q...)
		}
		b.authQueue = &clone
	}
	return b.authQueue
}

// RecentHistory returns the mutable β, cloning from base on first call.
func (b *Buffer) RecentHistory() *state.RecentHistory {
	if b.recentHistory == nil {
		b.recentHistory = b.base.RecentHistory.Clone()
	}
	return b.recentHistory
}

// Safrole returns the mutable γ, cloning from base on first call.
func (b *Buffer) Safrole() *state.Safrole {
	if b.safrole == nil {
		b.safrole = b.base.Safrole.Clone()
	}
	return b.safrole
}

// Disputes returns the mutable ψ, cloning from base on first call.
func (b *Buffer) Disputes() *state.DisputesRecord {
	if b.disputes == nil {
		b.disputes = b.base.Disputes.Clone()
	}
	return b.disputes
}

// Entropy returns the mutable η, cloning from base on first call.
func (b *Buffer) Entropy() *state.Entropy {
	if b.entropy == nil {
		eta := b.base.Entropy
		b.entropy = &eta
	}
	return b.entropy
}

// NextValidators returns the mutable ι, cloning from base on first call.
func (b *Buffer) NextValidators() *[]jamtypes.ValidatorKey {
	if b.next == nil {
		clone := append([]jamtypes.ValidatorKey(nil), b.base.NextValidators...)
		b.next = &clone
	}
	return b.next
}

// CurrValidators returns the mutable κ, cloning from base on first call.
func (b *Buffer) CurrValidators() *[]jamtypes.ValidatorKey {
	if b.curr == nil {
		clone := append([]jamtypes.ValidatorKey(nil), b.base.CurrValidators...)
		b.curr = &clone
	}
	return b.curr
}

// PrevValidators returns the mutable λ, cloning from base on first call.
func (b *Buffer) PrevValidators() *[]jamtypes.ValidatorKey {
	if b.prev == nil {
		clone := append([]jamtypes.ValidatorKey(nil), b.base.PrevValidators...)
		b.prev = &clone
	}
	return b.prev
}

// Availability returns the mutable ρ, cloning from base on first call.
func (b *Buffer) Availability() *state.Availability {
	if b.availability == nil {
		clone := b.base.Availability.Clone()
		b.availability = &clone
	}
	return b.availability
}

// Timeslot returns the mutable τ, cloning from base on first call.
func (b *Buffer) Timeslot() *jamtypes.TimeSlot {
	if b.timeslot == nil {
		t := b.base.Timeslot
		b.timeslot = &t
	}
	return b.timeslot
}

// Privileges returns the mutable χ, cloning from base on first call.
func (b *Buffer) Privileges() *state.Privileges {
	if b.privileges == nil {
		b.privileges = b.base.Privileges.Clone()
	}
	return b.privileges
}

// Statistics returns the mutable π, cloning from base on first call.
func (b *Buffer) Statistics() *state.Statistics {
	if b.statistics == nil {
		b.statistics = b.base.Statistics.Clone()
	}
	return b.statistics
}

// ReadyQueue returns the mutable θ, cloning from base on first call.
func (b *Buffer) ReadyQueue() *state.ReadyQueue {
	if b.readyQueue == nil {
		clone := b.base.ReadyQueue.Clone()
		b.readyQueue = &clone
	}
	return b.readyQueue
}

// AccumHistory returns the mutable ξ, cloning from base on first call.
func (b *Buffer) AccumHistory() *state.AccumulationHistory {
	if b.accumHistory == nil {
		clone := b.base.AccumHistory.Clone()
		b.accumHistory = &clone
	}
	return b.accumHistory
}

// Service returns a mutable clone of service id's account, staged as a
// Δ override. Absent accounts (neither overridden nor in base) return
// (nil, false).
func (b *Buffer) Service(id jamtypes.ServiceID) (*state.ServiceAccount, bool) {
	if b.serviceDeleted[id] {
		return nil, false
	}
	if acc, ok := b.serviceOverrides[id]; ok {
		return acc, true
	}
	base, ok := b.base.Services[id]
	if !ok {
		return nil, false
	}
	clone := base.Clone()
	b.serviceOverrides[id] = clone
	return clone, true
}

// PutService stages acc as the override for id (new or replacing).
func (b *Buffer) PutService(id jamtypes.ServiceID, acc *state.ServiceAccount) {
	delete(b.serviceDeleted, id)
	b.serviceOverrides[id] = acc
}

// DeleteService stages id for removal on commit (spec.md §3 "destroyed
// by an explicit privileged accumulation result").
func (b *Buffer) DeleteService(id jamtypes.ServiceID) {
	delete(b.serviceOverrides, id)
	b.serviceDeleted[id] = true
}

// Commit atomically moves every touched prime value onto a new State
// built from base, merging Δ overrides onto the base account map. The
// receiver must not be reused after Commit.
func (b *Buffer) Commit() *state.State {
	if b.committed {
		panic("transition: buffer committed twice")
	}
	b.committed = true

	out := *b.base
	if b.authPools != nil {
		out.AuthPools = *b.authPools
	}
	if b.authQueue != nil {
		out.AuthQueue = *b.authQueue
	}
	if b.recentHistory != nil {
		out.RecentHistory = b.recentHistory
	}
	if b.safrole != nil {
		out.Safrole = b.safrole
	}
	if b.disputes != nil {
		out.Disputes = b.disputes
	}
	if b.entropy != nil {
		out.Entropy = *b.entropy
	}
	if b.next != nil {
		out.NextValidators = *b.next
	}
	if b.curr != nil {
		out.CurrValidators = *b.curr
	}
	if b.prev != nil {
		out.PrevValidators = *b.prev
	}
	if b.availability != nil {
		out.Availability = *b.availability
	}
	if b.timeslot != nil {
		out.Timeslot = *b.timeslot
	}
	if b.privileges != nil {
		out.Privileges = b.privileges
	}
	if b.statistics != nil {
		out.Statistics = b.statistics
	}
	if b.readyQueue != nil {
		out.ReadyQueue = *b.readyQueue
	}
	if b.accumHistory != nil {
		out.AccumHistory = *b.accumHistory
	}

	if len(b.serviceOverrides) > 0 || len(b.serviceDeleted) > 0 {
		merged := make(map[jamtypes.ServiceID]*state.ServiceAccount, len(b.base.Services)+len(b.serviceOverrides))
		for id, acc := range b.base.Services {
			merged[id] = acc
		}
		for id := range b.serviceDeleted {
			delete(merged, id)
		}
		for id, acc := range b.serviceOverrides {
			merged[id] = acc
		}
		out.Services = merged
	}

	return &out
}

// Deinit discards every staged prime value without touching base; the
// buffer must not be used afterward (spec.md §4.5 "failure discipline").
func (b *Buffer) Deinit() {
	*b = Buffer{base: b.base, committed: true}
}
