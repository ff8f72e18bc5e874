package state

import "github.com/jamstate/jamnode/internal/jamtypes"

// AuthPools is α: one pool of available authorizer hashes per core,
// bounded by Params.MaxAuthorizationsPool (spec.md §3/invariant 3).
type AuthPools [][]jamtypes.Hash

// AuthQueue is φ: one bounded ring of queued authorizer hashes per
// core (spec.md §3).
type AuthQueue [][]jamtypes.Hash

// ReportedPackage names a work-package accumulated into a historical
// block, for β's record.
type ReportedPackage struct {
	Hash        jamtypes.Hash
	ExportsRoot jamtypes.Hash
}

// BlockInfo is one β entry: a historical block's header hash, state
// root, BEEFY-MMR peak commitment, and the packages it reported
// (spec.md §3).
type BlockInfo struct {
	HeaderHash jamtypes.Hash
	StateRoot  jamtypes.Hash
	BeefyRoot  jamtypes.Hash
	Reported   []ReportedPackage
}

// RecentHistory is β: a bounded FIFO of BlockInfo, oldest dropped on
// overflow (spec.md §4.2/§4.3).
type RecentHistory struct {
	maxLen int
	blocks []BlockInfo
}

// NewRecentHistory returns an empty β bounded to maxLen entries.
func NewRecentHistory(maxLen int) *RecentHistory {
	return &RecentHistory{maxLen: maxLen}
}

// Push appends info, dropping the oldest entry if the FIFO is full.
func (h *RecentHistory) Push(info BlockInfo) {
	h.blocks = append(h.blocks, info)
	if len(h.blocks) > h.maxLen {
		h.blocks = h.blocks[len(h.blocks)-h.maxLen:]
	}
}

// Entries returns the current β entries, oldest first.
func (h *RecentHistory) Entries() []BlockInfo { return h.blocks }

// Clone returns a deep copy of h.
func (h *RecentHistory) Clone() *RecentHistory {
	clone := &RecentHistory{maxLen: h.maxLen, blocks: make([]BlockInfo, len(h.blocks))}
	for i, info := range h.blocks {
		info.Reported = append([]ReportedPackage(nil), info.Reported...)
		clone.blocks[i] = info
	}
	return clone
}

// SlotAssignmentMode tags γ.s's variant (spec.md §3/§4.6).
type SlotAssignmentMode uint8

const (
	SlotAssignmentTickets SlotAssignmentMode = iota
	SlotAssignmentFallbackKeys
)

// SlotAssignment is γ.s: either the outside-in ticket ordering for the
// epoch, or a fallback bandersnatch key per slot (spec.md §4.6).
type SlotAssignment struct {
	Mode    SlotAssignmentMode
	Tickets []jamtypes.TicketBody
	Keys    []jamtypes.BandersnatchKey
}

// Safrole is γ: the pending validator set, ticket accumulator, ring
// commitment, and slot-assignment tagged union (spec.md §3/§4.6).
type Safrole struct {
	PendingValidators []jamtypes.ValidatorKey
	TicketAccumulator []jamtypes.TicketBody
	RingCommitment    []byte
	SlotAssignment    SlotAssignment
}

// Clone returns a deep copy of s.
func (s *Safrole) Clone() *Safrole {
	clone := &Safrole{
		PendingValidators: append([]jamtypes.ValidatorKey(nil), s.PendingValidators...),
		TicketAccumulator: append([]jamtypes.TicketBody(nil), s.TicketAccumulator...),
		RingCommitment:    append([]byte(nil), s.RingCommitment...),
		SlotAssignment: SlotAssignment{
			Mode:    s.SlotAssignment.Mode,
			Tickets: append([]jamtypes.TicketBody(nil), s.SlotAssignment.Tickets...),
			Keys:    append([]jamtypes.BandersnatchKey(nil), s.SlotAssignment.Keys...),
		},
	}
	return clone
}

// DisputesRecord is ψ: the good/bad/wonky verdict sets and the
// deduplicated offender key set (spec.md §3/§4.10).
type DisputesRecord struct {
	Good      []jamtypes.Hash
	Bad       []jamtypes.Hash
	Wonky     []jamtypes.Hash
	Offenders []jamtypes.Ed25519Key
}

// Clone returns a deep copy of d.
func (d *DisputesRecord) Clone() *DisputesRecord {
	return &DisputesRecord{
		Good:      append([]jamtypes.Hash(nil), d.Good...),
		Bad:       append([]jamtypes.Hash(nil), d.Bad...),
		Wonky:     append([]jamtypes.Hash(nil), d.Wonky...),
		Offenders: append([]jamtypes.Ed25519Key(nil), d.Offenders...),
	}
}

// HasOffender reports whether key is already recorded as an offender.
func (d *DisputesRecord) HasOffender(key jamtypes.Ed25519Key) bool {
	for _, k := range d.Offenders {
		if k == key {
			return true
		}
	}
	return false
}

// AddOffender appends key to the offender set if not already present.
func (d *DisputesRecord) AddOffender(key jamtypes.Ed25519Key) {
	if !d.HasOffender(key) {
		d.Offenders = append(d.Offenders, key)
	}
}

// Entropy is η: four rotating 32-byte accumulators (spec.md §3/§4.6).
type Entropy [4]jamtypes.Hash

// Rotate performs the epoch-boundary rotation η₃←η₂←η₁←η₀, leaving η₀
// to be overwritten by the caller with the new mixed-in value.
func (e *Entropy) Rotate() {
	e[3], e[2], e[1] = e[2], e[1], e[0]
}

// AvailabilityAssignment is one ρ entry: a core's pending work report
// and the slot it was guaranteed at (spec.md §3/§4.8). The assignment's
// deadline is Timeout+work_replacement_period, not Timeout itself;
// every caller must add the period rather than treating Timeout as an
// already-resolved deadline.
type AvailabilityAssignment struct {
	Report  jamtypes.WorkReport
	Timeout jamtypes.TimeSlot
}

// Availability is ρ: one optional assignment per core.
type Availability []*AvailabilityAssignment

// Clone returns a copy of av with every assignment copied; each copied
// WorkReport still shares its slices with av.
func (av Availability) Clone() Availability {
	clone := make(Availability, len(av))
	for i, a := range av {
		if a == nil {
			continue
		}
		cp := *a
		clone[i] = &cp
	}
	return clone
}

// Privileges is χ: the three privileged service roles plus the
// always-accumulate gas-budget map (spec.md §3).
type Privileges struct {
	Manager          jamtypes.ServiceID
	Assign           jamtypes.ServiceID
	Delegate         jamtypes.ServiceID
	AlwaysAccumulate map[jamtypes.ServiceID]jamtypes.Gas
}

// Clone returns a deep copy of p.
func (p *Privileges) Clone() *Privileges {
	clone := &Privileges{Manager: p.Manager, Assign: p.Assign, Delegate: p.Delegate}
	clone.AlwaysAccumulate = make(map[jamtypes.ServiceID]jamtypes.Gas, len(p.AlwaysAccumulate))
	for k, v := range p.AlwaysAccumulate {
		clone.AlwaysAccumulate[k] = v
	}
	return clone
}

// ValidatorStats is π's per-validator bucket (block/tickets/preimage
// counters, §3).
type ValidatorStats struct {
	BlocksProduced    uint32
	TicketsSubmitted  uint32
	PreimagesProvided uint32
	PreimageBytes     uint64
	GuaranteesSigned  uint32
	AssurancesSigned  uint32
}

// CoreStats is π's per-core bucket (bandwidth/usage counters, §3).
type CoreStats struct {
	ReportsGuaranteed  uint32
	GasUsed            jamtypes.Gas
	ImportedSegments   uint32
	ExportedSegments   uint32
}

// Statistics is π: one ValidatorStats per validator, one CoreStats per
// core (spec.md §3).
type Statistics struct {
	Validators []ValidatorStats
	Cores      []CoreStats
}

// Clone returns a deep copy of s.
func (s *Statistics) Clone() *Statistics {
	return &Statistics{
		Validators: append([]ValidatorStats(nil), s.Validators...),
		Cores:      append([]CoreStats(nil), s.Cores...),
	}
}

// ReadyQueue is θ: epoch_length slot-in-epoch buckets of
// WorkReportAndDeps, "available but not yet accumulated" (spec.md
// §3/§4.2/§4.7).
type ReadyQueue [][]jamtypes.WorkReportAndDeps

// Clone returns a copy of q with every bucket copied; the items in each
// bucket share their Dependencies and WorkReport slices with q.
func (q ReadyQueue) Clone() ReadyQueue {
	clone := make(ReadyQueue, len(q))
	for i, bucket := range q {
		clone[i] = append([]jamtypes.WorkReportAndDeps(nil), bucket...)
	}
	return clone
}

// AccumulationHistory is ξ: a rolling epoch_length window of
// already-accumulated work-package-hash sets, each kept sorted for a
// single canonical encoding (spec.md §3/§4.2).
type AccumulationHistory [][]jamtypes.Hash

// Clone returns a deep copy of x.
func (x AccumulationHistory) Clone() AccumulationHistory {
	clone := make(AccumulationHistory, len(x))
	for i, bucket := range x {
		clone[i] = append([]jamtypes.Hash(nil), bucket...)
	}
	return clone
}

// Contains reports whether hash appears in any bucket of the window.
func (x AccumulationHistory) Contains(hash jamtypes.Hash) bool {
	for _, bucket := range x {
		for _, h := range bucket {
			if h == hash {
				return true
			}
		}
	}
	return false
}

// ShiftDown drops the oldest bucket and appends a fresh empty one,
// matching spec.md §4.2's shiftDown() contract.
func (x AccumulationHistory) ShiftDown() AccumulationHistory {
	if len(x) == 0 {
		return x
	}
	out := make(AccumulationHistory, len(x))
	copy(out, x[1:])
	out[len(out)-1] = nil
	return out
}
