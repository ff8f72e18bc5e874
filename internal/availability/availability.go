// Package availability implements the guarantees and assurances
// pipeline: admitting new work reports onto cores, tracking assurance
// bitfields, and timing out stalled reports (spec.md §4.8).
package availability

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	bitfield "github.com/prysmaticlabs/go-bitfield"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

var (
	ErrQuorumNotReached    = fmt.Errorf("availability: signature count below quorum")
	ErrDuplicateSignature  = fmt.Errorf("availability: duplicate validator index in signatures")
	ErrBadSignature        = fmt.Errorf("availability: guarantor signature failed verification")
	ErrCoreOccupied        = fmt.Errorf("availability: core index occupied without timeout")
)

// Engine admits guarantees and processes assurances against ρ (spec.md
// §4.8).
type Engine struct {
	params   *jamparams.Params
	verifier jamcrypto.Verifier
}

// New returns an Engine bound to params and verifier.
func New(params *jamparams.Params, verifier jamcrypto.Verifier) *Engine {
	return &Engine{params: params, verifier: verifier}
}

// AdmitGuarantee validates a ReportGuarantee against current ρ and
// validator set, and stages it as the new assignment for its core on
// success (spec.md §4.8). currentSlot is the slot the guarantee is
// being processed in.
func (e *Engine) AdmitGuarantee(ro state.Availability, validators []jamtypes.ValidatorKey, g jamtypes.ReportGuarantee, currentSlot jamtypes.TimeSlot, headerHash jamtypes.Hash) error {
	quorum := int(e.params.Quorum())
	if len(g.Signatures) < quorum {
		return fmt.Errorf("%w: have %d, want %d", ErrQuorumNotReached, len(g.Signatures), quorum)
	}
	seen := roaring.New()
	for _, sig := range g.Signatures {
		idx := uint32(sig.ValidatorIndex)
		if seen.Contains(idx) {
			return fmt.Errorf("%w: index %d", ErrDuplicateSignature, sig.ValidatorIndex)
		}
		seen.Add(idx)
		if int(sig.ValidatorIndex) >= len(validators) {
			return fmt.Errorf("availability: validator index %d out of range", sig.ValidatorIndex)
		}
		msg := reportSigningMessage(g.Report, headerHash)
		pub := validators[sig.ValidatorIndex].Ed25519
		if !e.verifier.Verify(pub[:], msg, sig.Signature[:]) {
			return fmt.Errorf("%w: validator %d", ErrBadSignature, sig.ValidatorIndex)
		}
	}

	core := int(g.Report.CoreIndex)
	if core >= len(ro) {
		return fmt.Errorf("availability: core index %d out of range", core)
	}
	if existing := ro[core]; existing != nil {
		deadline := existing.Timeout + jamtypes.TimeSlot(e.params.WorkReplacementPeriod)
		if currentSlot < deadline {
			return fmt.Errorf("%w: core %d", ErrCoreOccupied, core)
		}
	}
	ro[core] = &state.AvailabilityAssignment{Report: g.Report, Timeout: currentSlot}
	return nil
}

// reportSigningMessage is the byte string a guarantor's signature
// covers: the report's package hash, concatenated with the header it
// was guaranteed against, matching the Ed25519-signed-attestation
// pattern used for assurances (spec.md §4.8 names both as "signed
// over the parent header hash"; guarantees additionally commit to
// their own report).
func reportSigningMessage(r jamtypes.WorkReport, headerHash jamtypes.Hash) []byte {
	out := append([]byte(nil), r.PackageSpec.Hash[:]...)
	return append(out, headerHash[:]...)
}

// AdmitAssurance validates an Assurance's signature and, for every bit
// set, records that the signing validator attests to holding its
// erasure-coded chunk of that core's pending report (spec.md §4.8).
// It returns only an error; whether a core has reached quorum is read
// from tally afterwards.
func (e *Engine) AdmitAssurance(tally []*roaring.Bitmap, validators []jamtypes.ValidatorKey, a jamtypes.Assurance) error {
	if int(a.ValidatorIndex) >= len(validators) {
		return fmt.Errorf("availability: validator index %d out of range", a.ValidatorIndex)
	}
	pub := validators[a.ValidatorIndex].Ed25519
	if !e.verifier.Verify(pub[:], a.Anchor[:], a.Signature[:]) {
		return fmt.Errorf("%w: validator %d", ErrBadSignature, a.ValidatorIndex)
	}
	bits := bitfield.Bitlist(a.Bitfield)
	for core := 0; core < int(e.params.CoreCount); core++ {
		if core < len(tally) && bitGet(bits, core) {
			tally[core].Add(uint32(a.ValidatorIndex))
		}
	}
	return nil
}

func bitGet(b bitfield.Bitlist, i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(b) {
		return false
	}
	return b[byteIdx]&(1<<uint(i%8)) != 0
}

// NewTally returns one empty roaring bitmap per core, used to
// accumulate assurance votes before checking quorum.
func NewTally(coreCount int) []*roaring.Bitmap {
	out := make([]*roaring.Bitmap, coreCount)
	for i := range out {
		out[i] = roaring.New()
	}
	return out
}

// GraduateAvailable moves any core whose tally has reached quorum from
// ρ into the report slice it returns, clearing that core's assignment
// (spec.md §4.8 "graduate from ρ into θ at the appropriate slot
// bucket" — the caller is responsible for placing the returned reports
// into θ/accumulation).
func (e *Engine) GraduateAvailable(ro state.Availability, tally []*roaring.Bitmap) []jamtypes.WorkReport {
	quorum := uint64(e.params.Quorum())
	var graduated []jamtypes.WorkReport
	for core, assignment := range ro {
		if assignment == nil || core >= len(tally) {
			continue
		}
		if tally[core].GetCardinality() >= quorum {
			graduated = append(graduated, assignment.Report)
			ro[core] = nil
		}
	}
	return graduated
}

// TimeoutStalled drops any core's assignment whose deadline
// (Timeout+work_replacement_period) has passed without reaching quorum
// (spec.md §4.8 "timed-out reports... are dropped from ρ and never
// accumulated").
func (e *Engine) TimeoutStalled(ro state.Availability, currentSlot jamtypes.TimeSlot) {
	period := jamtypes.TimeSlot(e.params.WorkReplacementPeriod)
	for core, assignment := range ro {
		if assignment == nil {
			continue
		}
		if currentSlot >= assignment.Timeout+period {
			ro[core] = nil
		}
	}
}
