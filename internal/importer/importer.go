// Package importer drives the block import pipeline: decode, header
// preconditions, time/epoch advance, seal verification, the five
// extrinsic sub-pipelines in their declared order, commit, and state
// root computation (spec.md §4.11). Driver logs stage failures and
// successful imports through an injected *zap.Logger collaborator.
package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jamstate/jamnode/internal/accumulate"
	"github.com/jamstate/jamnode/internal/availability"
	"github.com/jamstate/jamnode/internal/builder"
	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/disputes"
	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/merkle"
	"github.com/jamstate/jamnode/internal/preimage"
	"github.com/jamstate/jamnode/internal/safrole"
	"github.com/jamstate/jamnode/internal/state"
	"github.com/jamstate/jamnode/internal/transition"
)

var (
	ErrParentMismatch   = fmt.Errorf("importer: parent hash does not match last processed block")
	ErrSlotNonMonotonic = fmt.Errorf("importer: slot not strictly greater than current timeslot")
	ErrExtrinsicHash    = fmt.Errorf("importer: header extrinsic hash does not match decoded extrinsic")
)

// Driver holds every sub-pipeline engine and the last-processed header
// hash, and applies blocks against an immutable base state one at a
// time (spec.md §4.11; §5 "strict serialisation by slot").
type Driver struct {
	params      *jamparams.Params
	hasher      jamcrypto.Hasher
	verifier    jamcrypto.Verifier
	log         *zap.Logger
	safroleEng  *safrole.Engine
	availEng    *availability.Engine
	accumEng    *accumulate.Engine
	preimageEng *preimage.Engine
	disputesEng *disputes.Engine

	lastHeaderHash jamtypes.Hash
	hasImported    bool
}

// New returns a Driver bound to params and the executor used by the
// accumulation engine. A nil logger is replaced with zap.NewNop().
func New(params *jamparams.Params, hasher jamcrypto.Hasher, verifier jamcrypto.Verifier, ring jamcrypto.RingVerifier, executor accumulate.Executor, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		params:      params,
		hasher:      hasher,
		verifier:    verifier,
		log:         log,
		safroleEng:  safrole.New(params, hasher, ring),
		availEng:    availability.New(params, verifier),
		accumEng:    accumulate.New(params, executor),
		preimageEng: preimage.New(params, hasher),
		disputesEng: disputes.New(params),
	}
}

// Result is the outcome of a successful ImportBlock call.
type Result struct {
	PosteriorState *state.State
	StateRoot      jamtypes.Hash
	AccumulateRoot jamtypes.Hash
}

// ImportBlock applies block against base, following spec.md §4.11's
// six numbered steps. On any fatal error the CoW buffer is discarded
// and base is returned unmodified (the caller simply never calls
// Commit on a failed buffer; nothing here mutates base directly).
func (d *Driver) ImportBlock(base *state.State, block *jamtypes.Block) (Result, error) {
	log := d.log.With(zap.Uint32("slot", uint32(block.Header.Slot)), zap.Uint16("author", uint16(block.Header.AuthorIndex)))
	if d.hasImported && block.Header.ParentHash != d.lastHeaderHash {
		return Result{}, fmt.Errorf("%w: have %x want %x", ErrParentMismatch, block.Header.ParentHash, d.lastHeaderHash)
	}
	if block.Header.Slot <= base.Timeslot {
		return Result{}, fmt.Errorf("%w: slot %d, current %d", ErrSlotNonMonotonic, block.Header.Slot, base.Timeslot)
	}
	if want := builder.ExtrinsicHash(d.hasher, block.Extrinsic); block.Header.ExtrinsicHash != want {
		return Result{}, fmt.Errorf("%w: header has %x, computed %x", ErrExtrinsicHash, block.Header.ExtrinsicHash, want)
	}

	buf := transition.New(base)
	fail := func(stage string, err error) (Result, error) {
		buf.Deinit()
		log.Warn("block import aborted", zap.String("stage", stage), zap.Error(err))
		return Result{}, err
	}

	priorSlotInEpoch := int(uint32(base.Timeslot) % d.params.EpochLength)
	currentSlotInEpoch := int(uint32(block.Header.Slot) % d.params.EpochLength)
	epochBoundary := uint32(block.Header.Slot)/d.params.EpochLength != uint32(base.Timeslot)/d.params.EpochLength

	*buf.Timeslot() = block.Header.Slot

	if epochBoundary {
		log.Info("epoch boundary", zap.Uint32("prior_epoch", uint32(base.Timeslot)/d.params.EpochLength))
		d.advanceEpoch(buf)
	}

	eta3 := buf.Entropy()[3]
	if err := d.verifySeal(buf, block.Header, uint32(currentSlotInEpoch), eta3); err != nil {
		return fail("seal", err)
	}

	entropyOutput, err := d.safroleEng.VerifyEntropySource(buf.Safrole(), eta3, block.Header.VRFSignature)
	if err != nil {
		return fail("entropy", fmt.Errorf("entropy: %w", err))
	}
	d.safroleEng.UpdateEntropy(buf.Entropy(), entropyOutput)

	if err := d.disputesEng.Apply(buf.Disputes(), *buf.Availability(), block.Extrinsic.Disputes); err != nil {
		return fail("disputes", fmt.Errorf("disputes: %w", err))
	}

	headerHash := d.hashHeader(block.Header)
	for _, g := range block.Extrinsic.Guarantees {
		if err := d.availEng.AdmitGuarantee(*buf.Availability(), *buf.CurrValidators(), g, block.Header.Slot, headerHash); err != nil {
			return fail("guarantees", fmt.Errorf("guarantees: %w", err))
		}
	}

	tally := availability.NewTally(int(d.params.CoreCount))
	for _, a := range block.Extrinsic.Assurances {
		if err := d.availEng.AdmitAssurance(tally, *buf.CurrValidators(), a); err != nil {
			return fail("assurances", fmt.Errorf("assurances: %w", err))
		}
	}
	graduated := d.availEng.GraduateAvailable(*buf.Availability(), tally)
	d.availEng.TimeoutStalled(*buf.Availability(), block.Header.Slot)

	accResult, newQueue, newHistory, err := d.accumEng.Accumulate(*buf.ReadyQueue(), *buf.AccumHistory(), priorSlotInEpoch, currentSlotInEpoch, graduated)
	if err != nil {
		return fail("accumulate", fmt.Errorf("accumulate: %w", err))
	}
	*buf.ReadyQueue() = newQueue
	*buf.AccumHistory() = newHistory

	lookup := func(id jamtypes.ServiceID) (*state.ServiceAccount, bool) { return buf.Service(id) }
	if err := d.preimageEng.Integrate(lookup, block.Extrinsic.Preimages, block.Header.Slot); err != nil {
		return fail("preimages", fmt.Errorf("preimages: %w", err))
	}

	posterior := buf.Commit()
	if err := posterior.CheckInvariants(d.params); err != nil {
		return Result{}, fmt.Errorf("invariant: %w", err)
	}

	dict := merkle.Build(posterior)
	stateRoot := merkle.StateRoot(dict)
	d.lastHeaderHash = headerHash
	d.hasImported = true

	log.Info("block imported", zap.String("state_root", fmt.Sprintf("%x", stateRoot)), zap.Int("accumulated", len(accResult.NewlyAccumulated)))
	return Result{PosteriorState: posterior, StateRoot: stateRoot, AccumulateRoot: accResult.AccumulateRoot}, nil
}

// advanceEpoch performs the spec.md §4.11 step 3 rotations: λ←κ, κ←γ.k,
// γ.k←ι, and moves the current epoch's ready-to-report offenders into
// the header's offenders mark (by leaving ψ.offenders untouched here;
// the driver that builds the next header's OffendersMark reads it from
// ψ directly, since this is a pure bookkeeping rotation, not a mutation
// of ψ itself).
func (d *Driver) advanceEpoch(buf *transition.Buffer) {
	safroleState := buf.Safrole()
	*buf.PrevValidators() = *buf.CurrValidators()
	*buf.CurrValidators() = safroleState.PendingValidators
	safroleState.PendingValidators = *buf.NextValidators()

	eta := buf.Entropy()
	d.safroleEng.RotateEpoch(eta)

	safroleState.SlotAssignment = d.safroleEng.ResolveSlotAssignment(safroleState.TicketAccumulator, eta[2], *buf.CurrValidators())
	safroleState.TicketAccumulator = nil
}

// verifySeal resolves the claimed attempt index for slotInEpoch (the
// winning ticket's own Attempt field in ticket mode; unused in fallback
// mode) and checks the header's seal against it (spec.md §4.11 step 4).
func (d *Driver) verifySeal(buf *transition.Buffer, header jamtypes.Header, slotInEpoch uint32, eta3 jamtypes.Hash) error {
	safroleState := buf.Safrole()
	var claimedAttempt uint8
	if safroleState.SlotAssignment.Mode == state.SlotAssignmentTickets && int(slotInEpoch) < len(safroleState.SlotAssignment.Tickets) {
		claimedAttempt = safroleState.SlotAssignment.Tickets[slotInEpoch].Attempt
	}
	author, err := d.safroleEng.VerifySeal(safroleState, slotInEpoch, *buf.CurrValidators(), claimedAttempt, eta3, header.Seal)
	if err != nil {
		return err
	}
	if author != header.AuthorIndex {
		return fmt.Errorf("%w: header claims %d, resolved %d", safrole.ErrAuthorMismatch, header.AuthorIndex, author)
	}
	return nil
}

func (d *Driver) hashHeader(header jamtypes.Header) jamtypes.Hash {
	e := codec.NewEncoder()
	header.EncodeJAM(e, int(d.params.EpochLength))
	return jamtypes.Hash(d.hasher.Blake2b256(e.Bytes()))
}
