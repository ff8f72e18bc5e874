// Package builder mirrors internal/importer for validator nodes: it
// advances the slot, proves the local seal and entropy-source VRF,
// optionally mints new tickets, folds in the local mempool's pending
// extrinsics, and returns the complete sealed block (spec.md §4.12).
package builder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/safrole"
	"github.com/jamstate/jamnode/internal/state"
)

// Mempool supplies the extrinsic candidates a builder folds into a new
// block; a named external collaborator, never consulted by the STF's
// import side (spec.md §1/§9 "no module-level singleton").
type Mempool interface {
	PendingTicketAttempts() []uint8
	PendingPreimages() []jamtypes.Preimage
	PendingGuarantees() []jamtypes.ReportGuarantee
	PendingAssurances() []jamtypes.Assurance
	PendingDisputes() jamtypes.DisputesExtrinsic
}

// Builder produces new blocks for a single validator identity.
type Builder struct {
	params *jamparams.Params
	hasher jamcrypto.Hasher
	prover jamcrypto.RingProver
	log    *zap.Logger
}

// New returns a Builder bound to params, hasher and prover. A nil
// logger is replaced with zap.NewNop().
func New(params *jamparams.Params, hasher jamcrypto.Hasher, prover jamcrypto.RingProver, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{params: params, hasher: hasher, prover: prover, log: log}
}

// BuildBlock assembles a block at slot, authored by authorIndex using
// privateKey, against base (spec.md §4.12). parentHash/priorStateRoot
// identify the chain tip the new block extends.
func (b *Builder) BuildBlock(base *state.State, slot jamtypes.TimeSlot, authorIndex jamtypes.ValidatorIndex, privateKey []byte, parentHash, priorStateRoot jamtypes.Hash, mempool Mempool) (*jamtypes.Block, error) {
	slotInEpoch := uint32(slot) % b.params.EpochLength
	eta3 := base.Entropy[3]
	mode := base.Safrole.SlotAssignment.Mode

	var attempt uint8
	if mode == state.SlotAssignmentTickets && int(slotInEpoch) < len(base.Safrole.SlotAssignment.Tickets) {
		attempt = base.Safrole.SlotAssignment.Tickets[slotInEpoch].Attempt
	}

	ring := ringPublicKeys(base.CurrValidators)

	sealContext := safrole.SealContext(eta3, mode, attempt)
	_, sealProof, err := b.prover.RingProve(ring, privateKey, sealContext, nil)
	if err != nil {
		return nil, fmt.Errorf("builder: seal proof: %w", err)
	}

	entropyContext := safrole.EntropySourceContext(eta3)
	_, entropyProof, err := b.prover.RingProve(ring, privateKey, entropyContext, nil)
	if err != nil {
		return nil, fmt.Errorf("builder: entropy proof: %w", err)
	}

	tickets := b.mintTickets(base, base.Entropy[2], privateKey, mempool)
	b.log.Info("block built", zap.Uint32("slot", uint32(slot)), zap.Uint16("author", uint16(authorIndex)), zap.Int("tickets", len(tickets)))

	extrinsic := jamtypes.Extrinsic{
		Tickets:    tickets,
		Preimages:  mempool.PendingPreimages(),
		Guarantees: mempool.PendingGuarantees(),
		Assurances: mempool.PendingAssurances(),
		Disputes:   mempool.PendingDisputes(),
	}

	header := jamtypes.Header{
		ParentHash:     parentHash,
		PriorStateRoot: priorStateRoot,
		ExtrinsicHash:  ExtrinsicHash(b.hasher, extrinsic),
		Slot:           slot,
		OffendersMark:  base.Disputes.Offenders,
		AuthorIndex:    authorIndex,
		VRFSignature:   jamtypes.RingVRFProof(entropyProof),
		Seal:           jamtypes.RingVRFProof(sealProof),
	}

	return &jamtypes.Block{Header: header, Extrinsic: extrinsic}, nil
}

// mintTickets proves one ticket envelope per attempt index the mempool
// requests, in the mempool's order, taking at most the first
// MaxTicketsPerExtrinsic of them; attempts at or above
// MaxTicketEntriesPerValidator and attempts whose proof fails are
// skipped. It does not check the ticket-submission window and does not
// sort the envelopes by ticket id. Candidate selection itself — which
// attempts to mint this block — is left to the caller's mempool.
func (b *Builder) mintTickets(base *state.State, eta2 jamtypes.Hash, privateKey []byte, mempool Mempool) []jamtypes.TicketEnvelope {
	attempts := mempool.PendingTicketAttempts()
	if len(attempts) > int(b.params.MaxTicketsPerExtrinsic) {
		attempts = attempts[:b.params.MaxTicketsPerExtrinsic]
	}
	ring := ringPublicKeys(base.CurrValidators)
	var envelopes []jamtypes.TicketEnvelope
	for _, attempt := range attempts {
		if attempt >= uint8(b.params.MaxTicketEntriesPerValidator) {
			continue
		}
		context := safrole.TicketSealContext(eta2, attempt)
		_, proof, err := b.prover.RingProve(ring, privateKey, context, nil)
		if err != nil {
			continue
		}
		envelopes = append(envelopes, jamtypes.TicketEnvelope{Attempt: attempt, Signature: jamtypes.RingVRFProof(proof)})
	}
	return envelopes
}

func ringPublicKeys(validators []jamtypes.ValidatorKey) [][]byte {
	ring := make([][]byte, len(validators))
	for i, v := range validators {
		ring[i] = append([]byte(nil), v.Bandersnatch[:]...)
	}
	return ring
}

// ExtrinsicHash computes Hx per spec.md §6:
//
//	Hx = H(E([H(ET), H(EP), g, H(EA), H(ED)]))
//
// where g is the guarantees' special encoding, a length-prefixed
// sequence of (H(work_report), E4(slot), len(signatures)) tuples in
// guarantee order. Exported so internal/importer can check a decoded
// block's header against its own extrinsic content, not just the
// builder that minted it.
func ExtrinsicHash(hasher jamcrypto.Hasher, x jamtypes.Extrinsic) jamtypes.Hash {
	hT := hashSequence(hasher, func(e *codec.Encoder) {
		for _, t := range x.Tickets {
			t.EncodeJAM(e)
		}
	})
	hP := hashSequence(hasher, func(e *codec.Encoder) {
		for _, p := range x.Preimages {
			p.EncodeJAM(e)
		}
	})
	hA := hashSequence(hasher, func(e *codec.Encoder) {
		for _, a := range x.Assurances {
			a.EncodeJAM(e)
		}
	})
	hD := hashSequence(hasher, func(e *codec.Encoder) {
		x.Disputes.EncodeJAM(e)
	})

	g := codec.NewEncoder()
	g.PutSequenceLen(len(x.Guarantees))
	for _, guarantee := range x.Guarantees {
		reportEnc := codec.NewEncoder()
		guarantee.Report.EncodeJAM(reportEnc)
		reportHash := hasher.Blake2b256(reportEnc.Bytes())
		g.PutRaw(reportHash[:])
		g.PutUint32(uint32(guarantee.Slot))
		g.PutSequenceLen(len(guarantee.Signatures))
	}

	e := codec.NewEncoder()
	e.PutRaw(hT[:])
	e.PutRaw(hP[:])
	e.PutRaw(g.Bytes())
	e.PutRaw(hA[:])
	e.PutRaw(hD[:])
	return jamtypes.Hash(hasher.Blake2b256(e.Bytes()))
}

func hashSequence(hasher jamcrypto.Hasher, encode func(*codec.Encoder)) jamtypes.Hash {
	e := codec.NewEncoder()
	encode(e)
	return jamtypes.Hash(hasher.Blake2b256(e.Bytes()))
}
