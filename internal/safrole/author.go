package safrole

import (
	"fmt"

	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

// SealContext builds the ring-VRF context a header's Seal is verified
// against: "jam_ticket_seal" ‖ η₃ ‖ attempt byte in ticket mode, or
// "jam_fallback_seal" ‖ η₃ in fallback mode (spec.md §4.11).
func SealContext(eta3 jamtypes.Hash, mode state.SlotAssignmentMode, attempt uint8) []byte {
	if mode == state.SlotAssignmentTickets {
		out := append([]byte(ticketSealContext), eta3[:]...)
		return append(out, attempt)
	}
	return append([]byte(fallbackSealContext), eta3[:]...)
}

// EntropySourceContext builds the ring-VRF context a header's
// VRFSignature (entropy-source output) is verified against: "jam_entropy"
// ‖ η₃ (spec.md §4.11).
func EntropySourceContext(eta3 jamtypes.Hash) []byte {
	return append([]byte(entropyContext), eta3[:]...)
}

// AuthorForSlot resolves the expected author for slotInEpoch under the
// current γ.s (spec.md §4.6 "author selection per slot"). In ticket
// mode it consults the previous-epoch registry; in fallback mode the
// key at that slot directly identifies the validator by matching
// against validators' bandersnatch keys.
func (e *Engine) AuthorForSlot(safroleState *state.Safrole, slotInEpoch uint32, validators []jamtypes.ValidatorKey, claimedAttempt uint8) (jamtypes.ValidatorIndex, error) {
	switch safroleState.SlotAssignment.Mode {
	case state.SlotAssignmentTickets:
		if int(slotInEpoch) >= len(safroleState.SlotAssignment.Tickets) {
			return 0, fmt.Errorf("safrole: slot-in-epoch %d out of range", slotInEpoch)
		}
		ticket := safroleState.SlotAssignment.Tickets[slotInEpoch]
		return e.registry.LookupAuthor(ticket.ID, claimedAttempt)
	case state.SlotAssignmentFallbackKeys:
		if int(slotInEpoch) >= len(safroleState.SlotAssignment.Keys) {
			return 0, fmt.Errorf("safrole: slot-in-epoch %d out of range", slotInEpoch)
		}
		key := safroleState.SlotAssignment.Keys[slotInEpoch]
		for i, v := range validators {
			if v.Bandersnatch == key {
				return jamtypes.ValidatorIndex(i), nil
			}
		}
		return 0, fmt.Errorf("safrole: fallback key for slot %d not found among validators", slotInEpoch)
	default:
		return 0, fmt.Errorf("safrole: unknown slot-assignment mode %d", safroleState.SlotAssignment.Mode)
	}
}

// VerifyEntropySource checks the header's entropy-source VRF signature
// under the jam_entropy context against κ's ring commitment and
// returns its recovered output, the value UpdateEntropy must mix into
// η₀ (spec.md §4.11 step 4: "entropy-source VRF verifies similarly
// with the jam_entropy context").
func (e *Engine) VerifyEntropySource(safroleState *state.Safrole, eta3 jamtypes.Hash, vrfSignature []byte) ([]byte, error) {
	output, err := e.ring.RingVerify(safroleState.RingCommitment, EntropySourceContext(eta3), nil, vrfSignature)
	if err != nil {
		return nil, fmt.Errorf("safrole: %w: %v", ErrRingVerifyFailed, err)
	}
	return output[:], nil
}

// VerifySeal checks that claimedAuthor was entitled to produce the
// header at slotInEpoch and that seal is a valid ring-VRF proof under
// the appropriate context (spec.md §4.11 step 4). It returns the
// author's resolved validator index so the caller can cross-check it
// against the header's AuthorIndex field.
func (e *Engine) VerifySeal(safroleState *state.Safrole, slotInEpoch uint32, validators []jamtypes.ValidatorKey, claimedAttempt uint8, eta3 jamtypes.Hash, seal []byte) (jamtypes.ValidatorIndex, error) {
	author, err := e.AuthorForSlot(safroleState, slotInEpoch, validators, claimedAttempt)
	if err != nil {
		return 0, err
	}
	context := SealContext(eta3, safroleState.SlotAssignment.Mode, claimedAttempt)
	if _, err := e.ring.RingVerify(safroleState.RingCommitment, context, nil, seal); err != nil {
		return 0, fmt.Errorf("safrole: %w: %v", ErrRingVerifyFailed, err)
	}
	return author, nil
}
