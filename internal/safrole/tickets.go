package safrole

import (
	"fmt"
	"sort"

	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

// TicketSealContext returns the ring-VRF context a submitted ticket's
// signature is verified against: "jam_ticket_seal" ‖ η₂ ‖ attempt byte
// (spec.md §4.6).
func TicketSealContext(eta2 jamtypes.Hash, attempt uint8) []byte {
	out := append([]byte(ticketSealContext), eta2[:]...)
	return append(out, attempt)
}

// SubmitTicket verifies env against ring (the current epoch's
// bandersnatch ring, γ.k's public keys) and, if valid, inserts it into
// the accumulator γ.a, keeping it sorted by ticket id and capped at
// epoch_length entries (spec.md §4.6).
func (e *Engine) SubmitTicket(safroleState *state.Safrole, eta2 jamtypes.Hash, ringCommitment []byte, env jamtypes.TicketEnvelope) error {
	if env.Attempt >= uint8(e.params.MaxTicketEntriesPerValidator) {
		return fmt.Errorf("safrole: %w: attempt %d", ErrInvalidAttemptIndex, env.Attempt)
	}
	context := TicketSealContext(eta2, env.Attempt)
	output, err := e.ring.RingVerify(ringCommitment, context, nil, env.Signature)
	if err != nil {
		return fmt.Errorf("safrole: %w: %v", ErrRingVerifyFailed, err)
	}
	id := jamtypes.Hash(output)
	body := jamtypes.TicketBody{ID: id, Attempt: env.Attempt}
	safroleState.TicketAccumulator = insertSortedTicket(safroleState.TicketAccumulator, body)
	if len(safroleState.TicketAccumulator) > int(e.params.EpochLength) {
		safroleState.TicketAccumulator = safroleState.TicketAccumulator[:e.params.EpochLength]
	}
	return nil
}

func insertSortedTicket(tickets []jamtypes.TicketBody, body jamtypes.TicketBody) []jamtypes.TicketBody {
	idx := sort.Search(len(tickets), func(i int) bool {
		return greaterOrEqual(tickets[i].ID, body.ID)
	})
	out := append(tickets, jamtypes.TicketBody{})
	copy(out[idx+1:], out[idx:])
	out[idx] = body
	return out
}

func greaterOrEqual(a, b jamtypes.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return true
}

// OutsideIn reorders tickets into the outside-in permutation (spec.md
// §4.6/§8): first, last, second, second-to-last, .... Applying this
// twice to a sequence of even length is the identity; for odd lengths
// the median element lands in the middle both times, so involution
// still holds (spec.md §8 "outside-in ordering involution").
func OutsideIn(tickets []jamtypes.TicketBody) []jamtypes.TicketBody {
	n := len(tickets)
	out := make([]jamtypes.TicketBody, n)
	lo, hi := 0, n-1
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out[i] = tickets[lo]
			lo++
		} else {
			out[i] = tickets[hi]
			hi--
		}
	}
	return out
}

// ResolveSlotAssignment computes γ.s' at an epoch rollover (spec.md
// §4.6): outside-in ticket ordering if the accumulator holds exactly
// epoch_length tickets, otherwise a fallback key per slot derived from
// η₂.
func (e *Engine) ResolveSlotAssignment(accumulator []jamtypes.TicketBody, eta2 jamtypes.Hash, validators []jamtypes.ValidatorKey) state.SlotAssignment {
	if len(accumulator) == int(e.params.EpochLength) {
		return state.SlotAssignment{Mode: state.SlotAssignmentTickets, Tickets: OutsideIn(accumulator)}
	}
	keys := make([]jamtypes.BandersnatchKey, e.params.EpochLength)
	for slot := uint32(0); slot < e.params.EpochLength; slot++ {
		var slotBytes [4]byte
		slotBytes[0] = byte(slot)
		slotBytes[1] = byte(slot >> 8)
		slotBytes[2] = byte(slot >> 16)
		slotBytes[3] = byte(slot >> 24)
		digest := e.hasher.Blake2b256(eta2[:], slotBytes[:])
		idx := (uint32(digest[0]) | uint32(digest[1])<<8 | uint32(digest[2])<<16 | uint32(digest[3])<<24) % e.params.ValidatorsCount
		if int(idx) < len(validators) {
			keys[slot] = validators[idx].Bandersnatch
		}
	}
	return state.SlotAssignment{Mode: state.SlotAssignmentFallbackKeys, Keys: keys}
}
