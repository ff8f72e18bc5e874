// Package safrole implements JAM's block-authoring and randomness
// protocol: entropy accumulation, the ring-VRF ticket lottery, slot
// assignment, and author selection (spec.md §4.6).
package safrole

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

const (
	ticketSealContext    = "jam_ticket_seal"
	fallbackSealContext  = "jam_fallback_seal"
	entropyContext       = "jam_entropy"
)

// Engine drives the safrole sub-pipeline. It holds no chain state of
// its own beyond the local ticket registry (spec.md §4.6 "required only
// for block production"); state.Safrole is always the source of truth.
type Engine struct {
	params  *jamparams.Params
	hasher  jamcrypto.Hasher
	ring    jamcrypto.RingVerifier
	registry *registry
}

// New returns an Engine bound to params, using hasher for entropy
// mixing and ring for ring-VRF verification.
func New(params *jamparams.Params, hasher jamcrypto.Hasher, ring jamcrypto.RingVerifier) *Engine {
	return &Engine{params: params, hasher: hasher, ring: ring, registry: newRegistry(int(params.ValidatorsCount))}
}

// registry is the local (per-node) ticket bookkeeping of spec.md §4.6:
// two generations, `current` and `previous`, rotated at epoch boundary.
// Required only for block production — import derives the author from
// γ.s directly.
type registry struct {
	current  *lru.Cache[jamtypes.Hash, ticketOwner]
	previous *lru.Cache[jamtypes.Hash, ticketOwner]
	capacity int
}

type ticketOwner struct {
	Validator jamtypes.ValidatorIndex
	Attempt   uint8
}

func newRegistry(capacity int) *registry {
	cur, err := lru.New[jamtypes.Hash, ticketOwner](capacity)
	if err != nil {
		panic("safrole: lru.New failed: " + err.Error())
	}
	prev, err := lru.New[jamtypes.Hash, ticketOwner](capacity)
	if err != nil {
		panic("safrole: lru.New failed: " + err.Error())
	}
	return &registry{current: cur, previous: prev, capacity: capacity}
}

// RecordTicket binds a ticket id to the validator that produced it, for
// the current epoch's registry generation (author selection only).
func (r *registry) RecordTicket(id jamtypes.Hash, validator jamtypes.ValidatorIndex, attempt uint8) {
	r.current.Add(id, ticketOwner{Validator: validator, Attempt: attempt})
}

// Rotate moves `current` into `previous` at an epoch boundary, per
// spec.md §4.6: tickets submitted in epoch N elect leaders in epoch
// N+1, so author lookup during epoch N+1 reads `previous`.
func (r *registry) Rotate() {
	r.previous = r.current
	cur, err := lru.New[jamtypes.Hash, ticketOwner](r.capacity)
	if err != nil {
		panic("safrole: lru.New failed: " + err.Error())
	}
	r.current = cur
}

// LookupAuthor resolves a ticket id to its validator index and checks
// the claimed attempt matches, failing with a TicketAttemptMismatch
// class error otherwise (spec.md §4.6/§7).
func (r *registry) LookupAuthor(id jamtypes.Hash, claimedAttempt uint8) (jamtypes.ValidatorIndex, error) {
	owner, ok := r.previous.Get(id)
	if !ok {
		return 0, fmt.Errorf("safrole: %w: ticket %x not in previous-epoch registry", ErrUnknownTicket, id)
	}
	if owner.Attempt != claimedAttempt {
		return 0, fmt.Errorf("safrole: %w: ticket %x attempt %d, claimed %d", ErrTicketAttemptMismatch, id, owner.Attempt, claimedAttempt)
	}
	return owner.Validator, nil
}

// UpdateEntropy advances η₀ per block: η₀' = H(η₀ ‖ vrfOutput) (spec.md
// §4.6).
func (e *Engine) UpdateEntropy(eta *state.Entropy, vrfOutput []byte) {
	eta[0] = jamtypes.Hash(e.hasher.Blake2b256(eta[0][:], vrfOutput))
}

// RotateEpoch performs the epoch-boundary entropy rotation
// η₃←η₂←η₁←η₀ and rotates the ticket registry's generations (spec.md
// §4.6/§8); the caller then calls UpdateEntropy to produce the new η₀.
func (e *Engine) RotateEpoch(eta *state.Entropy) {
	eta.Rotate()
	e.registry.Rotate()
}
