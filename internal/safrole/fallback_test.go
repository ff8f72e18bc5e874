package safrole

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

// TestResolveSlotAssignmentFallsBackWithoutFullAccumulator covers
// spec.md §8 scenario 4: an epoch ends with fewer than epoch_length
// tickets in the accumulator, so γ.s' falls back to one Bandersnatch
// key per slot derived from η₂ instead of the outside-in ticket order.
func TestResolveSlotAssignmentFallsBackWithoutFullAccumulator(t *testing.T) {
	params := jamparams.Tiny()
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	e := New(params, hasher, ring)

	validators := make([]jamtypes.ValidatorKey, params.ValidatorsCount)
	for i := range validators {
		validators[i].Bandersnatch[0] = byte(i + 1)
	}

	var eta2 jamtypes.Hash
	eta2[0] = 0xAB

	short := []jamtypes.TicketBody{{}}
	assignment := e.ResolveSlotAssignment(short, eta2, validators)

	require.Equal(t, state.SlotAssignmentFallbackKeys, assignment.Mode)
	require.Len(t, assignment.Keys, int(params.EpochLength))
	for _, key := range assignment.Keys {
		found := false
		for _, v := range validators {
			if v.Bandersnatch == key {
				found = true
				break
			}
		}
		require.True(t, found, "fallback key must name a current validator")
	}
}

func TestResolveSlotAssignmentDeterministic(t *testing.T) {
	params := jamparams.Tiny()
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	e := New(params, hasher, ring)

	validators := make([]jamtypes.ValidatorKey, params.ValidatorsCount)
	for i := range validators {
		validators[i].Bandersnatch[0] = byte(i + 1)
	}
	var eta2 jamtypes.Hash
	eta2[0] = 7

	a := e.ResolveSlotAssignment(nil, eta2, validators)
	b := e.ResolveSlotAssignment(nil, eta2, validators)
	require.Equal(t, a, b)
}

// TestAuthorForSlotFallbackMatchesValidator and
// TestVerifySealFallbackMode cover spec.md §4.11's fallback-mode seal
// path end to end: author resolution by key match, then a ring-VRF
// seal check under jam_fallback_seal.
func TestAuthorForSlotFallbackMatchesValidator(t *testing.T) {
	params := jamparams.Tiny()
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	e := New(params, hasher, ring)

	validators := make([]jamtypes.ValidatorKey, 4)
	for i := range validators {
		validators[i].Bandersnatch[0] = byte(i + 1)
	}

	keys := make([]jamtypes.BandersnatchKey, params.EpochLength)
	keys[2] = validators[3].Bandersnatch
	safroleState := &state.Safrole{SlotAssignment: state.SlotAssignment{Mode: state.SlotAssignmentFallbackKeys, Keys: keys}}

	author, err := e.AuthorForSlot(safroleState, 2, validators, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, author)
}

func TestAuthorForSlotFallbackUnknownKey(t *testing.T) {
	params := jamparams.Tiny()
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	e := New(params, hasher, ring)

	validators := make([]jamtypes.ValidatorKey, 2)
	validators[0].Bandersnatch[0] = 1
	validators[1].Bandersnatch[0] = 2

	keys := make([]jamtypes.BandersnatchKey, params.EpochLength)
	keys[0][0] = 0xFF
	safroleState := &state.Safrole{SlotAssignment: state.SlotAssignment{Mode: state.SlotAssignmentFallbackKeys, Keys: keys}}

	_, err := e.AuthorForSlot(safroleState, 0, validators, 0)
	require.Error(t, err)
}

func TestVerifySealFallbackMode(t *testing.T) {
	params := jamparams.Tiny()
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	e := New(params, hasher, ring)

	privateKey := []byte("validator-3-bandersnatch-secret!")
	validators := make([]jamtypes.ValidatorKey, 4)
	for i := range validators {
		validators[i].Bandersnatch[0] = byte(i + 1)
	}
	copy(validators[3].Bandersnatch[:], privateKey)

	keys := make([]jamtypes.BandersnatchKey, params.EpochLength)
	keys[0] = validators[3].Bandersnatch
	safroleState := &state.Safrole{SlotAssignment: state.SlotAssignment{Mode: state.SlotAssignmentFallbackKeys, Keys: keys}}

	var eta3 jamtypes.Hash
	eta3[0] = 9
	ringKeys := make([][]byte, len(validators))
	for i, v := range validators {
		ringKeys[i] = append([]byte(nil), v.Bandersnatch[:]...)
	}
	context := SealContext(eta3, state.SlotAssignmentFallbackKeys, 0)
	_, seal, err := ring.RingProve(ringKeys, privateKey, context, nil)
	require.NoError(t, err)

	author, err := e.VerifySeal(safroleState, 0, validators, 0, eta3, seal)
	require.NoError(t, err)
	require.EqualValues(t, 3, author)
}
