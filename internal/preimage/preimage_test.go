package preimage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
	"github.com/jamstate/jamnode/internal/statekey"
)

func newAccountExpecting(t *testing.T, hasher jamcrypto.Hasher, blob []byte, service jamtypes.ServiceID) *state.ServiceAccount {
	t.Helper()
	acc := &state.ServiceAccount{}
	preimageHash := jamtypes.Hash(hasher.Blake2b256(blob))
	blake2bOfHash := jamtypes.Hash(hasher.Blake2b256(preimageHash[:]))
	lookupKey := statekey.ServicePreimageLookup(service, uint32(len(blob)), blake2bOfHash).String()
	acc.PreimageLookup.Set(lookupKey, state.PreimageStatus{})
	return acc
}

func TestIntegrateBindsBlobAndAdvancesLookup(t *testing.T) {
	hasher := jamcrypto.NewHasher()
	params := jamparams.Tiny()
	engine := New(params, hasher)

	blob := []byte("hello jam")
	acc := newAccountExpecting(t, hasher, blob, 7)
	accounts := map[jamtypes.ServiceID]*state.ServiceAccount{7: acc}
	lookup := func(id jamtypes.ServiceID) (*state.ServiceAccount, bool) {
		a, ok := accounts[id]
		return a, ok
	}

	err := engine.Integrate(lookup, []jamtypes.Preimage{{Requester: 7, Blob: blob}}, 10)
	require.NoError(t, err)

	preimageHash := jamtypes.Hash(hasher.Blake2b256(blob))
	preimageKey := statekey.ServicePreimage(7, preimageHash).String()
	stored, ok := acc.Preimages.Get(preimageKey)
	require.True(t, ok)
	require.Equal(t, blob, stored)
}

func TestIntegrateRejectsUnrequestedBlob(t *testing.T) {
	hasher := jamcrypto.NewHasher()
	params := jamparams.Tiny()
	engine := New(params, hasher)

	acc := &state.ServiceAccount{}
	accounts := map[jamtypes.ServiceID]*state.ServiceAccount{7: acc}
	lookup := func(id jamtypes.ServiceID) (*state.ServiceAccount, bool) {
		a, ok := accounts[id]
		return a, ok
	}

	err := engine.Integrate(lookup, []jamtypes.Preimage{{Requester: 7, Blob: []byte("nope")}}, 10)
	require.ErrorIs(t, err, ErrNoMatchingRequest)
}

func TestIntegrateRejectsUnorderedExtrinsic(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params, jamcrypto.NewHasher())
	preimages := []jamtypes.Preimage{
		{Requester: 9, Blob: []byte("b")},
		{Requester: 1, Blob: []byte("a")},
	}
	err := engine.Integrate(func(jamtypes.ServiceID) (*state.ServiceAccount, bool) { return nil, false }, preimages, 0)
	require.ErrorIs(t, err, ErrUnordered)
}
