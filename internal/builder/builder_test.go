package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

type emptyMempool struct{}

func (emptyMempool) PendingTicketAttempts() []uint8                { return nil }
func (emptyMempool) PendingPreimages() []jamtypes.Preimage         { return nil }
func (emptyMempool) PendingGuarantees() []jamtypes.ReportGuarantee { return nil }
func (emptyMempool) PendingAssurances() []jamtypes.Assurance       { return nil }
func (emptyMempool) PendingDisputes() jamtypes.DisputesExtrinsic   { return jamtypes.DisputesExtrinsic{} }

func genesisWithRingIdentity(params *jamparams.Params) (*state.State, []byte) {
	s := state.NewGenesis(params)
	privateKey := []byte("validator-0-bandersnatch-secret!")
	copy(s.CurrValidators[0].Bandersnatch[:], privateKey)
	return s, privateKey
}

func TestBuildBlockProducesSealedHeader(t *testing.T) {
	params := jamparams.Tiny()
	base, privateKey := genesisWithRingIdentity(params)
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	b := New(params, hasher, ring, nil)

	var parentHash, priorRoot jamtypes.Hash
	parentHash[0] = 1
	priorRoot[0] = 2

	block, err := b.BuildBlock(base, 1, 0, privateKey, parentHash, priorRoot, emptyMempool{})
	require.NoError(t, err)
	require.Equal(t, parentHash, block.Header.ParentHash)
	require.Equal(t, priorRoot, block.Header.PriorStateRoot)
	require.EqualValues(t, 1, block.Header.Slot)
	require.EqualValues(t, 0, block.Header.AuthorIndex)
	require.Len(t, block.Header.Seal, 32)
	require.Len(t, block.Header.VRFSignature, 32)
	require.NotEqual(t, jamtypes.Hash{}, block.Header.ExtrinsicHash)
}

func TestBuildBlockRejectsNonMemberKey(t *testing.T) {
	params := jamparams.Tiny()
	base, _ := genesisWithRingIdentity(params)
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	b := New(params, hasher, ring, nil)

	_, err := b.BuildBlock(base, 1, 0, []byte("not-a-ring-member"), jamtypes.Hash{}, jamtypes.Hash{}, emptyMempool{})
	require.Error(t, err)
}

func TestExtrinsicHashChangesWithGuarantees(t *testing.T) {
	hasher := jamcrypto.NewHasher()

	empty := ExtrinsicHash(hasher, jamtypes.Extrinsic{})

	var reportHash jamtypes.Hash
	reportHash[0] = 7
	withGuarantee := ExtrinsicHash(hasher, jamtypes.Extrinsic{
		Guarantees: []jamtypes.ReportGuarantee{{
			Report: jamtypes.WorkReport{PackageSpec: jamtypes.PackageSpec{Hash: reportHash}},
			Slot:   3,
		}},
	})

	require.NotEqual(t, empty, withGuarantee)
}
