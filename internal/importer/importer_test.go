package importer

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/builder"
	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

type noopExecutor struct{}

func (noopExecutor) ExecuteAccumulate(service jamtypes.ServiceID, results []jamtypes.WorkResult, gasLimit jamtypes.Gas) (jamtypes.Hash, jamtypes.Gas, bool) {
	var out jamtypes.Hash
	out[0] = byte(service)
	return out, gasLimit, true
}

func genesisWithValidators(params *jamparams.Params) (*state.State, []ed25519.PrivateKey) {
	s := state.NewGenesis(params)
	privs := make([]ed25519.PrivateKey, params.ValidatorsCount)
	for i := range s.CurrValidators {
		pub, priv, _ := ed25519.GenerateKey(nil)
		privs[i] = priv
		copy(s.CurrValidators[i].Ed25519[:], pub)
		s.NextValidators[i] = s.CurrValidators[i]
		s.PrevValidators[i] = s.CurrValidators[i]
	}
	return s, privs
}

func hashHeaderForTest(hasher jamcrypto.Hasher, header jamtypes.Header, epochLength int) jamtypes.Hash {
	e := codec.NewEncoder()
	header.EncodeJAM(e, epochLength)
	return jamtypes.Hash(hasher.Blake2b256(e.Bytes()))
}

func TestImportEmptyGenesisPlusEmptyBlock(t *testing.T) {
	params := jamparams.Tiny()
	base, _ := genesisWithValidators(params)
	hasher := jamcrypto.NewHasher()
	driver := New(params, hasher, jamcrypto.NewEd25519(), jamcrypto.NewDeterministicRing(hasher), noopExecutor{}, nil)

	header := jamtypes.Header{
		Slot:          1,
		AuthorIndex:   0,
		VRFSignature:  make([]byte, 32),
		Seal:          make([]byte, 32),
		ExtrinsicHash: builder.ExtrinsicHash(hasher, jamtypes.Extrinsic{}),
	}
	block := &jamtypes.Block{Header: header}

	priorEta1 := base.Entropy[1]
	result, err := driver.ImportBlock(base, block)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.PosteriorState.Timeslot)
	require.Equal(t, priorEta1, result.PosteriorState.Entropy[1])
	require.NotEqual(t, base.Entropy[0], result.PosteriorState.Entropy[0])
	require.Equal(t, base.AuthPools, result.PosteriorState.AuthPools)
	require.Equal(t, base.AuthQueue, result.PosteriorState.AuthQueue)
}

func TestImportImmediateAccumulation(t *testing.T) {
	params := jamparams.Tiny()
	base, privs := genesisWithValidators(params)
	hasher := jamcrypto.NewHasher()
	ring := jamcrypto.NewDeterministicRing(hasher)
	driver := New(params, hasher, jamcrypto.NewEd25519(), ring, noopExecutor{}, nil)

	var reportHash jamtypes.Hash
	reportHash[0] = 42
	report := jamtypes.WorkReport{
		PackageSpec: jamtypes.PackageSpec{Hash: reportHash},
		CoreIndex:   0,
		Results:     []jamtypes.WorkResult{{Service: 7, AccumulateGasUsed: 100}},
	}

	// Guarantee signatures sign over the header hash, but the header
	// hash is itself derived from the extrinsic hash, which only
	// commits to the guarantee's report hash/slot/signature count (not
	// the signature bytes themselves) — so the extrinsic and header can
	// be finalized with placeholder signatures, then the real
	// signatures filled in afterward without perturbing either hash.
	quorum := int(params.Quorum())
	guarantee := jamtypes.ReportGuarantee{Report: report, Slot: 1, Signatures: make([]jamtypes.ValidatorSignature, quorum)}

	var anchor jamtypes.Hash
	anchor[0] = 9
	bits := make([]byte, params.AvailBitfieldBytes)
	bits[0] = 1
	assurances := make([]jamtypes.Assurance, quorum)
	for i := 0; i < quorum; i++ {
		sig := ed25519.Sign(privs[i], anchor[:])
		var s jamtypes.Signature64
		copy(s[:], sig)
		assurances[i] = jamtypes.Assurance{Anchor: anchor, ValidatorIndex: jamtypes.ValidatorIndex(i), Bitfield: bits, Signature: s}
	}

	extrinsic := jamtypes.Extrinsic{
		Guarantees: []jamtypes.ReportGuarantee{guarantee},
		Assurances: assurances,
	}

	header := jamtypes.Header{
		Slot:          1,
		AuthorIndex:   0,
		VRFSignature:  make([]byte, 32),
		Seal:          make([]byte, 32),
		ExtrinsicHash: builder.ExtrinsicHash(hasher, extrinsic),
	}
	headerHash := hashHeaderForTest(hasher, header, int(params.EpochLength))

	guaranteeMsg := append([]byte(nil), reportHash[:]...)
	guaranteeMsg = append(guaranteeMsg, headerHash[:]...)
	sigs := make([]jamtypes.ValidatorSignature, quorum)
	for i := 0; i < quorum; i++ {
		sig := ed25519.Sign(privs[i], guaranteeMsg)
		var s jamtypes.Signature64
		copy(s[:], sig)
		sigs[i] = jamtypes.ValidatorSignature{ValidatorIndex: jamtypes.ValidatorIndex(i), Signature: s}
	}
	extrinsic.Guarantees[0].Signatures = sigs

	block := &jamtypes.Block{Header: header, Extrinsic: extrinsic}

	result, err := driver.ImportBlock(base, block)
	require.NoError(t, err)
	require.Contains(t, result.PosteriorState.AccumHistory[len(result.PosteriorState.AccumHistory)-1], reportHash)
	require.NotEqual(t, (jamtypes.Hash{}), result.AccumulateRoot)
}
