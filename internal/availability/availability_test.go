package availability

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
	bitfield "github.com/prysmaticlabs/go-bitfield"

	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/jamcrypto"
	"github.com/jamstate/jamnode/internal/state"
)

func newValidator(t *testing.T) (jamtypes.ValidatorKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	var key jamtypes.ValidatorKey
	copy(key.Ed25519[:], pub)
	return key, priv
}

func TestAdmitGuaranteeRequiresQuorum(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params, jamcrypto.NewEd25519())
	validators := make([]jamtypes.ValidatorKey, params.ValidatorsCount)
	privs := make([]ed25519.PrivateKey, params.ValidatorsCount)
	for i := range validators {
		validators[i], privs[i] = newValidator(t)
	}

	var headerHash jamtypes.Hash
	headerHash[0] = 1
	report := jamtypes.WorkReport{CoreIndex: 0}
	msg := reportSigningMessage(report, headerHash)

	quorum := int(params.Quorum())
	sigs := make([]jamtypes.ValidatorSignature, quorum)
	for i := 0; i < quorum; i++ {
		sig := ed25519.Sign(privs[i], msg)
		var s jamtypes.Signature64
		copy(s[:], sig)
		sigs[i] = jamtypes.ValidatorSignature{ValidatorIndex: jamtypes.ValidatorIndex(i), Signature: s}
	}

	ro := make(state.Availability, params.CoreCount)
	g := jamtypes.ReportGuarantee{Report: report, Signatures: sigs}
	err := engine.AdmitGuarantee(ro, validators, g, 1, headerHash)
	require.NoError(t, err)
	require.NotNil(t, ro[0])

	short := jamtypes.ReportGuarantee{Report: report, Signatures: sigs[:quorum-1]}
	err = engine.AdmitGuarantee(ro, validators, short, 1, headerHash)
	require.ErrorIs(t, err, ErrQuorumNotReached)
}

func TestAdmitAssuranceAndGraduate(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params, jamcrypto.NewEd25519())
	validators := make([]jamtypes.ValidatorKey, params.ValidatorsCount)
	privs := make([]ed25519.PrivateKey, params.ValidatorsCount)
	for i := range validators {
		validators[i], privs[i] = newValidator(t)
	}

	var report jamtypes.WorkReport
	report.PackageSpec.Hash[0] = 5
	ro := state.Availability{{Report: report, Timeout: 100}}

	var anchor jamtypes.Hash
	anchor[0] = 7
	bits := bitfield.NewBitlist(uint64(params.CoreCount))
	bits.SetBitAt(0, true)

	tally := NewTally(int(params.CoreCount))
	quorum := int(params.Quorum())
	for i := 0; i < quorum; i++ {
		sig := ed25519.Sign(privs[i], anchor[:])
		var s jamtypes.Signature64
		copy(s[:], sig)
		a := jamtypes.Assurance{Anchor: anchor, ValidatorIndex: jamtypes.ValidatorIndex(i), Bitfield: bits, Signature: s}
		require.NoError(t, engine.AdmitAssurance(tally, validators, a))
	}

	graduated := engine.GraduateAvailable(ro, tally)
	require.Len(t, graduated, 1)
	require.Nil(t, ro[0])
}

func TestTimeoutStalledDropsAssignment(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params, jamcrypto.NewEd25519())
	deadline := jamtypes.TimeSlot(10) + jamtypes.TimeSlot(params.WorkReplacementPeriod)

	ro := state.Availability{{Report: jamtypes.WorkReport{}, Timeout: 10}}
	engine.TimeoutStalled(ro, deadline-1)
	require.NotNil(t, ro[0], "must not drop before the deadline")

	engine.TimeoutStalled(ro, deadline)
	require.Nil(t, ro[0], "must drop once the deadline is reached")
}
