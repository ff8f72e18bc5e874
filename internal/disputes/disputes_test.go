package disputes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

func votes(count int, positive int) []jamtypes.JudgementSignature {
	out := make([]jamtypes.JudgementSignature, count)
	for i := range out {
		out[i] = jamtypes.JudgementSignature{ValidatorIndex: jamtypes.ValidatorIndex(i), Vote: i < positive}
	}
	return out
}

func TestApplyClassifiesBadAndClearsAssignment(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params)
	disputesRecord := &state.DisputesRecord{}

	var target jamtypes.Hash
	target[0] = 1
	ro := state.Availability{{Report: jamtypes.WorkReport{PackageSpec: jamtypes.PackageSpec{Hash: target}}}}

	x := jamtypes.DisputesExtrinsic{
		Verdicts: []jamtypes.Verdict{{Target: target, Votes: votes(6, 0)}},
	}
	err := engine.Apply(disputesRecord, ro, x)
	require.NoError(t, err)
	require.Equal(t, []jamtypes.Hash{target}, disputesRecord.Bad)
	require.Nil(t, ro[0])
}

func TestApplyClassifiesGood(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params)
	disputesRecord := &state.DisputesRecord{}

	var target jamtypes.Hash
	target[0] = 2
	x := jamtypes.DisputesExtrinsic{
		Verdicts: []jamtypes.Verdict{{Target: target, Votes: votes(6, 6)}},
	}
	err := engine.Apply(disputesRecord, state.Availability{}, x)
	require.NoError(t, err)
	require.Equal(t, []jamtypes.Hash{target}, disputesRecord.Good)
}

func TestApplyRejectsDoubleJudgement(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params)
	disputesRecord := &state.DisputesRecord{}

	var target jamtypes.Hash
	target[0] = 3
	x := jamtypes.DisputesExtrinsic{Verdicts: []jamtypes.Verdict{{Target: target, Votes: votes(6, 6)}}}
	require.NoError(t, engine.Apply(disputesRecord, state.Availability{}, x))
	require.ErrorIs(t, engine.Apply(disputesRecord, state.Availability{}, x), ErrAlreadyJudged)
}

func TestApplyDeduplicatesOffenders(t *testing.T) {
	params := jamparams.Tiny()
	engine := New(params)
	disputesRecord := &state.DisputesRecord{}

	var offenderKey jamtypes.Ed25519Key
	offenderKey[0] = 9
	x := jamtypes.DisputesExtrinsic{Culprits: []jamtypes.Culprit{{Offender: offenderKey}}}
	require.NoError(t, engine.Apply(disputesRecord, state.Availability{}, x))
	require.ErrorIs(t, engine.Apply(disputesRecord, state.Availability{}, x), ErrDuplicateOffender)
}
