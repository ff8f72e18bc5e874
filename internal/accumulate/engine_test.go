package accumulate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

type fakeExecutor struct {
	calls map[jamtypes.ServiceID]int
	seen  map[jamtypes.ServiceID][]jamtypes.WorkResult
	gas   map[jamtypes.ServiceID]jamtypes.Gas
}

func (e *fakeExecutor) ExecuteAccumulate(service jamtypes.ServiceID, results []jamtypes.WorkResult, gasLimit jamtypes.Gas) (jamtypes.Hash, jamtypes.Gas, bool) {
	if e.calls != nil {
		e.calls[service]++
		e.seen[service] = append(e.seen[service], results...)
		e.gas[service] = gasLimit
	}
	var out jamtypes.Hash
	out[0] = byte(service)
	return out, gasLimit, true
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		calls: make(map[jamtypes.ServiceID]int),
		seen:  make(map[jamtypes.ServiceID][]jamtypes.WorkResult),
		gas:   make(map[jamtypes.ServiceID]jamtypes.Gas),
	}
}

func reportWithHash(b byte, deps ...jamtypes.Hash) jamtypes.WorkReport {
	var h jamtypes.Hash
	h[0] = b
	r := jamtypes.WorkReport{PackageSpec: jamtypes.PackageSpec{Hash: h}}
	for _, d := range deps {
		r.Context.Prerequisites = append(r.Context.Prerequisites, d)
	}
	r.Results = []jamtypes.WorkResult{{Service: jamtypes.ServiceID(b), AccumulateGasUsed: 1}}
	return r
}

func TestDependencyChainAccumulatesInOrder(t *testing.T) {
	var hA, hB, hC jamtypes.Hash
	hA[0], hB[0], hC[0] = 1, 2, 3
	reportA := reportWithHash(1)
	reportB := reportWithHash(2, hA)
	reportC := reportWithHash(3, hB)
	_ = hC

	params := jamparams.Tiny()
	engine := New(params, newFakeExecutor())
	readyQueue := make(state.ReadyQueue, params.EpochLength)
	accumHistory := make(state.AccumulationHistory, params.EpochLength)

	result, _, newHistory, err := engine.Accumulate(readyQueue, accumHistory, 0, 0, []jamtypes.WorkReport{reportC, reportB, reportA})
	require.NoError(t, err)
	require.Equal(t, []jamtypes.Hash{hA, hB, hC}, result.NewlyAccumulated)
	require.ElementsMatch(t, []jamtypes.Hash{hA, hB, hC}, newHistory[len(newHistory)-1])
}

func TestBlockGasLimitBoundsExecution(t *testing.T) {
	params := jamparams.Tiny()
	params.BlockGasLimit = 2
	engine := New(params, newFakeExecutor())
	readyQueue := make(state.ReadyQueue, params.EpochLength)
	accumHistory := make(state.AccumulationHistory, params.EpochLength)

	reports := []jamtypes.WorkReport{reportWithHash(1), reportWithHash(2), reportWithHash(3)}
	result, _, _, err := engine.Accumulate(readyQueue, accumHistory, 0, 0, reports)
	require.NoError(t, err)
	require.Len(t, result.NewlyAccumulated, 2)
}

// TestAccumulateGroupsResultsByService covers spec.md §1/§4.7 step 9:
// two reports in the same block targeting the same service must
// collapse into a single executor call (and a single accumulate-root
// entry), not one call per work result.
func TestAccumulateGroupsResultsByService(t *testing.T) {
	var hA, hB jamtypes.Hash
	hA[0], hB[0] = 1, 2

	reportA := jamtypes.WorkReport{PackageSpec: jamtypes.PackageSpec{Hash: hA}}
	reportA.Results = []jamtypes.WorkResult{{Service: 7, AccumulateGasUsed: 3}}
	reportB := jamtypes.WorkReport{PackageSpec: jamtypes.PackageSpec{Hash: hB}}
	reportB.Results = []jamtypes.WorkResult{{Service: 7, AccumulateGasUsed: 5}}

	params := jamparams.Tiny()
	executor := newFakeExecutor()
	engine := New(params, executor)
	readyQueue := make(state.ReadyQueue, params.EpochLength)
	accumHistory := make(state.AccumulationHistory, params.EpochLength)

	result, _, _, err := engine.Accumulate(readyQueue, accumHistory, 0, 0, []jamtypes.WorkReport{reportA, reportB})
	require.NoError(t, err)
	require.ElementsMatch(t, []jamtypes.Hash{hA, hB}, result.NewlyAccumulated)

	require.Equal(t, 1, executor.calls[7])
	require.Len(t, executor.seen[7], 2)
	require.EqualValues(t, 8, executor.gas[7])
}
