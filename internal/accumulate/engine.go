// Package accumulate implements the accumulation engine: dependency
// resolution over incoming work reports and the existing θ queue,
// gas-bounded execution, ξ/θ bookkeeping, and the accumulate root
// (spec.md §4.7).
package accumulate

import (
	"bytes"
	"sort"

	"github.com/jamstate/jamnode/internal/jamcommon"
	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/merkle"
	"github.com/jamstate/jamnode/internal/state"
)

// Executor runs a service's accumulate logic for its assigned work
// results, returning the output hash on success. The STF treats PVM
// execution as an abstract collaborator (spec.md §1); accumulate.Engine
// never invokes PVM semantics itself.
type Executor interface {
	ExecuteAccumulate(service jamtypes.ServiceID, results []jamtypes.WorkResult, gasLimit jamtypes.Gas) (outputHash jamtypes.Hash, gasUsed jamtypes.Gas, ok bool)
}

// Engine advances θ/ξ and produces the accumulate root for one block's
// worth of newly-guaranteed work reports (spec.md §4.7).
type Engine struct {
	params   *jamparams.Params
	executor Executor
}

// New returns an Engine bound to params and executor.
func New(params *jamparams.Params, executor Executor) *Engine {
	return &Engine{params: params, executor: executor}
}

// Result is the outcome of running Accumulate for one block.
type Result struct {
	AccumulateRoot jamtypes.Hash
	NewlyAccumulated []jamtypes.Hash
}

// Accumulate runs the full §4.7 algorithm: partition incoming reports,
// filter against ξ, merge with the pending θ queue, drain to a fixed
// point, execute up to the block gas limit, update ξ and θ, and
// compute the accumulate root.
func (e *Engine) Accumulate(readyQueue state.ReadyQueue, accumHistory state.AccumulationHistory, priorSlotInEpoch, currentSlotInEpoch int, reports []jamtypes.WorkReport) (Result, state.ReadyQueue, state.AccumulationHistory, error) {
	immediate, queued := partition(reports)
	queued = filterAgainstHistory(queued, accumHistory)

	pending := mergePending(readyQueue, currentSlotInEpoch, queued)

	accumulatable := make([]jamtypes.WorkReport, len(immediate))
	copy(accumulatable, immediate)
	resolvedHashes := make([]jamtypes.Hash, len(immediate))
	for i, r := range immediate {
		resolvedHashes[i] = r.PackageSpec.Hash
	}
	pending = editQueue(pending, resolvedHashes)

	for {
		var drained []jamtypes.WorkReportAndDeps
		var remaining []jamtypes.WorkReportAndDeps
		for _, item := range pending {
			if item.Ready() {
				drained = append(drained, item)
			} else {
				remaining = append(remaining, item)
			}
		}
		if len(drained) == 0 {
			pending = remaining
			break
		}
		newHashes := make([]jamtypes.Hash, len(drained))
		for i, d := range drained {
			accumulatable = append(accumulatable, d.Report)
			newHashes[i] = d.Report.PackageSpec.Hash
		}
		pending = editQueue(remaining, newHashes)
	}

	executePrefix, err := e.selectExecutable(accumulatable)
	if err != nil {
		return Result{}, nil, nil, err
	}

	var newlyAccumulated []jamtypes.Hash
	byService := make(map[jamtypes.ServiceID][]jamtypes.WorkResult)
	gasByService := make(map[jamtypes.ServiceID]jamtypes.Gas)
	var serviceOrder []jamtypes.ServiceID
	for _, report := range executePrefix {
		newlyAccumulated = append(newlyAccumulated, report.PackageSpec.Hash)
		for _, result := range report.Results {
			if _, seen := byService[result.Service]; !seen {
				serviceOrder = append(serviceOrder, result.Service)
			}
			byService[result.Service] = append(byService[result.Service], result)
			gasByService[result.Service] += result.AccumulateGasUsed
		}
	}

	var entries []merkle.AccumulateRootEntry
	for _, service := range serviceOrder {
		outputHash, _, ok := e.executor.ExecuteAccumulate(service, byService[service], gasByService[service])
		if !ok {
			continue
		}
		entries = append(entries, merkle.AccumulateRootEntry{Service: service, Output: outputHash})
	}

	newHistory := accumHistory.ShiftDown()
	if len(newHistory) > 0 {
		bucket := append([]jamtypes.Hash(nil), newlyAccumulated...)
		sort.Slice(bucket, func(i, j int) bool { return bytes.Compare(bucket[i][:], bucket[j][:]) < 0 })
		newHistory[len(newHistory)-1] = bucket
	}

	newQueue := updateReadyQueue(readyQueue, pending, priorSlotInEpoch, currentSlotInEpoch, newlyAccumulated, int(e.params.EpochLength))

	return Result{
		AccumulateRoot:   merkle.AccumulateRoot(entries),
		NewlyAccumulated: newlyAccumulated,
	}, newQueue, newHistory, nil
}

// partition splits reports into immediately-accumulatable (no
// prerequisites, no segment-root-lookups) and queued (spec.md §4.7
// step 1).
func partition(reports []jamtypes.WorkReport) (immediate []jamtypes.WorkReport, queued []jamtypes.WorkReportAndDeps) {
	for _, r := range reports {
		if len(r.Context.Prerequisites) == 0 && len(r.SegmentRootLookups) == 0 {
			immediate = append(immediate, r)
			continue
		}
		deps := append([]jamtypes.Hash(nil), r.Context.Prerequisites...)
		for _, lookup := range r.SegmentRootLookups {
			deps = append(deps, lookup.WorkPackageHash)
		}
		sort.Slice(deps, func(i, j int) bool { return bytes.Compare(deps[i][:], deps[j][:]) < 0 })
		queued = append(queued, jamtypes.WorkReportAndDeps{Report: r, Dependencies: deps})
	}
	return immediate, queued
}

// filterAgainstHistory drops queued items whose package hash is
// already in ξ and strips any dependency already in ξ (spec.md §4.7
// step 2).
func filterAgainstHistory(queued []jamtypes.WorkReportAndDeps, history state.AccumulationHistory) []jamtypes.WorkReportAndDeps {
	var out []jamtypes.WorkReportAndDeps
	for _, item := range queued {
		if history.Contains(item.Report.PackageSpec.Hash) {
			continue
		}
		var deps []jamtypes.Hash
		for _, d := range item.Dependencies {
			if !history.Contains(d) {
				deps = append(deps, d)
			}
		}
		out = append(out, jamtypes.WorkReportAndDeps{Report: item.Report, Dependencies: deps})
	}
	return out
}

// mergePending iterates θ starting from currentSlotInEpoch (wrapping),
// copying every WorkReportAndDeps into a single pending queue (each copy
// gets its own Dependencies slice; the Report's slices stay shared with
// θ), then appends the newly-queued items (spec.md §4.7 step 3).
func mergePending(readyQueue state.ReadyQueue, currentSlotInEpoch int, fresh []jamtypes.WorkReportAndDeps) []jamtypes.WorkReportAndDeps {
	n := len(readyQueue)
	var pending []jamtypes.WorkReportAndDeps
	if n > 0 {
		for i := 0; i < n; i++ {
			idx := (currentSlotInEpoch + i) % n
			for _, item := range readyQueue[idx] {
				clone := jamtypes.WorkReportAndDeps{Report: item.Report, Dependencies: append([]jamtypes.Hash(nil), item.Dependencies...)}
				pending = append(pending, clone)
			}
		}
	}
	pending = append(pending, fresh...)
	return pending
}

// editQueue strips each resolved hash from every item's dependency set
// and removes any item whose package hash matches a resolved hash
// (spec.md §4.7 step 4).
func editQueue(pending []jamtypes.WorkReportAndDeps, resolved []jamtypes.Hash) []jamtypes.WorkReportAndDeps {
	if len(resolved) == 0 {
		return pending
	}
	resolvedSet := make(map[jamtypes.Hash]bool, len(resolved))
	for _, h := range resolved {
		resolvedSet[h] = true
	}
	var out []jamtypes.WorkReportAndDeps
	for _, item := range pending {
		if resolvedSet[item.Report.PackageSpec.Hash] {
			continue
		}
		for _, h := range resolved {
			item = item.WithoutDependency(h)
		}
		out = append(out, item)
	}
	return out
}

// selectExecutable takes the accumulatable prefix bounded by the block
// gas limit (spec.md §4.7 step 6; the Params.BlockGasLimit field
// replaces the prototype's hard-coded prefix-of-20 placeholder, see
// DESIGN.md Open Question decisions).
func (e *Engine) selectExecutable(accumulatable []jamtypes.WorkReport) ([]jamtypes.WorkReport, error) {
	var total jamtypes.Gas
	for i, report := range accumulatable {
		var reportGas jamtypes.Gas
		for _, result := range report.Results {
			reportGas += result.AccumulateGasUsed
		}
		next, overflow := jamcommon.SafeAdd(total, reportGas)
		if overflow || next > e.params.BlockGasLimit {
			return accumulatable[:i], nil
		}
		total = next
	}
	return accumulatable, nil
}

// updateReadyQueue applies spec.md §4.7 step 8: slot 0 (relative to
// currentSlotInEpoch) replaces its bucket with the residual pending
// queue; slots spanning (priorSlotInEpoch, currentSlotInEpoch) are
// cleared (blocks were missed there, so nothing scheduled in that gap
// is still meaningful); older slots get queue-editing applied with the
// just-accumulated hashes, dropping any item whose dependencies
// collapse to empty (the uniform "empty deps => drop" convention noted
// in spec.md §9).
func updateReadyQueue(prior state.ReadyQueue, residual []jamtypes.WorkReportAndDeps, priorSlotInEpoch, currentSlotInEpoch int, newlyAccumulated []jamtypes.Hash, epochLength int) state.ReadyQueue {
	out := make(state.ReadyQueue, epochLength)
	if epochLength == 0 {
		return out
	}
	gap := make(map[int]bool)
	for s := (priorSlotInEpoch + 1) % epochLength; s != currentSlotInEpoch && len(gap) < epochLength; s = (s + 1) % epochLength {
		gap[s] = true
	}
	for i := 0; i < epochLength; i++ {
		idx := (currentSlotInEpoch + i) % epochLength
		switch {
		case i == 0:
			out[idx] = residual
		case gap[idx]:
			out[idx] = nil
		default:
			bucket := editQueue(append([]jamtypes.WorkReportAndDeps(nil), prior[idx]...), newlyAccumulated)
			var kept []jamtypes.WorkReportAndDeps
			for _, item := range bucket {
				if len(item.Dependencies) == 0 {
					continue
				}
				kept = append(kept, item)
			}
			out[idx] = kept
		}
	}
	return out
}
