// Package disputes tallies verdicts against disputed work-report
// hashes and bookkeeps the offender set ψ (spec.md §4.10).
package disputes

import (
	"fmt"

	"github.com/jamstate/jamnode/internal/jamparams"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
)

var (
	ErrAlreadyJudged     = fmt.Errorf("disputes: target already has a recorded verdict")
	ErrDuplicateOffender = fmt.Errorf("disputes: offender already recorded")
)

// Engine applies a DisputesExtrinsic against ψ and ρ.
type Engine struct {
	params *jamparams.Params
}

// New returns an Engine bound to params.
func New(params *jamparams.Params) *Engine {
	return &Engine{params: params}
}

// Apply tallies every Verdict, classifying each target as good, bad or
// wonky by vote supermajority, appends culprit/fault offenders to ψ's
// deduplicated set, and clears any ρ assignment whose report hash was
// judged bad or wonky (spec.md §4.10).
func (e *Engine) Apply(disputes *state.DisputesRecord, ro state.Availability, x jamtypes.DisputesExtrinsic) error {
	supermajority := int(e.params.ValidatorsSuperMajority)

	for _, v := range x.Verdicts {
		if alreadyJudged(disputes, v.Target) {
			return fmt.Errorf("%w: %x", ErrAlreadyJudged, v.Target)
		}
		positive := 0
		for _, vote := range v.Votes {
			if vote.Vote {
				positive++
			}
		}
		negative := len(v.Votes) - positive
		switch {
		case positive >= supermajority:
			disputes.Good = append(disputes.Good, v.Target)
		case negative >= supermajority:
			disputes.Bad = append(disputes.Bad, v.Target)
			clearAssignment(ro, v.Target)
		default:
			disputes.Wonky = append(disputes.Wonky, v.Target)
			clearAssignment(ro, v.Target)
		}
	}

	for _, c := range x.Culprits {
		if disputes.HasOffender(c.Offender) {
			return fmt.Errorf("%w: %x", ErrDuplicateOffender, c.Offender)
		}
		disputes.AddOffender(c.Offender)
	}
	for _, f := range x.Faults {
		if disputes.HasOffender(f.Offender) {
			return fmt.Errorf("%w: %x", ErrDuplicateOffender, f.Offender)
		}
		disputes.AddOffender(f.Offender)
	}
	return nil
}

func alreadyJudged(d *state.DisputesRecord, target jamtypes.Hash) bool {
	for _, h := range d.Good {
		if h == target {
			return true
		}
	}
	for _, h := range d.Bad {
		if h == target {
			return true
		}
	}
	for _, h := range d.Wonky {
		if h == target {
			return true
		}
	}
	return false
}

func clearAssignment(ro state.Availability, target jamtypes.Hash) {
	for core, a := range ro {
		if a != nil && a.Report.PackageSpec.Hash == target {
			ro[core] = nil
		}
	}
}
