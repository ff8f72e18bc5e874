package jamtypes

import (
	"fmt"

	"github.com/jamstate/jamnode/internal/codec"
)

// WorkExecKind tags the outcome of refining a single work-item
// (spec.md §3/§4.7). Only Ok carries a payload.
type WorkExecKind uint8

const (
	WorkExecOk WorkExecKind = iota
	WorkExecOutOfGas
	WorkExecPanic
	WorkExecBadExports
	WorkExecBadCode
	WorkExecCodeOversize
)

func (k WorkExecKind) String() string {
	switch k {
	case WorkExecOk:
		return "ok"
	case WorkExecOutOfGas:
		return "out_of_gas"
	case WorkExecPanic:
		return "panic"
	case WorkExecBadExports:
		return "bad_exports"
	case WorkExecBadCode:
		return "bad_code"
	case WorkExecCodeOversize:
		return "code_oversize"
	default:
		return fmt.Sprintf("WorkExecKind(%d)", uint8(k))
	}
}

// WorkExecResult is the tagged union of a work-item's refinement
// outcome: a byte string on success, nothing on any error kind.
type WorkExecResult struct {
	Kind   WorkExecKind
	Output []byte
}

func (r WorkExecResult) EncodeJAM(e *codec.Encoder) {
	e.PutUnionTag(uint64(r.Kind))
	if r.Kind == WorkExecOk {
		e.PutSequenceLen(len(r.Output))
		e.PutRaw(r.Output)
	}
}

func (r *WorkExecResult) DecodeJAM(d *codec.Decoder) error {
	tag, err := d.GetUnionTag()
	if err != nil {
		return err
	}
	if tag > uint64(WorkExecCodeOversize) {
		return fmt.Errorf("jamtypes: invalid work-exec-result tag %d", tag)
	}
	r.Kind = WorkExecKind(tag)
	if r.Kind == WorkExecOk {
		n, err := d.GetSequenceLen()
		if err != nil {
			return err
		}
		out, err := d.GetFixed(int(n))
		if err != nil {
			return err
		}
		r.Output = out
	} else {
		r.Output = nil
	}
	return nil
}

// WorkResult is one work-item's post-refinement accounting: the
// service it targeted, the code and payload it ran against, the gas it
// actually burned in accumulation, and its WorkExecResult (spec.md §3).
type WorkResult struct {
	Service           ServiceID
	CodeHash          Hash
	PayloadHash       Hash
	AccumulateGasUsed Gas
	Result            WorkExecResult
}

func (r WorkResult) EncodeJAM(e *codec.Encoder) {
	e.PutUint32(uint32(r.Service))
	r.CodeHash.EncodeJAM(e)
	r.PayloadHash.EncodeJAM(e)
	e.PutVarint(r.AccumulateGasUsed)
	r.Result.EncodeJAM(e)
}

func (r *WorkResult) DecodeJAM(d *codec.Decoder) error {
	service, err := d.GetUint32()
	if err != nil {
		return err
	}
	r.Service = ServiceID(service)
	if err := r.CodeHash.DecodeJAM(d); err != nil {
		return err
	}
	if err := r.PayloadHash.DecodeJAM(d); err != nil {
		return err
	}
	if r.AccumulateGasUsed, err = d.GetVarint(); err != nil {
		return err
	}
	return r.Result.DecodeJAM(d)
}

// PackageSpec identifies a refined work-package and the shape of its
// erasure-coded availability bundle (spec.md §3).
type PackageSpec struct {
	Hash         Hash
	Length       uint32
	ErasureRoot  Hash
	ExportsRoot  Hash
	ExportsCount uint16
}

func (s PackageSpec) EncodeJAM(e *codec.Encoder) {
	s.Hash.EncodeJAM(e)
	e.PutUint32(s.Length)
	s.ErasureRoot.EncodeJAM(e)
	s.ExportsRoot.EncodeJAM(e)
	e.PutUint16(s.ExportsCount)
}

func (s *PackageSpec) DecodeJAM(d *codec.Decoder) error {
	if err := s.Hash.DecodeJAM(d); err != nil {
		return err
	}
	v, err := d.GetUint32()
	if err != nil {
		return err
	}
	s.Length = v
	if err := s.ErasureRoot.DecodeJAM(d); err != nil {
		return err
	}
	if err := s.ExportsRoot.DecodeJAM(d); err != nil {
		return err
	}
	ec, err := d.GetUint16()
	if err != nil {
		return err
	}
	s.ExportsCount = ec
	return nil
}

// SegmentRootLookup resolves a prerequisite work-package hash to the
// export-segment tree root a guarantor needs to verify imports against
// (spec.md §3).
type SegmentRootLookup struct {
	WorkPackageHash Hash
	SegmentTreeRoot Hash
}

func (s SegmentRootLookup) EncodeJAM(e *codec.Encoder) {
	s.WorkPackageHash.EncodeJAM(e)
	s.SegmentTreeRoot.EncodeJAM(e)
}

func (s *SegmentRootLookup) DecodeJAM(d *codec.Decoder) error {
	if err := s.WorkPackageHash.DecodeJAM(d); err != nil {
		return err
	}
	return s.SegmentTreeRoot.DecodeJAM(d)
}

// WorkReport is a guarantor's attestation that a work-package has been
// refined, ready to enter the availability and accumulation pipelines
// (spec.md §3, §4.6, §4.7).
type WorkReport struct {
	PackageSpec        PackageSpec
	Context            RefineContext
	CoreIndex          CoreIndex
	AuthorizerHash     Hash
	AuthOutput         []byte
	SegmentRootLookups []SegmentRootLookup
	Results            []WorkResult
}

func (r WorkReport) EncodeJAM(e *codec.Encoder) {
	r.PackageSpec.EncodeJAM(e)
	r.Context.EncodeJAM(e)
	e.PutUint16(uint16(r.CoreIndex))
	r.AuthorizerHash.EncodeJAM(e)
	e.PutSequenceLen(len(r.AuthOutput))
	e.PutRaw(r.AuthOutput)
	e.PutSequenceLen(len(r.SegmentRootLookups))
	for _, s := range r.SegmentRootLookups {
		s.EncodeJAM(e)
	}
	e.PutSequenceLen(len(r.Results))
	for _, res := range r.Results {
		res.EncodeJAM(e)
	}
}

func (r *WorkReport) DecodeJAM(d *codec.Decoder) error {
	if err := r.PackageSpec.DecodeJAM(d); err != nil {
		return err
	}
	if err := r.Context.DecodeJAM(d); err != nil {
		return err
	}
	core, err := d.GetUint16()
	if err != nil {
		return err
	}
	r.CoreIndex = CoreIndex(core)
	if err := r.AuthorizerHash.DecodeJAM(d); err != nil {
		return err
	}
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	out, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	r.AuthOutput = out
	nLookups, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	r.SegmentRootLookups = make([]SegmentRootLookup, nLookups)
	for i := range r.SegmentRootLookups {
		if err := r.SegmentRootLookups[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	nResults, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	r.Results = make([]WorkResult, nResults)
	for i := range r.Results {
		if err := r.Results[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}

// WorkReportAndDeps is a node of the accumulation dependency graph
// (spec.md §4.7): a refined report paired with the set of prerequisite
// work-package hashes still unresolved. Dependencies is kept sorted so
// the pair has one canonical encoding.
type WorkReportAndDeps struct {
	Report       WorkReport
	Dependencies []Hash
}

func (w WorkReportAndDeps) EncodeJAM(e *codec.Encoder) {
	w.Report.EncodeJAM(e)
	EncodeHashSlice(e, w.Dependencies)
}

func (w *WorkReportAndDeps) DecodeJAM(d *codec.Decoder) error {
	if err := w.Report.DecodeJAM(d); err != nil {
		return err
	}
	deps, err := DecodeHashSlice(d)
	if err != nil {
		return err
	}
	w.Dependencies = deps
	return nil
}

// Ready reports whether every dependency has been resolved.
func (w WorkReportAndDeps) Ready() bool { return len(w.Dependencies) == 0 }

// WithoutDependency returns a copy of w with hash removed from its
// dependency set, preserving sort order.
func (w WorkReportAndDeps) WithoutDependency(hash Hash) WorkReportAndDeps {
	out := WorkReportAndDeps{Report: w.Report}
	for _, h := range w.Dependencies {
		if h != hash {
			out.Dependencies = append(out.Dependencies, h)
		}
	}
	return out
}
