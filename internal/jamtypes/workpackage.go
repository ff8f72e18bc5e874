package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// Authorizer names the code a work-package's authorisation blob is
// checked against, plus the configuration bytes that code runs with
// (spec.md §3, "is-authorized" service logic).
type Authorizer struct {
	CodeHash Hash
	Params   []byte
}

func (a Authorizer) EncodeJAM(e *codec.Encoder) {
	a.CodeHash.EncodeJAM(e)
	e.PutSequenceLen(len(a.Params))
	e.PutRaw(a.Params)
}

func (a *Authorizer) DecodeJAM(d *codec.Decoder) error {
	if err := a.CodeHash.DecodeJAM(d); err != nil {
		return err
	}
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	b, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	a.Params = b
	return nil
}

// RefineContext anchors a work-package's refinement to a specific
// ancestor state so guarantors can validate against stable history
// (spec.md §3).
type RefineContext struct {
	Anchor           Hash
	AnchorStateRoot  Hash
	BeefyRoot        Hash
	LookupAnchor     Hash
	LookupAnchorSlot TimeSlot
	Prerequisites    []Hash
}

func (c RefineContext) EncodeJAM(e *codec.Encoder) {
	c.Anchor.EncodeJAM(e)
	c.AnchorStateRoot.EncodeJAM(e)
	c.BeefyRoot.EncodeJAM(e)
	c.LookupAnchor.EncodeJAM(e)
	e.PutUint32(uint32(c.LookupAnchorSlot))
	EncodeHashSlice(e, c.Prerequisites)
}

func (c *RefineContext) DecodeJAM(d *codec.Decoder) error {
	if err := c.Anchor.DecodeJAM(d); err != nil {
		return err
	}
	if err := c.AnchorStateRoot.DecodeJAM(d); err != nil {
		return err
	}
	if err := c.BeefyRoot.DecodeJAM(d); err != nil {
		return err
	}
	if err := c.LookupAnchor.DecodeJAM(d); err != nil {
		return err
	}
	slot, err := d.GetUint32()
	if err != nil {
		return err
	}
	c.LookupAnchorSlot = TimeSlot(slot)
	prereqs, err := DecodeHashSlice(d)
	if err != nil {
		return err
	}
	c.Prerequisites = prereqs
	return nil
}

// SegmentLookup names an imported data segment by the work-package that
// exported it and its index within that export (spec.md §3).
type SegmentLookup struct {
	WorkPackageHash Hash
	Index           uint16
}

func (s SegmentLookup) EncodeJAM(e *codec.Encoder) {
	s.WorkPackageHash.EncodeJAM(e)
	e.PutUint16(s.Index)
}

func (s *SegmentLookup) DecodeJAM(d *codec.Decoder) error {
	if err := s.WorkPackageHash.DecodeJAM(d); err != nil {
		return err
	}
	v, err := d.GetUint16()
	if err != nil {
		return err
	}
	s.Index = v
	return nil
}

// ExtrinsicLookup names a blob a work-item's refinement reads by hash
// and declares its expected length, so the guarantor can fetch and
// verify it before refinement (spec.md §3).
type ExtrinsicLookup struct {
	Hash   Hash
	Length uint32
}

func (x ExtrinsicLookup) EncodeJAM(e *codec.Encoder) {
	x.Hash.EncodeJAM(e)
	e.PutUint32(x.Length)
}

func (x *ExtrinsicLookup) DecodeJAM(d *codec.Decoder) error {
	if err := x.Hash.DecodeJAM(d); err != nil {
		return err
	}
	v, err := d.GetUint32()
	if err != nil {
		return err
	}
	x.Length = v
	return nil
}

// WorkItem is one unit of refinement within a work-package (spec.md §3).
type WorkItem struct {
	Service             ServiceID
	CodeHash             Hash
	Payload              []byte
	RefineGasLimit       Gas
	AccumulateGasLimit   Gas
	ExportCount          uint16
	ImportSegments       []SegmentLookup
	ExtrinsicReferences  []ExtrinsicLookup
}

func (w WorkItem) EncodeJAM(e *codec.Encoder) {
	e.PutUint32(uint32(w.Service))
	w.CodeHash.EncodeJAM(e)
	e.PutSequenceLen(len(w.Payload))
	e.PutRaw(w.Payload)
	e.PutVarint(w.RefineGasLimit)
	e.PutVarint(w.AccumulateGasLimit)
	e.PutUint16(w.ExportCount)
	e.PutSequenceLen(len(w.ImportSegments))
	for _, s := range w.ImportSegments {
		s.EncodeJAM(e)
	}
	e.PutSequenceLen(len(w.ExtrinsicReferences))
	for _, x := range w.ExtrinsicReferences {
		x.EncodeJAM(e)
	}
}

func (w *WorkItem) DecodeJAM(d *codec.Decoder) error {
	service, err := d.GetUint32()
	if err != nil {
		return err
	}
	w.Service = ServiceID(service)
	if err := w.CodeHash.DecodeJAM(d); err != nil {
		return err
	}
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	payload, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	w.Payload = payload
	if w.RefineGasLimit, err = d.GetVarint(); err != nil {
		return err
	}
	if w.AccumulateGasLimit, err = d.GetVarint(); err != nil {
		return err
	}
	exportCount, err := d.GetUint16()
	if err != nil {
		return err
	}
	w.ExportCount = exportCount
	nImports, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	w.ImportSegments = make([]SegmentLookup, nImports)
	for i := range w.ImportSegments {
		if err := w.ImportSegments[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	nExts, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	w.ExtrinsicReferences = make([]ExtrinsicLookup, nExts)
	for i := range w.ExtrinsicReferences {
		if err := w.ExtrinsicReferences[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}

// WorkPackage is the unit of work a guarantor refines and reports on
// (spec.md §3).
type WorkPackage struct {
	AuthorizationBlob []byte
	AuthCodeHost      ServiceID
	Authorizer        Authorizer
	Context           RefineContext
	Items             []WorkItem
}

func (p WorkPackage) EncodeJAM(e *codec.Encoder) {
	e.PutSequenceLen(len(p.AuthorizationBlob))
	e.PutRaw(p.AuthorizationBlob)
	e.PutUint32(uint32(p.AuthCodeHost))
	p.Authorizer.EncodeJAM(e)
	p.Context.EncodeJAM(e)
	e.PutSequenceLen(len(p.Items))
	for _, it := range p.Items {
		it.EncodeJAM(e)
	}
}

func (p *WorkPackage) DecodeJAM(d *codec.Decoder) error {
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	blob, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	p.AuthorizationBlob = blob
	host, err := d.GetUint32()
	if err != nil {
		return err
	}
	p.AuthCodeHost = ServiceID(host)
	if err := p.Authorizer.DecodeJAM(d); err != nil {
		return err
	}
	if err := p.Context.DecodeJAM(d); err != nil {
		return err
	}
	nItems, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	p.Items = make([]WorkItem, nItems)
	for i := range p.Items {
		if err := p.Items[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}
