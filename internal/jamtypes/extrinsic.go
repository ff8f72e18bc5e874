package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// Signature64 is a 64-byte Ed25519 signature.
type Signature64 [64]byte

func (s Signature64) EncodeJAM(e *codec.Encoder) { e.PutFixed(s[:], 64) }
func (s *Signature64) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(64)
	if err != nil {
		return err
	}
	copy(s[:], b)
	return nil
}

// TicketEnvelope is a submitted safrole ticket: a ring-VRF proof of
// knowledge for one of the two allowed attempt indices (spec.md §4.5).
type TicketEnvelope struct {
	Attempt   uint8
	Signature RingVRFProof
}

func (t TicketEnvelope) EncodeJAM(e *codec.Encoder) {
	e.PutUint8(t.Attempt)
	t.Signature.EncodeJAM(e)
}

func (t *TicketEnvelope) DecodeJAM(d *codec.Decoder) error {
	v, err := d.GetUint8()
	if err != nil {
		return err
	}
	t.Attempt = v
	return t.Signature.DecodeJAM(d)
}

// Preimage is a service-requested blob submitted for lookup (spec.md
// §4.9).
type Preimage struct {
	Requester ServiceID
	Blob      []byte
}

func (p Preimage) EncodeJAM(e *codec.Encoder) {
	e.PutUint32(uint32(p.Requester))
	e.PutSequenceLen(len(p.Blob))
	e.PutRaw(p.Blob)
}

func (p *Preimage) DecodeJAM(d *codec.Decoder) error {
	req, err := d.GetUint32()
	if err != nil {
		return err
	}
	p.Requester = ServiceID(req)
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	blob, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	p.Blob = blob
	return nil
}

// ValidatorSignature pairs a validator index with its Ed25519
// signature over a guarantee or assurance (spec.md §4.6/§4.8).
type ValidatorSignature struct {
	ValidatorIndex ValidatorIndex
	Signature      Signature64
}

func (s ValidatorSignature) EncodeJAM(e *codec.Encoder) {
	e.PutUint16(uint16(s.ValidatorIndex))
	s.Signature.EncodeJAM(e)
}

func (s *ValidatorSignature) DecodeJAM(d *codec.Decoder) error {
	v, err := d.GetUint16()
	if err != nil {
		return err
	}
	s.ValidatorIndex = ValidatorIndex(v)
	return s.Signature.DecodeJAM(d)
}

// ReportGuarantee carries a refined WorkReport plus the guarantor
// signatures attesting to it (spec.md §4.6).
type ReportGuarantee struct {
	Report     WorkReport
	Slot       TimeSlot
	Signatures []ValidatorSignature
}

func (g ReportGuarantee) EncodeJAM(e *codec.Encoder) {
	g.Report.EncodeJAM(e)
	e.PutUint32(uint32(g.Slot))
	e.PutSequenceLen(len(g.Signatures))
	for _, s := range g.Signatures {
		s.EncodeJAM(e)
	}
}

func (g *ReportGuarantee) DecodeJAM(d *codec.Decoder) error {
	if err := g.Report.DecodeJAM(d); err != nil {
		return err
	}
	slot, err := d.GetUint32()
	if err != nil {
		return err
	}
	g.Slot = TimeSlot(slot)
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	g.Signatures = make([]ValidatorSignature, n)
	for i := range g.Signatures {
		if err := g.Signatures[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}

// Assurance is one validator's bitfield attestation that it holds its
// erasure-coded chunk of each pending core's bundle (spec.md §4.8).
type Assurance struct {
	Anchor         Hash
	ValidatorIndex ValidatorIndex
	Bitfield       []byte
	Signature      Signature64
}

func (a Assurance) EncodeJAM(e *codec.Encoder) {
	a.Anchor.EncodeJAM(e)
	e.PutUint16(uint16(a.ValidatorIndex))
	e.PutRaw(a.Bitfield)
	a.Signature.EncodeJAM(e)
}

// DecodeAssurance decodes an Assurance whose Bitfield is a fixed
// ceilBytes(core_count)-wide bit vector (spec.md §4.8); the width is a
// runtime parameter so it is not self-describing on the wire.
func DecodeAssurance(d *codec.Decoder, bitfieldBytes int) (*Assurance, error) {
	a := &Assurance{}
	if err := a.Anchor.DecodeJAM(d); err != nil {
		return nil, err
	}
	v, err := d.GetUint16()
	if err != nil {
		return nil, err
	}
	a.ValidatorIndex = ValidatorIndex(v)
	bits, err := d.GetFixed(bitfieldBytes)
	if err != nil {
		return nil, err
	}
	a.Bitfield = bits
	if err := a.Signature.DecodeJAM(d); err != nil {
		return nil, err
	}
	return a, nil
}

// JudgementSignature is one validator's vote on a disputed report
// (spec.md §4.10).
type JudgementSignature struct {
	Vote           bool
	ValidatorIndex ValidatorIndex
	Signature      Signature64
}

func (j JudgementSignature) EncodeJAM(e *codec.Encoder) {
	e.PutBool(j.Vote)
	e.PutUint16(uint16(j.ValidatorIndex))
	j.Signature.EncodeJAM(e)
}

func (j *JudgementSignature) DecodeJAM(d *codec.Decoder) error {
	vote, err := d.GetBool()
	if err != nil {
		return err
	}
	j.Vote = vote
	idx, err := d.GetUint16()
	if err != nil {
		return err
	}
	j.ValidatorIndex = ValidatorIndex(idx)
	return j.Signature.DecodeJAM(d)
}

// Verdict is the outcome of putting a disputed report to a vote: the
// disputed report's hash, the epoch its votes were cast under, and
// every collected vote (spec.md §4.10).
type Verdict struct {
	Target Hash
	Age    Epoch
	Votes  []JudgementSignature
}

func (v Verdict) EncodeJAM(e *codec.Encoder) {
	v.Target.EncodeJAM(e)
	e.PutUint32(uint32(v.Age))
	e.PutSequenceLen(len(v.Votes))
	for _, vote := range v.Votes {
		vote.EncodeJAM(e)
	}
}

func (v *Verdict) DecodeJAM(d *codec.Decoder) error {
	if err := v.Target.DecodeJAM(d); err != nil {
		return err
	}
	age, err := d.GetUint32()
	if err != nil {
		return err
	}
	v.Age = Epoch(age)
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	v.Votes = make([]JudgementSignature, n)
	for i := range v.Votes {
		if err := v.Votes[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}

// Culprit names a validator who guaranteed a report that was later
// found invalid (spec.md §4.10).
type Culprit struct {
	Target    Hash
	Offender  Ed25519Key
	Signature Signature64
}

func (c Culprit) EncodeJAM(e *codec.Encoder) {
	c.Target.EncodeJAM(e)
	c.Offender.EncodeJAM(e)
	c.Signature.EncodeJAM(e)
}

func (c *Culprit) DecodeJAM(d *codec.Decoder) error {
	if err := c.Target.DecodeJAM(d); err != nil {
		return err
	}
	if err := c.Offender.DecodeJAM(d); err != nil {
		return err
	}
	return c.Signature.DecodeJAM(d)
}

// Fault names a validator whose vote on a verdict was later shown to
// be wrong (spec.md §4.10).
type Fault struct {
	Target    Hash
	Vote      bool
	Offender  Ed25519Key
	Signature Signature64
}

func (f Fault) EncodeJAM(e *codec.Encoder) {
	f.Target.EncodeJAM(e)
	e.PutBool(f.Vote)
	f.Offender.EncodeJAM(e)
	f.Signature.EncodeJAM(e)
}

func (f *Fault) DecodeJAM(d *codec.Decoder) error {
	if err := f.Target.DecodeJAM(d); err != nil {
		return err
	}
	vote, err := d.GetBool()
	if err != nil {
		return err
	}
	f.Vote = vote
	if err := f.Offender.DecodeJAM(d); err != nil {
		return err
	}
	return f.Signature.DecodeJAM(d)
}

// DisputesExtrinsic bundles the verdicts, culprits and faults newly
// reported in a block (spec.md §4.10).
type DisputesExtrinsic struct {
	Verdicts []Verdict
	Culprits []Culprit
	Faults   []Fault
}

func (x DisputesExtrinsic) EncodeJAM(e *codec.Encoder) {
	e.PutSequenceLen(len(x.Verdicts))
	for _, v := range x.Verdicts {
		v.EncodeJAM(e)
	}
	e.PutSequenceLen(len(x.Culprits))
	for _, c := range x.Culprits {
		c.EncodeJAM(e)
	}
	e.PutSequenceLen(len(x.Faults))
	for _, f := range x.Faults {
		f.EncodeJAM(e)
	}
}

func (x *DisputesExtrinsic) DecodeJAM(d *codec.Decoder) error {
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	x.Verdicts = make([]Verdict, n)
	for i := range x.Verdicts {
		if err := x.Verdicts[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	n, err = d.GetSequenceLen()
	if err != nil {
		return err
	}
	x.Culprits = make([]Culprit, n)
	for i := range x.Culprits {
		if err := x.Culprits[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	n, err = d.GetSequenceLen()
	if err != nil {
		return err
	}
	x.Faults = make([]Fault, n)
	for i := range x.Faults {
		if err := x.Faults[i].DecodeJAM(d); err != nil {
			return err
		}
	}
	return nil
}

// Extrinsic is a block's full set of auxiliary data: tickets,
// preimages, guarantees, assurances and disputes (spec.md §4).
type Extrinsic struct {
	Tickets    []TicketEnvelope
	Preimages  []Preimage
	Guarantees []ReportGuarantee
	Assurances []Assurance
	Disputes   DisputesExtrinsic
}

func (x Extrinsic) EncodeJAM(e *codec.Encoder) {
	e.PutSequenceLen(len(x.Tickets))
	for _, t := range x.Tickets {
		t.EncodeJAM(e)
	}
	e.PutSequenceLen(len(x.Preimages))
	for _, p := range x.Preimages {
		p.EncodeJAM(e)
	}
	e.PutSequenceLen(len(x.Guarantees))
	for _, g := range x.Guarantees {
		g.EncodeJAM(e)
	}
	e.PutSequenceLen(len(x.Assurances))
	for _, a := range x.Assurances {
		a.EncodeJAM(e)
	}
	x.Disputes.EncodeJAM(e)
}

// DecodeExtrinsic decodes an Extrinsic. bitfieldBytes is the runtime
// ceilBytes(core_count) width of each Assurance's bitfield.
func DecodeExtrinsic(d *codec.Decoder, bitfieldBytes int) (*Extrinsic, error) {
	x := &Extrinsic{}
	n, err := d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	x.Tickets = make([]TicketEnvelope, n)
	for i := range x.Tickets {
		if err := x.Tickets[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	n, err = d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	x.Preimages = make([]Preimage, n)
	for i := range x.Preimages {
		if err := x.Preimages[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	n, err = d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	x.Guarantees = make([]ReportGuarantee, n)
	for i := range x.Guarantees {
		if err := x.Guarantees[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	n, err = d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	x.Assurances = make([]Assurance, n)
	for i := range x.Assurances {
		a, err := DecodeAssurance(d, bitfieldBytes)
		if err != nil {
			return nil, err
		}
		x.Assurances[i] = *a
	}
	if err := x.Disputes.DecodeJAM(d); err != nil {
		return nil, err
	}
	return x, nil
}
