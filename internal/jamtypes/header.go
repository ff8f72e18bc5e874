package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// RingVRFProof is a variable-width Bandersnatch ring-VRF proof blob
// (spec.md §3 notes the scheme is opaque to the STF beyond its role as
// a verifiable-random seed and author-eligibility witness).
type RingVRFProof []byte

func (p RingVRFProof) EncodeJAM(e *codec.Encoder) {
	e.PutSequenceLen(len(p))
	e.PutRaw(p)
}

func (p *RingVRFProof) DecodeJAM(d *codec.Decoder) error {
	n, err := d.GetSequenceLen()
	if err != nil {
		return err
	}
	b, err := d.GetFixed(int(n))
	if err != nil {
		return err
	}
	*p = b
	return nil
}

// TicketBody is one slot's winning ticket identifier and the ring
// attempt index that produced it (spec.md §4.5, γ.a / the tickets
// accumulator).
type TicketBody struct {
	ID      Hash
	Attempt uint8
}

func (t TicketBody) EncodeJAM(e *codec.Encoder) {
	t.ID.EncodeJAM(e)
	e.PutUint8(t.Attempt)
}

func (t *TicketBody) DecodeJAM(d *codec.Decoder) error {
	if err := t.ID.DecodeJAM(d); err != nil {
		return err
	}
	v, err := d.GetUint8()
	if err != nil {
		return err
	}
	t.Attempt = v
	return nil
}

// EpochMark is published in a header the first time a new epoch is
// entered, fixing the outgoing entropy and the incoming epoch's
// Bandersnatch ring so off-chain watchers can validate subsequent
// seals without replaying safrole state (spec.md §4.5).
type EpochMark struct {
	Entropy        Hash
	TicketsEntropy Hash
	Validators     []BandersnatchKey
}

func (m EpochMark) EncodeJAM(e *codec.Encoder) {
	m.Entropy.EncodeJAM(e)
	m.TicketsEntropy.EncodeJAM(e)
	for _, v := range m.Validators {
		v.EncodeJAM(e)
	}
}

func decodeEpochMark(d *codec.Decoder, validatorsCount int) (*EpochMark, error) {
	m := &EpochMark{Validators: make([]BandersnatchKey, validatorsCount)}
	if err := m.Entropy.DecodeJAM(d); err != nil {
		return nil, err
	}
	if err := m.TicketsEntropy.DecodeJAM(d); err != nil {
		return nil, err
	}
	for i := range m.Validators {
		if err := m.Validators[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Header is a block's unsealed metadata. TicketsMark is present only on
// the header that closes the submission window of an epoch (spec.md
// §4.5); its length is always epochLength when present.
type Header struct {
	ParentHash      Hash
	PriorStateRoot  Hash
	ExtrinsicHash   Hash
	Slot            TimeSlot
	EpochMark       *EpochMark
	TicketsMark     []TicketBody
	OffendersMark   []Ed25519Key
	AuthorIndex     ValidatorIndex
	VRFSignature    RingVRFProof
	Seal            RingVRFProof
}

// Unsigned writes the encoding of h with Seal omitted into e, the message the
// block author's seal signs over (spec.md §4.2).
func (h Header) Unsigned(e *codec.Encoder, epochLength int) {
	h.encode(e, epochLength, false)
}

func (h Header) EncodeJAM(e *codec.Encoder, epochLength int) {
	h.encode(e, epochLength, true)
}

func (h Header) encode(e *codec.Encoder, epochLength int, withSeal bool) {
	h.ParentHash.EncodeJAM(e)
	h.PriorStateRoot.EncodeJAM(e)
	h.ExtrinsicHash.EncodeJAM(e)
	e.PutUint32(uint32(h.Slot))
	e.PutOptional(h.EpochMark != nil, func(e *codec.Encoder) { h.EpochMark.EncodeJAM(e) })
	e.PutOptional(h.TicketsMark != nil, func(e *codec.Encoder) {
		for _, t := range h.TicketsMark {
			t.EncodeJAM(e)
		}
	})
	EncodeEd25519Slice(e, h.OffendersMark)
	e.PutUint16(uint16(h.AuthorIndex))
	h.VRFSignature.EncodeJAM(e)
	if withSeal {
		h.Seal.EncodeJAM(e)
	}
}

func DecodeHeader(d *codec.Decoder, validatorsCount, epochLength int) (*Header, error) {
	h := &Header{}
	if err := h.ParentHash.DecodeJAM(d); err != nil {
		return nil, err
	}
	if err := h.PriorStateRoot.DecodeJAM(d); err != nil {
		return nil, err
	}
	if err := h.ExtrinsicHash.DecodeJAM(d); err != nil {
		return nil, err
	}
	slot, err := d.GetUint32()
	if err != nil {
		return nil, err
	}
	h.Slot = TimeSlot(slot)
	hasEpochMark, err := d.GetOptional(func(d *codec.Decoder) error {
		m, err := decodeEpochMark(d, validatorsCount)
		if err != nil {
			return err
		}
		h.EpochMark = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = hasEpochMark
	hasTickets, err := d.GetOptional(func(d *codec.Decoder) error {
		marks := make([]TicketBody, epochLength)
		for i := range marks {
			if err := marks[i].DecodeJAM(d); err != nil {
				return err
			}
		}
		h.TicketsMark = marks
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = hasTickets
	offenders, err := DecodeEd25519Slice(d)
	if err != nil {
		return nil, err
	}
	h.OffendersMark = offenders
	authorIdx, err := d.GetUint16()
	if err != nil {
		return nil, err
	}
	h.AuthorIndex = ValidatorIndex(authorIdx)
	if err := h.VRFSignature.DecodeJAM(d); err != nil {
		return nil, err
	}
	if err := h.Seal.DecodeJAM(d); err != nil {
		return nil, err
	}
	return h, nil
}

func EncodeEd25519Slice(e *codec.Encoder, ks []Ed25519Key) {
	e.PutSequenceLen(len(ks))
	for _, k := range ks {
		k.EncodeJAM(e)
	}
}

func DecodeEd25519Slice(d *codec.Decoder) ([]Ed25519Key, error) {
	n, err := d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	out := make([]Ed25519Key, n)
	for i := range out {
		if err := out[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}
