// Package jamtypes defines the protocol's primitive aliases and core
// entities (spec.md §3) together with their wire encoding via
// internal/codec. Every type here is a plain value; none owns a
// capability or a Params pointer — those are supplied by the caller at
// the point an operation (encode/decode/hash) needs them.
package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// TimeSlot is the protocol's time quantum (spec.md glossary).
type TimeSlot uint32

// Epoch identifies an epoch_length-slot window.
type Epoch uint32

// ServiceID addresses a service account.
type ServiceID uint32

// CoreIndex addresses one of core_count execution lanes.
type CoreIndex uint16

// ValidatorIndex addresses one of validators_count validator slots.
type ValidatorIndex uint16

// Gas is the protocol's execution budget unit.
type Gas = uint64

// Balance is the protocol's token-amount unit.
type Balance = uint64

// Hash is an opaque 32-byte digest (Blake2b-256 or Keccak-256 output,
// or a content hash of equivalent width).
type Hash [32]byte

// Ed25519Key is an Ed25519 public key.
type Ed25519Key [32]byte

// BandersnatchKey is a Bandersnatch public key (ring-VRF ring member).
type BandersnatchKey [32]byte

// BLSKey is a BLS12-381 public key, as carried in validator metadata.
type BLSKey [144]byte

// ValidatorMetadata is an opaque, fixed-width metadata blob attached to
// a validator key set (spec.md §3, "metadata").
type ValidatorMetadata [128]byte

func (h Hash) EncodeJAM(e *codec.Encoder)       { e.PutFixed(h[:], 32) }
func (h *Hash) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(32)
	if err != nil {
		return err
	}
	copy(h[:], b)
	return nil
}

func (k Ed25519Key) EncodeJAM(e *codec.Encoder) { e.PutFixed(k[:], 32) }
func (k *Ed25519Key) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(32)
	if err != nil {
		return err
	}
	copy(k[:], b)
	return nil
}

func (k BandersnatchKey) EncodeJAM(e *codec.Encoder) { e.PutFixed(k[:], 32) }
func (k *BandersnatchKey) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(32)
	if err != nil {
		return err
	}
	copy(k[:], b)
	return nil
}

func (k BLSKey) EncodeJAM(e *codec.Encoder) { e.PutFixed(k[:], 144) }
func (k *BLSKey) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(144)
	if err != nil {
		return err
	}
	copy(k[:], b)
	return nil
}

func (m ValidatorMetadata) EncodeJAM(e *codec.Encoder) { e.PutFixed(m[:], 128) }
func (m *ValidatorMetadata) DecodeJAM(d *codec.Decoder) error {
	b, err := d.GetFixed(128)
	if err != nil {
		return err
	}
	copy(m[:], b)
	return nil
}

// EncodeHashSlice/DecodeHashSlice implement the common length-prefixed
// sequence of Hash values (offenders marks, prerequisites, ξ buckets).
func EncodeHashSlice(e *codec.Encoder, hs []Hash) {
	e.PutSequenceLen(len(hs))
	for _, h := range hs {
		h.EncodeJAM(e)
	}
}

func DecodeHashSlice(d *codec.Decoder) ([]Hash, error) {
	n, err := d.GetSequenceLen()
	if err != nil {
		return nil, err
	}
	out := make([]Hash, n)
	for i := range out {
		if err := out[i].DecodeJAM(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}
