package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// Block is a sealed header paired with its extrinsic data (spec.md §4).
type Block struct {
	Header    Header
	Extrinsic Extrinsic
}

func (b Block) EncodeJAM(e *codec.Encoder, epochLength int) {
	b.Header.EncodeJAM(e, epochLength)
	b.Extrinsic.EncodeJAM(e)
}

// DecodeBlock decodes a Block. validatorsCount/epochLength size the
// header's fixed-width fields; bitfieldBytes sizes each assurance's
// bitfield (spec.md §4.1 notes these runtime widths are not
// self-describing on the wire).
func DecodeBlock(d *codec.Decoder, validatorsCount, epochLength, bitfieldBytes int) (*Block, error) {
	h, err := DecodeHeader(d, validatorsCount, epochLength)
	if err != nil {
		return nil, err
	}
	x, err := DecodeExtrinsic(d, bitfieldBytes)
	if err != nil {
		return nil, err
	}
	return &Block{Header: *h, Extrinsic: *x}, nil
}
