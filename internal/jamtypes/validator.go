package jamtypes

import "github.com/jamstate/jamnode/internal/codec"

// ValidatorKey bundles the four key material fields the protocol
// carries per validator slot (spec.md §3, κ/λ/ι components).
type ValidatorKey struct {
	Bandersnatch BandersnatchKey
	Ed25519      Ed25519Key
	BLS          BLSKey
	Metadata     ValidatorMetadata
}

func (k ValidatorKey) EncodeJAM(e *codec.Encoder) {
	k.Bandersnatch.EncodeJAM(e)
	k.Ed25519.EncodeJAM(e)
	k.BLS.EncodeJAM(e)
	k.Metadata.EncodeJAM(e)
}

func (k *ValidatorKey) DecodeJAM(d *codec.Decoder) error {
	d.Push("bandersnatch")
	if err := k.Bandersnatch.DecodeJAM(d); err != nil {
		return err
	}
	d.Pop()
	d.Push("ed25519")
	if err := k.Ed25519.DecodeJAM(d); err != nil {
		return err
	}
	d.Pop()
	d.Push("bls")
	if err := k.BLS.DecodeJAM(d); err != nil {
		return err
	}
	d.Pop()
	d.Push("metadata")
	if err := k.Metadata.DecodeJAM(d); err != nil {
		return err
	}
	d.Pop()
	return nil
}

// EncodeValidatorSet/DecodeValidatorSet encode a fixed-length validators_count
// sequence of ValidatorKey (κ, λ, γ.k, ι are all shaped this way).
func EncodeValidatorSet(e *codec.Encoder, set []ValidatorKey) {
	for _, k := range set {
		k.EncodeJAM(e)
	}
}

func DecodeValidatorSet(d *codec.Decoder, count int) ([]ValidatorKey, error) {
	out := make([]ValidatorKey, count)
	for i := range out {
		d.Push("validator")
		if err := out[i].DecodeJAM(d); err != nil {
			return nil, err
		}
		d.Pop()
	}
	return out, nil
}
