package jamcrypto

import (
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// blstAggregator implements BLSAggregator over BLS12-381 G1 points.
// No STF operation gates a protocol decision on BLS signature
// verification — see DESIGN.md — and nothing in the module constructs
// one through NewBLSAggregator or calls ValidatePublicKey or Aggregate.
type blstAggregator struct{}

// NewBLSAggregator returns the standard blst-backed BLSAggregator.
func NewBLSAggregator() BLSAggregator { return blstAggregator{} }

func (blstAggregator) ValidatePublicKey(pub []byte) error {
	p := new(blst.P1Affine).Deserialize(pub)
	if p == nil {
		return fmt.Errorf("jamcrypto: invalid bls public key encoding")
	}
	if !p.KeyValidate() {
		return fmt.Errorf("jamcrypto: bls public key fails subgroup/identity check")
	}
	return nil
}

func (a blstAggregator) Aggregate(pubs [][]byte) ([]byte, error) {
	if len(pubs) == 0 {
		return nil, fmt.Errorf("jamcrypto: cannot aggregate zero bls public keys")
	}
	points := make([]*blst.P1Affine, 0, len(pubs))
	for _, pub := range pubs {
		if err := a.ValidatePublicKey(pub); err != nil {
			return nil, err
		}
		points = append(points, new(blst.P1Affine).Deserialize(pub))
	}
	var agg blst.P1Aggregate
	if !agg.Aggregate(points, false) {
		return nil, fmt.Errorf("jamcrypto: bls aggregation failed")
	}
	result := agg.ToAffine()
	return result.Serialize(), nil
}
