// Package jamparams carries the protocol parameters threaded, by pointer,
// into every STF component. There is no package-level default: callers
// pick Tiny() or Full() (or build a custom set for fuzzing) explicitly.
package jamparams

// Params is the immutable configuration every component constructor
// accepts. Nothing in the STF reads a global; everything reads this.
type Params struct {
	ValidatorsCount         uint32
	ValidatorsSuperMajority uint32
	CoreCount               uint32
	EpochLength             uint32
	AvailBitfieldBytes      uint32
	MaxBlocksHistory        uint32
	MaxAuthorizationsPool   uint32
	MaxAuthorizationsQueue  uint32
	MaxWorkItemsPerPackage  uint32
	MaxAuthorizationCodeSize uint32
	MaxTicketsPerExtrinsic  uint32
	MaxTicketEntriesPerValidator uint32
	TicketSubmissionEnd     uint32
	RecentHistorySize       uint32
	WorkReplacementPeriod   uint32

	// BlockGasLimit bounds how many accumulatable reports are executed
	// per block (spec.md §4.7 step 6 / §9 Open Question). The prototype's
	// hard-coded prefix of 20 is replaced by this field.
	BlockGasLimit uint64

	// MaxPreimageBytesPerBlock / MaxPreimagesPerBlock bound the C9
	// preimage extrinsic (spec.md §4.9).
	MaxPreimageBytesPerBlock uint64
	MaxPreimagesPerBlock     uint32
}

// Full returns the mainnet-scale protocol parameter set.
func Full() *Params {
	return &Params{
		ValidatorsCount:              1023,
		ValidatorsSuperMajority:      683, // ⅔·1023+1, rounded per protocol convention
		CoreCount:                    341,
		EpochLength:                  600,
		AvailBitfieldBytes:           ceilBytes(341),
		MaxBlocksHistory:             8,
		MaxAuthorizationsPool:        8,
		MaxAuthorizationsQueue:       80,
		MaxWorkItemsPerPackage:       16,
		MaxAuthorizationCodeSize:     64_000,
		MaxTicketsPerExtrinsic:       16,
		MaxTicketEntriesPerValidator: 2,
		TicketSubmissionEnd:          500,
		RecentHistorySize:            8,
		WorkReplacementPeriod:        5,
		BlockGasLimit:                3_500_000_000,
		MaxPreimageBytesPerBlock:     4_000_000,
		MaxPreimagesPerBlock:         128,
	}
}

// Tiny returns the reduced parameter set used to check implementations
// against published tiny test vectors.
func Tiny() *Params {
	return &Params{
		ValidatorsCount:              6,
		ValidatorsSuperMajority:      5, // ⅔·6+1
		CoreCount:                    2,
		EpochLength:                  12,
		AvailBitfieldBytes:           ceilBytes(2),
		MaxBlocksHistory:             8,
		MaxAuthorizationsPool:        8,
		MaxAuthorizationsQueue:       80,
		MaxWorkItemsPerPackage:       4,
		MaxAuthorizationCodeSize:     64_000,
		MaxTicketsPerExtrinsic:       3,
		MaxTicketEntriesPerValidator: 2,
		TicketSubmissionEnd:          10,
		RecentHistorySize:            8,
		WorkReplacementPeriod:        5,
		BlockGasLimit:                10_000_000,
		MaxPreimageBytesPerBlock:     48_000,
		MaxPreimagesPerBlock:         16,
	}
}

func ceilBytes(bits uint32) uint32 {
	return (bits + 7) / 8
}

// Quorum returns the number of signatures/assurances required for a
// supermajority decision: ⅔|κ|+1.
func (p *Params) Quorum() uint32 {
	return (2*p.ValidatorsCount)/3 + 1
}
