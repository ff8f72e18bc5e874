package merkle

import (
	"hash"
	"sort"

	gomerkle "github.com/xsleonard/go-merkle"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/jamstate/jamnode/internal/jamtypes"
)

func newBlake2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("merkle: blake2b.New256 failed: " + err.Error())
	}
	return h
}

func newKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// StateRoot reduces d's entries (encoded as key‖value blocks) through a
// well-balanced binary Blake2b-256 Merkle tree (spec.md §4.4/§6). The
// empty dictionary has a defined zero root.
func StateRoot(d *Dictionary) jamtypes.Hash {
	entries := d.Entries()
	if len(entries) == 0 {
		return jamtypes.Hash{}
	}
	blocks := make([][]byte, len(entries))
	for i, e := range entries {
		blocks[i] = append(append([]byte(nil), e.Key[:]...), e.Value...)
	}
	return reduce(blocks, newBlake2b256)
}

// AccumulateRootEntry is one successfully-accumulated service
// execution's contribution to the accumulate root (spec.md §4.7 step 9).
type AccumulateRootEntry struct {
	Service jamtypes.ServiceID
	Output  jamtypes.Hash
}

// AccumulateRoot reduces entries — sorted by service id ascending,
// each serialised as E₄(service_id)‖output_hash (36 bytes) — through a
// well-balanced binary Keccak-256 Merkle tree. Empty input yields the
// zero root.
func AccumulateRoot(entries []AccumulateRootEntry) jamtypes.Hash {
	if len(entries) == 0 {
		return jamtypes.Hash{}
	}
	sorted := append([]AccumulateRootEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Service < sorted[j].Service })
	blocks := make([][]byte, len(sorted))
	for i, e := range sorted {
		buf := make([]byte, 0, 36)
		buf = append(buf, byte(e.Service), byte(e.Service>>8), byte(e.Service>>16), byte(e.Service>>24))
		buf = append(buf, e.Output[:]...)
		blocks[i] = buf
	}
	return reduce(blocks, newKeccak256)
}

func reduce(blocks [][]byte, hashFunc func() hash.Hash) jamtypes.Hash {
	tree := gomerkle.NewTree()
	if err := tree.Generate(blocks, hashFunc()); err != nil {
		panic("merkle: tree generation failed: " + err.Error())
	}
	root := tree.Root()
	var out jamtypes.Hash
	copy(out[:], root.Hash)
	return out
}
