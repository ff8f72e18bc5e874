// Package merkle builds the Merklisation dictionary that flattens
// typed state into a sorted key→value byte dictionary, and computes
// the state root and accumulate root over it (spec.md §4.4/§6).
package merkle

import (
	"github.com/google/btree"

	"github.com/jamstate/jamnode/internal/statekey"
)

// Entry is one row of the Merklisation dictionary: a 31-byte state key
// and its codec-encoded value.
type Entry struct {
	Key   statekey.Key
	Value []byte
}

func lessEntry(a, b Entry) bool {
	for i := 0; i < 31; i++ {
		if a.Key[i] != b.Key[i] {
			return a.Key[i] < b.Key[i]
		}
	}
	return false
}

// Dictionary is the sorted-by-key Merklisation dictionary (spec.md
// §4.4), backed by google/btree for ordered iteration during root
// construction and diffing.
type Dictionary struct {
	tree *btree.BTreeG[Entry]
}

// NewDictionary returns an empty Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{tree: btree.NewG(32, lessEntry)}
}

// Put inserts or replaces the entry for key.
func (d *Dictionary) Put(key statekey.Key, value []byte) {
	d.tree.ReplaceOrInsert(Entry{Key: key, Value: value})
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return d.tree.Len() }

// Entries returns every entry in ascending key order.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, 0, d.tree.Len())
	d.tree.Ascend(func(e Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Get returns the value at key, if present.
func (d *Dictionary) Get(key statekey.Key) ([]byte, bool) {
	e, ok := d.tree.Get(Entry{Key: key})
	if !ok {
		return nil, false
	}
	return e.Value, true
}
