package merkle

import "github.com/google/go-cmp/cmp"

// Diff is the set-difference between two Merklisation dictionaries
// (spec.md §4.4): entries only in b (Added), only in a (Removed), and
// present in both with a different value (Changed).
type Diff struct {
	Added   []Entry
	Removed []Entry
	Changed []Entry
}

// ComputeDiff set-diffs a against b, used for debugging and
// test-vector comparison (spec.md §4.4).
func ComputeDiff(a, b *Dictionary) Diff {
	var diff Diff
	aEntries := map[string][]byte{}
	for _, e := range a.Entries() {
		aEntries[string(e.Key[:])] = e.Value
	}
	bSeen := map[string]bool{}
	for _, e := range b.Entries() {
		k := string(e.Key[:])
		bSeen[k] = true
		old, ok := aEntries[k]
		if !ok {
			diff.Added = append(diff.Added, e)
			continue
		}
		if !cmp.Equal(old, e.Value) {
			diff.Changed = append(diff.Changed, e)
		}
	}
	for _, e := range a.Entries() {
		if !bSeen[string(e.Key[:])] {
			diff.Removed = append(diff.Removed, e)
		}
	}
	return diff
}
