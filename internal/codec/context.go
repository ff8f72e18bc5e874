package codec

import "strings"

// pathContext tracks the field/index/variant path the decoder has
// walked, for diagnostics only. Materialising it to a string is
// deferred to Error() — building it eagerly on every Push/Pop would put
// string allocation in the hot decode path, which spec.md §4.1
// explicitly forbids.
type pathContext struct {
	segments []string
}

func (c *pathContext) push(segment string) {
	c.segments = append(c.segments, segment)
}

func (c *pathContext) pop() {
	if len(c.segments) > 0 {
		c.segments = c.segments[:len(c.segments)-1]
	}
}

func (c *pathContext) String() string {
	if len(c.segments) == 0 {
		return "<root>"
	}
	return strings.Join(c.segments, ".")
}
