package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy of spec.md §4.1/§7. Decoder callers
// should match with errors.Is; DecodeError wraps whichever of these
// applies plus diagnostic path/offset context.
var (
	ErrUnexpectedEndOfStream  = errors.New("codec: unexpected end of stream")
	ErrInvalidEnumTag         = errors.New("codec: invalid enum tag value")
	ErrInvalidUnionTag        = errors.New("codec: invalid union tag")
	ErrInvalidBool            = errors.New("codec: invalid boolean byte")
	ErrInvalidOptional        = errors.New("codec: invalid optional presence byte")
	ErrSliceLengthMismatch    = errors.New("codec: invalid slice length mismatch")
	ErrVarintPrefixOutOfRange = errors.New("codec: varint prefix byte out of range")
	ErrNonCanonicalVarint     = errors.New("codec: non-canonical varint encoding")
)

// DecodeError wraps a taxonomy error with the diagnostic context needed
// to pinpoint a decode failure in a post-mortem (spec.md §7): the field
// path walked to reach the failure and the byte offset within the
// top-level input.
type DecodeError struct {
	Path   string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: at %s (offset %d): %v", e.Path, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// wrap attaches the decoder's current path/offset to err, unless err is
// already a *DecodeError (wrapping happens once, at the point of
// detection, per spec.md §7 propagation policy).
func wrap(d *Decoder, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Path: d.ctx.String(), Offset: d.off, Err: err}
}
