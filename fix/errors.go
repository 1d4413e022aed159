package fix

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by the codec core. Callers should match
// against these with errors.Is; the wrapped message carries the offending
// tag or record for diagnostics.
var (
	// ErrMalformedRecord is returned when a record contains no '=' separator.
	ErrMalformedRecord = errors.New("fix: malformed record")
	// ErrMalformedTag is returned when a tag is not a positive integer in [1, 65535].
	ErrMalformedTag = errors.New("fix: malformed tag")
	// ErrMalformedCount is returned when a count-tag's value is not a non-negative integer.
	ErrMalformedCount = errors.New("fix: malformed group count")
	// ErrMissingMsgType is returned when the input has no tag 35 (MsgType).
	ErrMissingMsgType = errors.New("fix: missing MsgType (tag 35)")
	// ErrMaxNestingDepth guards against pathological input opening more
	// groups than any real registry binding ever nests. It is not one of
	// the core's spec error kinds; at the default depth bound no shipped
	// registry entry can trigger it, but a caller-supplied lower bound
	// (ParseWithDepth/ParseDelimitedWithDepth) can.
	ErrMaxNestingDepth = errors.New("fix: exceeded maximum group nesting depth")
)

func malformedRecord(record string) error {
	return fmt.Errorf("%w: %q", ErrMalformedRecord, record)
}

func malformedTag(raw string) error {
	return fmt.Errorf("%w: %q", ErrMalformedTag, raw)
}

func malformedCount(tag Tag, raw string) error {
	return fmt.Errorf("%w: tag %d value %q", ErrMalformedCount, tag, raw)
}

func maxNestingDepth(depth int) error {
	return fmt.Errorf("%w: depth %d", ErrMaxNestingDepth, depth)
}
