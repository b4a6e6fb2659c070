package decode

import "errors"

var (
	// ErrSeekUnsupported is returned by Seek on a raw-DSD decoder.
	ErrSeekUnsupported = errors.New("decode: seek unsupported on raw DSD stream")
	// ErrNotOpen is returned when an operation needs an open decoder.
	ErrNotOpen = errors.New("decode: decoder is not open")
	// ErrUnknownContainer is returned when probe cannot identify the URI's container.
	ErrUnknownContainer = errors.New("decode: unrecognized container format")
	// ErrInvalidTimeString is returned by ParseTimeString on unparsable input.
	ErrInvalidTimeString = errors.New("decode: invalid time string")
)
