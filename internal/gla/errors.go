package gla

import "errors"

var (
	// ErrStreamExhausted reports a read or seek past the end of the input.
	ErrStreamExhausted = errors.New("read past end of stream")
	// ErrMalformedOffset reports a header offset or count outside the file.
	ErrMalformedOffset = errors.New("malformed header offset")
	// ErrUnrecognizedFormat reports an ident or version other than 2LGA v6.
	ErrUnrecognizedFormat = errors.New("unrecognized GLA format")
	// ErrIndexOutOfRange reports a (frame, bone) query outside the decoded table.
	ErrIndexOutOfRange = errors.New("frame/bone index out of range")
	// ErrTooLarge reports an input image above the caller's size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
)
