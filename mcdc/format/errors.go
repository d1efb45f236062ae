package format

import "errors"

var (
	ErrPrematureEOF      = errors.New("bitstream: premature EOF")
	ErrBadMagic          = errors.New("decode: bad magic")
	ErrBadVersion        = errors.New("decode: unsupported version")
	ErrBadHeaderBytes    = errors.New("decode: invalid header_bytes")
	ErrTruncatedHeader   = errors.New("decode: truncated header")
	ErrTruncatedPayload  = errors.New("decode: buffer smaller than declared payload_bytes")
	ErrInvalidBlockSize  = errors.New("decode: block_size must be 8 or 16")
	ErrInvalidChannels   = errors.New("decode: channels must be 1")
	ErrInvalidBitsStored = errors.New("decode: bits_stored out of range")
	ErrInvalidBitsAlloc  = errors.New("decode: bits_allocated must be 8 or 16")
	ErrInvalidQuality    = errors.New("decode: quality out of range")
)
