// Package errs defines the sentinel errors shared across the dvdbnd packages.
//
// All errors are plain sentinels so callers can match them with errors.Is
// even after they have been wrapped with additional context.
package errs

import "errors"

// Archive mount and entry lookup errors.
var (
	// ErrNotFound is returned when a name has no entry in any mounted archive.
	ErrNotFound = errors.New("entry not found")

	// ErrCorruptEntry is returned when a table-of-contents entry declares an
	// encrypted range outside its padded region, a range that is not aligned
	// to the AES block size, or another structural impossibility.
	ErrCorruptEntry = errors.New("corrupt entry header")

	// ErrKeyNotFound is returned when the key for an archive could not be
	// located by the configured KeyProvider.
	ErrKeyNotFound = errors.New("archive key not found")

	// ErrInvalidKey is returned when key material exists but cannot be parsed
	// into an RSA public key.
	ErrInvalidKey = errors.New("invalid archive key")
)

// Header codec errors.
var (
	// ErrInvalidMagic is returned when a header does not start with the
	// expected magic bytes after decryption.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrTruncatedHeader is returned when a header ends before a complete
	// structure could be read.
	ErrTruncatedHeader = errors.New("truncated header")
)

// Container codec and decoder errors.
var (
	// ErrBadContainer is returned when a compression container header is
	// structurally malformed.
	ErrBadContainer = errors.New("malformed compression container")

	// ErrUnknownAlgorithm is returned when a container names a compression
	// algorithm no decoder back-end is registered for.
	ErrUnknownAlgorithm = errors.New("unknown compression algorithm")

	// ErrDecode is returned when a decoder back-end fails mid-stream. The
	// byte count reported alongside it covers only the bytes produced before
	// the failure.
	ErrDecode = errors.New("decode failed")
)
