// Package format defines the shared constants of the archive and container
// file formats: magic numbers, compression algorithm tags, and block sizes.
package format

// Magic numbers of the supported file formats.
const (
	// MagicBHD5 opens a decrypted archive header.
	MagicBHD5 = "BHD5"

	// MagicDCX is the big-endian magic of a compression container ("DCX\x00").
	MagicDCX uint32 = 0x44435800

	// MagicDCS opens the container size chunk.
	MagicDCS = "DCS\x00"

	// MagicDCP opens the container compression-parameter chunk.
	MagicDCP = "DCP\x00"

	// MagicDCA opens the container additional-data chunk.
	MagicDCA = "DCA\x00"
)

// AESBlockSize is the cipher block size of the per-entry AES-128 encryption.
// Entry sizes are padded to this boundary and encrypted ranges are aligned to it.
const AESBlockSize = 16

// Algorithm identifies the compression algorithm of a container payload.
// The value is the big-endian interpretation of the four-character tag
// stored in the container's parameter chunk.
type Algorithm uint32

const (
	AlgorithmKraken  Algorithm = 0x4b52414b // "KRAK": sliding-window LZ, block-at-a-time decode
	AlgorithmDeflate Algorithm = 0x44464c54 // "DFLT": zlib-wrapped deflate stream
	AlgorithmZstd    Algorithm = 0x5a535444 // "ZSTD": Zstandard stream
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmKraken:
		return "Kraken"
	case AlgorithmDeflate:
		return "Deflate"
	case AlgorithmZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// Tag returns the four-character tag of the algorithm as stored on disk.
func (a Algorithm) Tag() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// AlgorithmFromTag converts a four-character tag read from a container's
// parameter chunk into an Algorithm value.
func AlgorithmFromTag(tag [4]byte) Algorithm {
	return Algorithm(uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8 | uint32(tag[3]))
}
