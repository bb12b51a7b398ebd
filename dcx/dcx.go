// Package dcx detects and unwraps the tagged compression container that
// archive payloads are typically stored in.
//
// A container is recognized by its leading "DCX\x00" magic. Parse reads the
// chunked header (sizes, compression parameters, additional data) and
// Decoder selects a streaming back-end by the algorithm tag recorded in the
// parameter chunk: Kraken (sliding-window LZ, block-at-a-time), Deflate
// (zlib stream), or Zstd.
//
// All decoders are single-pass: they implement io.Reader and cannot be
// rewound. The declared uncompressed size is exposed as a preallocation
// hint and is never trusted for correctness.
package dcx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/dvdbnd/endian"
	"github.com/arloliu/dvdbnd/errs"
	"github.com/arloliu/dvdbnd/format"
)

// Container header layout, all fields big-endian.
const (
	headerSize = 24 // magic, version, four chunk offsets
	sizesSize  = 12 // magic, uncompressed size, compressed size
	paramsSize = 32 // magic, algorithm tag, chunk size, settings
	dcaSize    = 8  // magic, chunk size
)

// Dcx is a parsed compression container: the declared sizes, the selected
// algorithm, and a view of the compressed payload.
type Dcx struct {
	version          uint32
	algorithm        format.Algorithm
	uncompressedSize uint32
	compressedSize   uint32
	settings         [20]byte
	compressed       []byte
}

// HasMagic reports whether buf starts with the container magic.
func HasMagic(buf []byte) bool {
	return len(buf) >= 4 && endian.GetBigEndianEngine().Uint32(buf[:4]) == format.MagicDCX
}

// Parse reads the chunked container header from buf. The returned Dcx
// references buf's bytes; buf must stay alive as long as the Dcx and any
// decoder derived from it.
func Parse(buf []byte) (*Dcx, error) {
	be := endian.GetBigEndianEngine()

	if !HasMagic(buf) {
		return nil, fmt.Errorf("container magic: %w", errs.ErrBadContainer)
	}
	if len(buf) < headerSize+sizesSize+paramsSize+dcaSize {
		return nil, fmt.Errorf("container header needs %d bytes, have %d: %w",
			headerSize+sizesSize+paramsSize+dcaSize, len(buf), errs.ErrBadContainer)
	}

	d := &Dcx{version: be.Uint32(buf[4:8])}

	// Size chunk.
	sizes := buf[headerSize:]
	if string(sizes[:4]) != format.MagicDCS {
		return nil, fmt.Errorf("size chunk magic %q: %w", sizes[:4], errs.ErrBadContainer)
	}
	d.uncompressedSize = be.Uint32(sizes[4:8])
	d.compressedSize = be.Uint32(sizes[8:12])

	// Compression parameter chunk.
	params := buf[headerSize+sizesSize:]
	if string(params[:4]) != format.MagicDCP {
		return nil, fmt.Errorf("parameter chunk magic %q: %w", params[:4], errs.ErrBadContainer)
	}
	d.algorithm = format.AlgorithmFromTag([4]byte(params[4:8]))
	copy(d.settings[:], params[12:32])

	// Additional-data chunk; the compressed payload follows it.
	dca := buf[headerSize+sizesSize+paramsSize:]
	if string(dca[:4]) != format.MagicDCA {
		return nil, fmt.Errorf("additional chunk magic %q: %w", dca[:4], errs.ErrBadContainer)
	}
	dcaLen := int(be.Uint32(dca[4:8]))
	if dcaLen < dcaSize || dcaLen > len(dca) {
		return nil, fmt.Errorf("additional chunk size %d: %w", dcaLen, errs.ErrBadContainer)
	}

	payload := dca[dcaLen:]
	if uint64(len(payload)) < uint64(d.compressedSize) {
		return nil, fmt.Errorf("payload holds %d of %d declared bytes: %w",
			len(payload), d.compressedSize, errs.ErrBadContainer)
	}
	d.compressed = payload[:d.compressedSize]

	return d, nil
}

// Algorithm returns the compression algorithm declared by the container.
func (d *Dcx) Algorithm() format.Algorithm {
	return d.algorithm
}

// Version returns the container format version word.
func (d *Dcx) Version() uint32 {
	return d.version
}

// Settings returns the raw parameter bytes of the compression chunk. Their
// interpretation is specific to the algorithm that produced the payload.
func (d *Dcx) Settings() [20]byte {
	return d.settings
}

// HintSize returns the declared uncompressed size. It is a preallocation
// hint only; streams may end short of it.
func (d *Dcx) HintSize() int {
	return int(d.uncompressedSize)
}

// CompressedSize returns the declared size of the compressed payload.
func (d *Dcx) CompressedSize() int {
	return int(d.compressedSize)
}

// Decoder selects the streaming back-end matching the container's
// algorithm tag and returns it primed over the compressed payload.
func (d *Dcx) Decoder() (*Decoder, error) {
	dec := &Decoder{algorithm: d.algorithm, hint: d.HintSize()}

	switch d.algorithm {
	case format.AlgorithmKraken:
		dec.kraken = newKrakenReader(bytes.NewReader(d.compressed))
	case format.AlgorithmDeflate:
		zr, err := newDeflateReader(d.compressed)
		if err != nil {
			return nil, err
		}
		dec.deflate = zr
	case format.AlgorithmZstd:
		zr, err := newZstdReader(d.compressed)
		if err != nil {
			return nil, fmt.Errorf("zstd stream: %w", err)
		}
		dec.zstd = zr
	default:
		tag := d.algorithm.Tag()
		return nil, fmt.Errorf("algorithm %q: %w", tag[:], errs.ErrUnknownAlgorithm)
	}

	return dec, nil
}

// Decoder is a streaming view of a container payload's plaintext. Exactly
// one back-end is active, chosen by the container's algorithm tag.
type Decoder struct {
	algorithm format.Algorithm
	hint      int

	kraken  *krakenReader
	deflate io.ReadCloser
	zstd    io.ReadCloser
}

var _ io.ReadCloser = (*Decoder)(nil)

// Read produces decompressed bytes. A mid-stream back-end failure is
// reported after the bytes decoded before it; the count always reflects
// only successfully produced output.
func (d *Decoder) Read(p []byte) (int, error) {
	switch d.algorithm {
	case format.AlgorithmKraken:
		return d.kraken.Read(p)
	case format.AlgorithmDeflate:
		return wrapDecodeErr(d.deflate.Read(p))
	default:
		return wrapDecodeErr(d.zstd.Read(p))
	}
}

// HintSize returns the container's declared uncompressed size.
func (d *Decoder) HintSize() int {
	return d.hint
}

// Close releases the back-end's buffers. The Decoder must not be read
// afterwards.
func (d *Decoder) Close() error {
	switch d.algorithm {
	case format.AlgorithmKraken:
		return d.kraken.Close()
	case format.AlgorithmDeflate:
		return d.deflate.Close()
	default:
		return d.zstd.Close()
	}
}

func wrapDecodeErr(n int, err error) (int, error) {
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", errs.ErrDecode, err)
	}

	return n, err
}
