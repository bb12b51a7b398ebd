package dcx

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/dvdbnd/errs"
	"github.com/arloliu/dvdbnd/internal/pool"
)

// The Kraken payload is block-oriented: the underlying decoder consumes
// input one quantum at a time and resolves back-references against a
// bounded window of previously emitted plaintext. The streaming reader
// therefore maintains two sliding windows.
const (
	// krakenBlockLen is the largest compressed quantum the block decoder
	// consumes in one call.
	krakenBlockLen = 256 << 10

	// krakenOutBlockLen is the most plaintext a single quantum may produce.
	krakenOutBlockLen = 1 << 20

	// krakenWindowSize is the output window: enough room for the retained
	// dictionary plus a full output block of headroom.
	krakenWindowSize = 3 * krakenOutBlockLen

	// krakenDictSize is the dictionary prefix preserved across window
	// rotations so back-references keep resolving.
	krakenDictSize = 2 << 20

	// krakenInputSize sizes the input window so that after a rotation the
	// block decoder always sees at least krakenBlockLen contiguous bytes
	// (or end of stream).
	krakenInputSize = 2 * krakenBlockLen
)

// blockDecoder is the quantum-decode primitive beneath the streaming
// reader. A call inspects the next quantum in input and either decodes it
// into window at wpos, or reports how many contiguous input bytes it needs.
//
// Result conventions:
//   - decoded > 0: one quantum produced decoded bytes at window[wpos:],
//     consuming consumed input bytes.
//   - decoded == 0, quantumLen > 0: input holds less than one quantum;
//     quantumLen is the contiguous length required.
//   - decoded == 0, quantumLen == 0: the stream's terminator was reached;
//     consumed covers it.
type blockDecoder interface {
	decodeSome(window []byte, wpos int, input []byte) (decoded, consumed, quantumLen int, err error)
}

// krakenReader streams plaintext out of a block-oriented LZ payload. It
// owns an output window serving back-references and an input window that
// guarantees the block decoder contiguous quanta, and flushes bytes the
// caller has not consumed yet ("reader lag") before decoding further.
type krakenReader struct {
	src io.Reader
	dec blockDecoder

	// Output window: plaintext is decoded at wpos and handed to the caller
	// from wpos-readerLag onward.
	window        []byte
	windowRelease func()
	wpos          int
	readerLag     int

	// Input window over the compressed stream.
	input        []byte
	inputRelease func()
	inputR       int
	inputW       int

	srcEOF bool
	done   bool
}

func newKrakenReader(src io.Reader) *krakenReader {
	window, windowRelease := pool.GetWindow(krakenWindowSize)
	input, inputRelease := pool.GetWindow(krakenInputSize)

	return &krakenReader{
		src:           src,
		dec:           lz4QuantumDecoder{},
		window:        window,
		windowRelease: windowRelease,
		input:         input,
		inputRelease:  inputRelease,
	}
}

func (r *krakenReader) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	total := 0
	for total < len(buf) {
		// Flush plaintext the caller is lagging behind on before decoding
		// anything new.
		if r.readerLag > 0 {
			n := min(r.readerLag, len(buf)-total)
			start := r.wpos - r.readerLag
			copy(buf[total:total+n], r.window[start:start+n])
			r.readerLag -= n
			total += n

			continue
		}

		if r.done {
			break
		}

		// Refill the input window from upstream.
		if !r.srcEOF && r.inputW < len(r.input) {
			n, err := r.src.Read(r.input[r.inputW:])
			r.inputW += n
			if err == io.EOF {
				r.srcEOF = true
			} else if err != nil {
				return total, fmt.Errorf("%w: %w", errs.ErrDecode, err)
			}
		}

		data := r.input[r.inputR:r.inputW]
		if len(data) == 0 {
			r.done = true
			break
		}

		decoded, consumed, quantumLen, err := r.dec.decodeSome(r.window, r.wpos, data)
		if err != nil {
			return total, fmt.Errorf("%w: %w", errs.ErrDecode, err)
		}

		r.inputR += consumed
		if r.inputR == r.inputW {
			r.inputR, r.inputW = 0, 0
		}

		switch {
		case decoded > 0:
			n := min(decoded, len(buf)-total)
			copy(buf[total:total+n], r.window[r.wpos:r.wpos+n])
			r.wpos += decoded
			r.readerLag = decoded - n
			total += n

		case quantumLen == 0:
			// Underlying decoder drained.
			r.done = true

		default:
			// Less than one quantum available: rotate the remainder to the
			// front of the input window so the next refill can complete it.
			if r.inputR > 0 {
				remaining := r.inputW - r.inputR
				copy(r.input, r.input[r.inputR:r.inputW])
				r.inputR, r.inputW = 0, remaining
			} else if r.srcEOF {
				// Upstream ended mid-quantum; surface the short read.
				return total, io.ErrUnexpectedEOF
			}
		}

		// Keep a full output block of headroom: slide the retained
		// dictionary to the front when the writer nears the window's end.
		if r.wpos+krakenOutBlockLen > len(r.window) {
			copy(r.window, r.window[r.wpos-krakenDictSize:r.wpos])
			r.wpos = krakenDictSize
		}

		if r.done {
			break
		}
	}

	if total == 0 {
		return 0, io.EOF
	}

	return total, nil
}

// Close returns the windows to the buffer pool. The reader must not be
// used afterwards.
func (r *krakenReader) Close() error {
	if r.windowRelease != nil {
		r.windowRelease()
		r.windowRelease = nil
		r.window = nil
	}
	if r.inputRelease != nil {
		r.inputRelease()
		r.inputRelease = nil
		r.input = nil
	}
	r.done = true

	return nil
}

// lz4QuantumDecoder decodes the block framing of Kraken payloads: each
// quantum is an 8-byte header of big-endian {rawLen, compLen} followed by
// compLen payload bytes. compLen == rawLen marks a stored (uncompressed)
// quantum; otherwise the payload is an LZ77 block whose back-references
// resolve against the plaintext already in the window. A zero/zero header
// terminates the stream.
type lz4QuantumDecoder struct{}

const quantumHeaderSize = 8

func (lz4QuantumDecoder) decodeSome(window []byte, wpos int, input []byte) (int, int, int, error) {
	if len(input) < quantumHeaderSize {
		return 0, 0, quantumHeaderSize, nil
	}

	rawLen := int(binary.BigEndian.Uint32(input[0:4]))
	compLen := int(binary.BigEndian.Uint32(input[4:8]))

	if rawLen == 0 && compLen == 0 {
		return 0, quantumHeaderSize, 0, nil
	}
	if rawLen > krakenOutBlockLen || compLen > krakenBlockLen-quantumHeaderSize {
		return 0, 0, 0, fmt.Errorf("quantum of %d/%d bytes exceeds block limits", rawLen, compLen)
	}
	if wpos+rawLen > len(window) {
		return 0, 0, 0, fmt.Errorf("quantum of %d bytes does not fit the output window", rawLen)
	}

	quantumLen := quantumHeaderSize + compLen
	if len(input) < quantumLen {
		return 0, 0, quantumLen, nil
	}

	payload := input[quantumHeaderSize:quantumLen]
	dst := window[wpos : wpos+rawLen]

	if compLen == rawLen {
		copy(dst, payload)
		return rawLen, quantumLen, quantumLen, nil
	}

	dictStart := max(0, wpos-krakenDictSize)
	n, err := lz4.UncompressBlockWithDict(payload, dst, window[dictStart:wpos])
	if err != nil {
		return 0, 0, 0, err
	}
	if n != rawLen {
		return 0, 0, 0, fmt.Errorf("quantum decoded to %d bytes, declared %d", n, rawLen)
	}

	return rawLen, quantumLen, quantumLen, nil
}
