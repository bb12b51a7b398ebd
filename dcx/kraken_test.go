package dcx

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/dvdbnd/errs"
)

func TestKrakenReader_WindowRotation(t *testing.T) {
	// Enough plaintext to push the writer past the rotation threshold
	// several times; incompressible so the input stream stays large too.
	plain := randomPayload(5 << 20)
	payload := compressKraken(t, plain, 128<<10)

	r := newKrakenReader(bytes.NewReader(payload))
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, len(plain), len(got))
	require.Equal(t, xxhash.Sum64(plain), xxhash.Sum64(got))
}

func TestKrakenReader_SmallUpstreamReads(t *testing.T) {
	plain := repetitivePayload(200 << 10)
	payload := compressKraken(t, plain, 32<<10)

	// Dribble compressed bytes in so quanta routinely straddle refills.
	r := newKrakenReader(iotest(payload, 113))
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

// iotest returns a reader that yields at most chunk bytes per Read call.
func iotest(data []byte, chunk int) io.Reader {
	return &slowReader{data: data, chunk: chunk}
}

type slowReader struct {
	data  []byte
	pos   int
	chunk int
}

func (s *slowReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}

	n := min(len(p), min(s.chunk, len(s.data)-s.pos))
	copy(p, s.data[s.pos:s.pos+n])
	s.pos += n

	return n, nil
}

func TestKrakenReader_TruncatedMidQuantum(t *testing.T) {
	plain := randomPayload(64 << 10)
	payload := compressKraken(t, plain, 32<<10)

	// Cut inside the second quantum's payload.
	r := newKrakenReader(bytes.NewReader(payload[:40<<10]))
	defer r.Close()

	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKrakenReader_CorruptQuantum(t *testing.T) {
	plain := repetitivePayload(32 << 10)
	payload := compressKraken(t, plain, 32<<10)

	// Declare a quantum wider than the output block limit.
	binary.BigEndian.PutUint32(payload[0:4], krakenOutBlockLen+1)

	r := newKrakenReader(bytes.NewReader(payload))
	defer r.Close()

	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, errs.ErrDecode)
}

func TestKrakenReader_EmptyBuffer(t *testing.T) {
	payload := compressKraken(t, []byte("data"), 4)

	r := newKrakenReader(bytes.NewReader(payload))
	defer r.Close()

	n, err := r.Read(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func BenchmarkKrakenReader(b *testing.B) {
	plain := repetitivePayload(1 << 20)

	payload := compressKraken(b, plain, 128<<10)

	buf := make([]byte, 64<<10)
	b.SetBytes(int64(len(plain)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r := newKrakenReader(bytes.NewReader(payload))
		for {
			_, err := r.Read(buf)
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
		r.Close()
	}
}
