package dvdbnd

import (
	"fmt"
	"io"

	"github.com/arloliu/dvdbnd/internal/mapping"
)

// EntryReader is a seekable byte view over one entry's decrypted payload.
//
// The view covers [0, Size()) where Size is the entry's logical size, or
// its padded size when no logical size was declared. The reader owns a
// private mapping; Close releases it. Readers are not safe for concurrent
// use, but distinct readers are fully independent.
type EntryReader struct {
	region *mapping.Region
	data   []byte
	pos    int
}

var _ io.ReadSeekCloser = (*EntryReader)(nil)

func newEntryReader(region *mapping.Region, length int) *EntryReader {
	return &EntryReader{
		region: region,
		data:   region.Data()[:length],
	}
}

// Read copies bytes from the current position. It returns io.EOF once the
// position reaches the end of the payload.
func (r *EntryReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	n := copy(p, r.data[r.pos:])
	r.pos += n

	return n, nil
}

// Seek repositions the reader. The resulting position must stay within
// [0, Size()]; Size() itself is a valid terminal position from which Read
// returns io.EOF.
func (r *EntryReader) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(r.pos) + offset
	case io.SeekEnd:
		pos = int64(len(r.data)) + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}

	if pos < 0 || pos > int64(len(r.data)) {
		return 0, fmt.Errorf("seek position %d outside [0, %d]", pos, len(r.data))
	}

	r.pos = int(pos)

	return pos, nil
}

// Data returns the whole decrypted payload as a byte slice. The slice stays
// valid until Close and must be treated as read-only.
func (r *EntryReader) Data() []byte {
	return r.data
}

// Size returns the payload length in bytes.
func (r *EntryReader) Size() int64 {
	return int64(len(r.data))
}

// Close unmaps the reader's private view. The reader and any slice obtained
// from Data must not be used afterwards.
func (r *EntryReader) Close() error {
	r.data = nil
	return r.region.Close()
}
