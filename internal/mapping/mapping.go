// Package mapping provides copy-on-write memory-mapped views into archive
// data files.
//
// A Region maps a byte range of a file privately: writes (in-place
// decryption) stay in this process and never reach the disk, and two
// Regions over the same range never observe each other's writes. When the
// OS refuses to map the file, callers can fall back to a heap-backed Region
// that reads the range instead.
package mapping

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Region is a mutable byte window over a file range. It is backed either by
// a private (copy-on-write) memory map or by a heap buffer.
type Region struct {
	mm   mmap.MMap // nil for heap-backed regions
	data []byte
}

// MapCopy establishes a copy-on-write mapping over length bytes of f
// starting at offset. The offset does not need to be page-aligned; the
// mapping is extended downward to the nearest page boundary internally.
func MapCopy(f *os.File, offset int64, length int) (*Region, error) {
	if length == 0 {
		return &Region{}, nil
	}

	pageSize := int64(os.Getpagesize())
	aligned := offset &^ (pageSize - 1)
	delta := int(offset - aligned)

	mm, err := mmap.MapRegion(f, length+delta, mmap.COPY, 0, aligned)
	if err != nil {
		return nil, fmt.Errorf("map %d bytes at offset %d: %w", length, offset, err)
	}

	return &Region{mm: mm, data: mm[delta : delta+length]}, nil
}

// ReadRegion reads length bytes of f starting at offset into a heap buffer.
// It is the fallback for platforms or filesystems where MapCopy fails.
func ReadRegion(f *os.File, offset int64, length int) (*Region, error) {
	if length == 0 {
		return &Region{}, nil
	}

	data := make([]byte, length)
	if _, err := f.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", length, offset, err)
	}

	return &Region{data: data}, nil
}

// Data returns the mutable byte window. Mutations are private to this
// Region and never reach the underlying file.
func (r *Region) Data() []byte {
	return r.data
}

// AdviseSequential hints to the OS that the region will be read from front
// to back. The hint is best-effort; failures are ignored.
func (r *Region) AdviseSequential() {
	if r.mm != nil {
		adviseSequential(r.mm)
	}
}

// Close releases the mapping. The Region's data must not be used afterwards.
func (r *Region) Close() error {
	if r.mm == nil {
		r.data = nil
		return nil
	}

	mm := r.mm
	r.mm = nil
	r.data = nil

	return mm.Unmap()
}
