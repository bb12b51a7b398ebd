// Package pool provides reusable fixed-size byte buffers for decoder
// sliding windows and read staging.
//
// Streaming decoders allocate multi-megabyte windows per stream; pooling
// them keeps sequential decode jobs from hammering the allocator.
package pool

import "sync"

// windowPools holds one sync.Pool per requested buffer size. Decoders only
// use a couple of distinct sizes, so the map stays tiny.
var windowPools sync.Map // int -> *sync.Pool

// GetWindow returns a byte buffer of exactly size bytes and a release
// function that returns it to the pool. The buffer content is unspecified;
// callers must not read bytes they have not written.
func GetWindow(size int) ([]byte, func()) {
	p := poolFor(size)

	ptr, _ := p.Get().(*[]byte)
	buf := *ptr
	if cap(buf) < size {
		buf = make([]byte, size)
		*ptr = buf
	}
	buf = buf[:size]

	return buf, func() { p.Put(ptr) }
}

func poolFor(size int) *sync.Pool {
	if p, ok := windowPools.Load(size); ok {
		return p.(*sync.Pool)
	}

	p, _ := windowPools.LoadOrStore(size, &sync.Pool{
		New: func() any { return new([]byte) },
	})

	return p.(*sync.Pool)
}
