package bhd

import (
	"github.com/arloliu/dvdbnd/endian"
	"github.com/arloliu/dvdbnd/errs"
)

// cursor walks a decrypted header buffer with a sticky error. Reads past
// the end of the buffer latch errs.ErrTruncatedHeader and every later read
// returns zero values, so parse code can stay linear and check Err once per
// structure.
type cursor struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
	err    error
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data, engine: endian.GetBigEndianEngine()}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if c.pos+n > len(c.data) || c.pos+n < c.pos {
		c.err = errs.ErrTruncatedHeader
		return nil
	}

	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b
}

func (c *cursor) u8() byte {
	b := c.take(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (c *cursor) i8() int8 {
	return int8(c.u8())
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}

	return c.engine.Uint32(b)
}

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}

	return c.engine.Uint64(b)
}

func (c *cursor) i64() int64 {
	return int64(c.u64())
}

func (c *cursor) skip(n int) {
	c.take(n)
}

func (c *cursor) seek(off int) {
	if c.err != nil {
		return
	}
	if off < 0 || off > len(c.data) {
		c.err = errs.ErrTruncatedHeader
		return
	}

	c.pos = off
}

func (c *cursor) Pos() int {
	return c.pos
}

func (c *cursor) Err() error {
	return c.err
}
