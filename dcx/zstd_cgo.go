//go:build cgo

package dcx

import (
	"bytes"
	"io"

	"github.com/valyala/gozstd"
)

type gozstdReader struct {
	*gozstd.Reader
}

func (r gozstdReader) Close() error {
	r.Release()
	return nil
}

func newZstdReader(compressed []byte) (io.ReadCloser, error) {
	return gozstdReader{gozstd.NewReader(bytes.NewReader(compressed))}, nil
}
