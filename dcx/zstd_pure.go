//go:build !cgo

package dcx

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

func newZstdReader(compressed []byte) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(bytes.NewReader(compressed),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
	)
	if err != nil {
		return nil, err
	}

	return dec.IOReadCloser(), nil
}
