package dcx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/arloliu/dvdbnd/errs"
)

// newDeflateReader opens a zlib stream over the compressed payload. The
// container's "DFLT" payloads are plain zlib streams, so the back-end is a
// thin wrapper with no state of its own.
func newDeflateReader(compressed []byte) (io.ReadCloser, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib header: %v", errs.ErrDecode, err)
	}

	return zr, nil
}
