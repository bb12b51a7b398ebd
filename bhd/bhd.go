// Package bhd reads the protected header file of a split archive.
//
// A header file is RSA-encrypted in fixed-size independent blocks. After
// decryption it carries a BHD5 structure: a small fixed header, an array of
// hash buckets, and per-entry records describing where each file lives in
// the paired data file and which of its byte ranges are AES-encrypted.
//
// The bucket layout exists only so the on-disk format can locate entries;
// Read flattens it into a single table-of-contents slice.
package bhd

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/dvdbnd/endian"
	"github.com/arloliu/dvdbnd/errs"
	"github.com/arloliu/dvdbnd/format"
)

// Range is a half-open byte interval [Start, End) within an entry's padded
// region whose content is AES-encrypted.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// TocEntry describes one file inside the paired data file.
type TocEntry struct {
	// Hash is the 64-bit path hash identifying the entry.
	Hash uint64
	// PaddedSize is the on-disk size, a multiple of the AES block size.
	PaddedSize uint32
	// Size is the logical byte count consumers should see. Zero is a
	// sentinel meaning "equal to PaddedSize".
	Size uint32
	// Offset is the absolute byte offset into the data file.
	Offset uint64
	// DigestOffset locates an informational digest region in the header.
	// Its layout is undocumented and it is never validated.
	DigestOffset uint64
	// AESKey is the entry's symmetric key. Only meaningful when
	// EncryptedRanges is non-empty.
	AESKey [16]byte
	// EncryptedRanges lists the encrypted intervals of the padded region.
	// Sentinel (-1,-1) and empty pairs are already pruned; the remaining
	// ranges are validated, block-aligned, and within the padded region.
	EncryptedRanges []Range
}

// Header is the fixed leading structure of a decrypted header file.
type Header struct {
	// BigEndian reports the byte order of all multi-byte fields that follow
	// the endianness flag.
	BigEndian bool
	// Version is the format version byte following the endianness flag.
	Version byte
	// FileSize is the declared size of the decrypted header.
	FileSize uint32
	// BucketCount is the number of hash buckets.
	BucketCount uint32
	// BucketsOffset locates the bucket array within the decrypted header.
	BucketsOffset uint32
	// Salt is the archive's salt bytes, retained for diagnostics only.
	Salt []byte
}

// Bhd is a fully parsed archive header: the fixed header plus the
// flattened table of contents.
type Bhd struct {
	Header Header
	Toc    []TocEntry
}

// Read consumes the whole encrypted header from r, decrypts it with key,
// and parses the BHD5 structure. Ciphertext blocks are decrypted in
// parallel across all available CPUs.
func Read(r io.Reader, key Key) (*Bhd, error) {
	return ReadParallel(r, key, runtime.GOMAXPROCS(0))
}

// ReadParallel is Read with an explicit worker count for the RSA block
// decryption step.
func ReadParallel(r io.Reader, key Key, workers int) (*Bhd, error) {
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	plaintext, err := decryptHeader(ciphertext, key, workers)
	if err != nil {
		return nil, err
	}

	return parse(plaintext)
}

// decryptHeader RSA-decrypts ciphertext in independent InputSize-byte
// blocks. Every block, interpreted as a big-endian integer c, maps to
// m = c^e mod n and serializes big-endian into exactly OutputSize bytes,
// left-padded with zeros. A trailing partial ciphertext block is processed
// like any other, except that when its value is wider than OutputSize bytes
// only the low OutputSize bytes are kept; a full block that wide fails with
// errs.ErrInvalidKey.
func decryptHeader(ciphertext []byte, key Key, workers int) ([]byte, error) {
	inSize, outSize := key.InputSize(), key.OutputSize()
	if inSize == 0 || outSize == 0 {
		return nil, fmt.Errorf("key has no usable modulus: %w", errs.ErrInvalidKey)
	}

	numBlocks := (len(ciphertext) + inSize - 1) / inSize
	plaintext := make([]byte, numBlocks*outSize)

	if workers < 1 {
		workers = 1
	}

	var group errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		group.Go(func() error {
			c := new(big.Int)
			for i := w; i < numBlocks; i += workers {
				start := i * inSize
				end := min(start+inSize, len(ciphertext))

				c.SetBytes(ciphertext[start:end])
				c.Exp(c, key.exponent, key.modulus)

				if c.BitLen() > outSize*8 {
					if end-start == inSize {
						return fmt.Errorf("rsa block %d: recovered value wider than %d bytes: %w",
							i, outSize, errs.ErrInvalidKey)
					}
					// Trailing partial block: drop the excess high bytes.
					b := c.Bytes()
					copy(plaintext[i*outSize:(i+1)*outSize], b[len(b)-outSize:])
					continue
				}
				c.FillBytes(plaintext[i*outSize : (i+1)*outSize])
			}

			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return plaintext, nil
}

func parse(plaintext []byte) (*Bhd, error) {
	c := newCursor(plaintext)

	magic := c.take(4)
	if c.Err() != nil {
		return nil, fmt.Errorf("header magic: %w", c.Err())
	}
	if !bytes.Equal(magic, []byte(format.MagicBHD5)) {
		return nil, fmt.Errorf("got %q, want %q: %w", magic, format.MagicBHD5, errs.ErrInvalidMagic)
	}

	flag := c.i8()
	c.engine = endian.FromFlag(flag)

	header := Header{BigEndian: flag != -1}
	header.Version = c.u8()
	c.skip(2) // padding
	c.skip(4) // reserved
	header.FileSize = c.u32()
	header.BucketCount = c.u32()
	header.BucketsOffset = c.u32()

	saltLen := c.u32()
	if c.Err() == nil && int(saltLen) > len(plaintext) {
		return nil, fmt.Errorf("salt length %d: %w", saltLen, errs.ErrTruncatedHeader)
	}
	header.Salt = append([]byte(nil), c.take(int(saltLen))...)

	if c.Err() != nil {
		return nil, fmt.Errorf("fixed header: %w", c.Err())
	}

	toc, err := parseToc(c, header)
	if err != nil {
		return nil, err
	}

	return &Bhd{Header: header, Toc: toc}, nil
}

func parseToc(c *cursor, header Header) ([]TocEntry, error) {
	var entries []TocEntry

	for bucket := uint32(0); bucket < header.BucketCount; bucket++ {
		c.seek(int(header.BucketsOffset) + int(bucket)*8)
		entryCount := c.u32()
		entriesOffset := c.u32()
		if c.Err() != nil {
			return nil, fmt.Errorf("bucket %d: %w", bucket, c.Err())
		}

		c.seek(int(entriesOffset))
		for i := uint32(0); i < entryCount; i++ {
			entry, err := parseEntry(c)
			if err != nil {
				return nil, fmt.Errorf("bucket %d entry %d: %w", bucket, i, err)
			}

			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func parseEntry(c *cursor) (TocEntry, error) {
	entry := TocEntry{
		Hash:         c.u64(),
		PaddedSize:   c.u32(),
		Size:         c.u32(),
		Offset:       c.u64(),
		DigestOffset: c.u64(),
	}
	encOffset := c.u64()
	if c.Err() != nil {
		return TocEntry{}, c.Err()
	}

	if encOffset != 0 {
		next := c.Pos()

		c.seek(int(encOffset))
		copy(entry.AESKey[:], c.take(16))
		rangeCount := c.u32()
		if c.Err() != nil {
			return TocEntry{}, c.Err()
		}

		for r := uint32(0); r < rangeCount; r++ {
			start, end := c.i64(), c.i64()
			if c.Err() != nil {
				return TocEntry{}, c.Err()
			}

			rng, keep, err := pruneRange(start, end, entry.PaddedSize)
			if err != nil {
				return TocEntry{}, err
			}
			if keep {
				entry.EncryptedRanges = append(entry.EncryptedRanges, rng)
			}
		}

		c.seek(next)
	}

	return entry, nil
}

// pruneRange drops the (-1,-1) sentinel and empty pairs, and validates that
// surviving ranges are block-aligned and inside the padded region.
func pruneRange(start, end int64, paddedSize uint32) (Range, bool, error) {
	if start == -1 && end == -1 {
		return Range{}, false, nil
	}
	if start == end {
		return Range{}, false, nil
	}

	if start < 0 || end < start || uint64(end) > uint64(paddedSize) {
		return Range{}, false, fmt.Errorf("encrypted range [%d, %d) outside padded region of %d bytes: %w",
			start, end, paddedSize, errs.ErrCorruptEntry)
	}

	rng := Range{Start: uint64(start), End: uint64(end)}
	if rng.Start%format.AESBlockSize != 0 || rng.Len()%format.AESBlockSize != 0 {
		return Range{}, false, fmt.Errorf("encrypted range [%d, %d) not aligned to %d-byte blocks: %w",
			start, end, format.AESBlockSize, errs.ErrCorruptEntry)
	}

	return rng, true, nil
}
