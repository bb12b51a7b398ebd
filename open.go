package dvdbnd

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/dvdbnd/errs"
	"github.com/arloliu/dvdbnd/format"
	"github.com/arloliu/dvdbnd/internal/mapping"
)

// decryptChunkSize is the largest span a single worker decrypts at once.
// Large encrypted ranges are split at this granularity so one big range
// still spreads across cores. Always a multiple of the AES block size.
const decryptChunkSize = 1 << 20

// Open resolves a path and returns a reader over the entry's decrypted
// payload. See OpenName for the details of the returned reader.
func (d *DvdBnd) Open(path string) (*EntryReader, error) {
	return d.OpenName(NameOf(path))
}

// OpenName opens the entry identified by name.
//
// The entry's padded region is mapped copy-on-write from the owning data
// file, the declared encrypted ranges are AES-decrypted in place (in
// parallel), and the result is handed back as a seekable reader over the
// entry's effective length. All decryption completes before OpenName
// returns; the on-disk file is never modified.
//
// The returned reader is independent of the DvdBnd and of any other reader
// for the same entry. The caller owns it and must Close it to release the
// mapping.
func (d *DvdBnd) OpenName(name Name) (*EntryReader, error) {
	entry, ok := d.entries[name]
	if !ok {
		return nil, fmt.Errorf("%016x: %w", uint64(name), errs.ErrNotFound)
	}

	if entry.offset+uint64(entry.paddedSize) > d.archiveSizes[entry.archive] {
		return nil, fmt.Errorf("%016x: padded region [%d, %d) exceeds data file size %d: %w",
			uint64(name), entry.offset, entry.offset+uint64(entry.paddedSize),
			d.archiveSizes[entry.archive], errs.ErrCorruptEntry)
	}
	if entry.size > entry.paddedSize {
		return nil, fmt.Errorf("%016x: logical size %d exceeds padded size %d: %w",
			uint64(name), entry.size, entry.paddedSize, errs.ErrCorruptEntry)
	}

	region, err := d.mapEntry(d.archives[entry.archive], entry)
	if err != nil {
		return nil, fmt.Errorf("%016x: %w", uint64(name), err)
	}

	if err := d.decryptEntry(region.Data(), entry); err != nil {
		region.Close()
		return nil, fmt.Errorf("%016x: %w", uint64(name), err)
	}

	region.AdviseSequential()

	effective := int(entry.size)
	if entry.size == 0 {
		effective = int(entry.paddedSize)
	}

	return newEntryReader(region, effective), nil
}

// mapEntry establishes a private view of the entry's padded region,
// preferring a copy-on-write mapping and falling back to a heap read when
// the OS refuses the mapping.
func (d *DvdBnd) mapEntry(f *os.File, entry entryDescriptor) (*mapping.Region, error) {
	if d.useMmap {
		region, err := mapping.MapCopy(f, int64(entry.offset), int(entry.paddedSize))
		if err == nil {
			return region, nil
		}
	}

	return mapping.ReadRegion(f, int64(entry.offset), int(entry.paddedSize))
}

// decryptEntry AES-decrypts the entry's declared encrypted ranges in place.
// Range bounds were validated at parse time; they are rechecked here
// against the actual mapping before any write.
func (d *DvdBnd) decryptEntry(data []byte, entry entryDescriptor) error {
	if len(entry.ranges) == 0 {
		return nil
	}

	for _, rng := range entry.ranges {
		if rng.End > uint64(len(data)) || rng.Len()%format.AESBlockSize != 0 {
			return fmt.Errorf("encrypted range [%d, %d) invalid for %d mapped bytes: %w",
				rng.Start, rng.End, len(data), errs.ErrCorruptEntry)
		}
	}

	block, err := aes.NewCipher(entry.aesKey[:])
	if err != nil {
		return fmt.Errorf("entry cipher: %w", err)
	}

	var group errgroup.Group
	group.SetLimit(d.parallelism)

	for _, rng := range entry.ranges {
		// ECB blocks are independent, so a large range can be decrypted by
		// several workers on disjoint chunks.
		for start := rng.Start; start < rng.End; start += decryptChunkSize {
			end := min(start+decryptChunkSize, rng.End)
			chunk := data[start:end]

			group.Go(func() error {
				decryptECB(block, chunk)
				return nil
			})
		}
	}

	return group.Wait()
}

// decryptECB decrypts whole AES blocks in place. The chunk length is a
// multiple of the block size by construction.
func decryptECB(block cipher.Block, chunk []byte) {
	for i := 0; i < len(chunk); i += format.AESBlockSize {
		block.Decrypt(chunk[i:i+format.AESBlockSize], chunk[i:i+format.AESBlockSize])
	}
}
