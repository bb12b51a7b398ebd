package dvdbnd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arloliu/dvdbnd/bhd"
	"github.com/arloliu/dvdbnd/internal/options"
)

// entryDescriptor locates one entry's bytes inside a mounted data file.
type entryDescriptor struct {
	archive    int
	offset     uint64
	paddedSize uint32
	size       uint32
	aesKey     [16]byte
	ranges     []bhd.Range
}

// DvdBnd is a read-only virtual filesystem layered over split archives.
//
// It is immutable after Create: the entry table never changes and the data
// file handles stay open until Close. All methods are safe for concurrent
// use.
type DvdBnd struct {
	archives     []*os.File
	archiveSizes []uint64
	entries      map[Name]entryDescriptor

	parallelism int
	useMmap     bool
}

// Create mounts the archives at the given paths and builds the entry table.
//
// Each path identifies an archive pair by stem: "<stem>.bhd" holds the
// protected header, "<stem>.bdt" the data. Paths may be given with either
// extension or none. Archives are layered in order; when two archives
// contain the same Name, the later archive wins.
//
// Create is atomic: if any archive fails to open, decrypt, or parse, no
// DvdBnd is returned and every file opened so far is closed.
func Create(paths []string, keys KeyProvider, opts ...Option) (*DvdBnd, error) {
	cfg := &config{parallelism: runtime.GOMAXPROCS(0), useMmap: true}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	vfs := &DvdBnd{
		entries:     make(map[Name]entryDescriptor),
		parallelism: cfg.parallelism,
		useMmap:     cfg.useMmap,
	}

	for index, path := range paths {
		if err := vfs.mountArchive(index, path, keys); err != nil {
			vfs.closeArchives()
			return nil, fmt.Errorf("archive %s: %w", path, err)
		}
	}

	return vfs, nil
}

func (d *DvdBnd) mountArchive(index int, path string, keys KeyProvider) error {
	stem := trimArchiveExt(path)

	key, err := keys.Key(filepath.Base(stem))
	if err != nil {
		return err
	}

	headerFile, err := os.Open(stem + ".bhd")
	if err != nil {
		return err
	}
	header, err := bhd.ReadParallel(headerFile, key, d.parallelism)
	headerFile.Close()
	if err != nil {
		return err
	}

	dataFile, err := os.Open(stem + ".bdt")
	if err != nil {
		return err
	}
	info, err := dataFile.Stat()
	if err != nil {
		dataFile.Close()
		return err
	}

	d.archives = append(d.archives, dataFile)
	d.archiveSizes = append(d.archiveSizes, uint64(info.Size()))

	for _, entry := range header.Toc {
		d.entries[Name(entry.Hash)] = entryDescriptor{
			archive:    index,
			offset:     entry.Offset,
			paddedSize: entry.PaddedSize,
			size:       entry.Size,
			aesKey:     entry.AESKey,
			ranges:     entry.EncryptedRanges,
		}
	}

	return nil
}

// Len returns the number of distinct entries across all mounted archives.
func (d *DvdBnd) Len() int {
	return len(d.entries)
}

// Contains reports whether the given path resolves to a mounted entry.
func (d *DvdBnd) Contains(path string) bool {
	_, ok := d.entries[NameOf(path)]
	return ok
}

// Close releases the archive file handles. Entry readers handed out by Open
// own their mappings and stay valid past Close.
func (d *DvdBnd) Close() error {
	return d.closeArchives()
}

func (d *DvdBnd) closeArchives() error {
	var errList []error
	for _, f := range d.archives {
		if err := f.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	d.archives = nil

	return errors.Join(errList...)
}

func trimArchiveExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bhd", ".bdt":
		return path[:len(path)-4]
	default:
		return path
	}
}
