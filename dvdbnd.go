// Package dvdbnd provides a read-only virtual filesystem over the split
// BHD5/BDT archive format: an RSA-protected header file describing entries,
// paired with a bulk data file whose entries are partially AES-encrypted.
//
// # Core Features
//
//   - Hash-based entry identification (64-bit path hash) for O(1) lookups
//   - RSA header decryption parallelized across CPU cores
//   - Copy-on-write memory maps: decryption happens in memory, the archive
//     files on disk are never modified
//   - Per-entry AES-128-ECB range decryption, parallel across ranges
//   - Layered mounts: archives mounted later override earlier ones
//   - Streaming decompression of container-wrapped payloads via the dcx
//     subpackage
//
// # Basic Usage
//
// Mounting archives and reading an entry:
//
//	keys := dvdbnd.NewFileKeyProvider("keys")
//	vfs, err := dvdbnd.Create([]string{"Data0", "Data1"}, keys)
//	if err != nil {
//	    return err
//	}
//	defer vfs.Close()
//
//	reader, err := vfs.Open("/map/mapinfo.txt")
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//
//	data, _ := io.ReadAll(reader)
//
// Payloads are often wrapped in a compression container; chain the dcx
// package to unwrap them:
//
//	payload := reader.Data()
//	if dcx.HasMagic(payload) {
//	    container, _ := dcx.Parse(payload)
//	    decoder, _ := container.Decoder()
//	    plain, _ := io.ReadAll(decoder)
//	}
//
// # Concurrency
//
// A DvdBnd is immutable after Create and safe for concurrent Open calls.
// Every Open returns an independent reader backed by a private mapping;
// readers never observe each other's decryption work.
package dvdbnd

import "github.com/arloliu/dvdbnd/internal/hash"

// Name is the 64-bit hash identifying an entry inside the mounted archives.
//
// The mapping from path to Name is one-way: archives store only hashes, so
// entries cannot be enumerated by path without an external dictionary.
type Name uint64

// NameOf hashes a virtual file path into a Name.
//
// Hashing canonicalizes first: letters are lowercased, backslashes become
// forward slashes, and a leading slash is prepended when absent, so
// NameOf("/a"), NameOf("a"), and NameOf("A") are all equal.
func NameOf(path string) Name {
	return Name(hash.Name(path))
}
