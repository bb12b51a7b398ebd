// Package hash implements the path hash used to identify archive entries.
package hash

// Name computes the 64-bit hash of a virtual file path.
//
// The path is canonicalized before hashing: ASCII letters are lowercased,
// backslashes become forward slashes, and a leading slash is prepended when
// absent. The hash folds left over the canonical characters with
// h' = h*0x85 + c, starting from zero, wrapping modulo 2^64.
//
// The function is total: every string hashes, and distinct paths may
// collide. That is a property of the archive format itself, which stores
// only hashes.
func Name(path string) uint64 {
	var h uint64

	if len(path) == 0 || (path[0] != '/' && path[0] != '\\') {
		h = uint64('/')
	}

	for _, ch := range path {
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		} else if ch == '\\' {
			ch = '/'
		}

		h = h*0x85 + uint64(ch)
	}

	return h
}
