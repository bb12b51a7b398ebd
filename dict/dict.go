// Package dict loads path dictionaries.
//
// Archives identify entries only by hash, so enumerating them requires an
// externally maintained list of known paths. A dictionary file holds one
// path per line; blank lines and lines starting with '#' are ignored.
package dict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arloliu/dvdbnd"
)

// Dictionary is a parsed path list with the precomputed name of every path.
type Dictionary struct {
	paths []string
	names []dvdbnd.Name
}

// Load reads and parses the dictionary file at path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}

	return d, nil
}

// Parse reads a dictionary from r: one path per line, blank lines and
// '#'-prefixed comment lines skipped.
func Parse(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d.paths = append(d.paths, line)
		d.names = append(d.names, dvdbnd.NameOf(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dictionary: %w", err)
	}

	return d, nil
}

// Len returns the number of paths in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.paths)
}

// Paths returns the dictionary's paths in file order.
func (d *Dictionary) Paths() []string {
	return d.paths
}

// Names returns the hash of every path, index-aligned with Paths.
func (d *Dictionary) Names() []dvdbnd.Name {
	return d.names
}

// PathOf returns the dictionary path hashing to name, if any. The search
// is linear; callers resolving many names should build their own index.
func (d *Dictionary) PathOf(name dvdbnd.Name) (string, bool) {
	for i, n := range d.names {
		if n == name {
			return d.paths[i], true
		}
	}

	return "", false
}
