package dvdbnd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arloliu/dvdbnd/bhd"
	"github.com/arloliu/dvdbnd/errs"
)

// KeyProvider supplies the RSA public key protecting an archive's header
// file. Implementations are queried once per archive during Create with the
// archive's path stem (the filename without directory or extension).
type KeyProvider interface {
	Key(archiveStem string) (bhd.Key, error)
}

// FileKeyProvider loads PEM-encoded RSA public keys from a directory,
// expecting one "<stem>.pem" file per archive stem.
type FileKeyProvider struct {
	dir string
}

var _ KeyProvider = (*FileKeyProvider)(nil)

// NewFileKeyProvider creates a key provider rooted at dir.
func NewFileKeyProvider(dir string) *FileKeyProvider {
	return &FileKeyProvider{dir: dir}
}

// Key reads and parses "<dir>/<stem>.pem".
func (p *FileKeyProvider) Key(archiveStem string) (bhd.Key, error) {
	path := filepath.Join(p.dir, archiveStem+".pem")

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bhd.Key{}, fmt.Errorf("%s: %w", path, errs.ErrKeyNotFound)
		}

		return bhd.Key{}, fmt.Errorf("read key %s: %w", path, err)
	}

	key, err := bhd.ParseKeyPEM(pemBytes)
	if err != nil {
		return bhd.Key{}, fmt.Errorf("key %s: %w", path, err)
	}

	return key, nil
}
