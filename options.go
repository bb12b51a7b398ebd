package dvdbnd

import (
	"fmt"

	"github.com/arloliu/dvdbnd/internal/options"
)

// Option configures archive mounting.
type Option = options.Option[*config]

type config struct {
	parallelism int
	useMmap     bool
}

// WithParallelism bounds the number of workers used for RSA header
// decryption and AES range decryption. The default is the number of
// available CPUs.
func WithParallelism(n int) Option {
	return options.New(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("parallelism must be at least 1, got %d", n)
		}
		c.parallelism = n

		return nil
	})
}

// WithoutMmap forces entry payloads to be read into heap buffers instead of
// memory-mapped. Mainly useful on filesystems that reject private mappings;
// the same fallback also happens automatically when a mapping fails.
func WithoutMmap() Option {
	return options.NoError(func(c *config) {
		c.useMmap = false
	})
}
