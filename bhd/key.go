package bhd

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/arloliu/dvdbnd/errs"
)

// Key is the RSA public key protecting one archive header, together with
// the block metrics derived from the modulus width.
//
// Headers are encrypted in independent ciphertext blocks of InputSize
// bytes. Each block decrypts to OutputSize bytes of plaintext; the top bit
// of every block is padding and is discarded, which is why OutputSize is
// computed from bits(n)-1.
type Key struct {
	modulus  *big.Int
	exponent *big.Int

	inputSize  int
	outputSize int
}

// NewKey builds a Key from a raw modulus and public exponent.
func NewKey(n, e *big.Int) Key {
	bits := n.BitLen()

	return Key{
		modulus:    n,
		exponent:   e,
		inputSize:  (bits + 7) / 8,
		outputSize: (bits - 1) / 8,
	}
}

// ParseKeyPEM parses a PEM-encoded RSA public key in either PKCS#1
// ("RSA PUBLIC KEY") or PKIX ("PUBLIC KEY") form.
func ParseKeyPEM(data []byte) (Key, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return Key{}, fmt.Errorf("no PEM block found: %w", errs.ErrInvalidKey)
	}

	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return NewKey(pub.N, big.NewInt(int64(pub.E))), nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return Key{}, fmt.Errorf("parse public key: %v: %w", err, errs.ErrInvalidKey)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return Key{}, fmt.Errorf("key is %T, not an RSA public key: %w", parsed, errs.ErrInvalidKey)
	}

	return NewKey(pub.N, big.NewInt(int64(pub.E))), nil
}

// InputSize returns the ciphertext block size in bytes.
func (k Key) InputSize() int {
	return k.inputSize
}

// OutputSize returns the plaintext bytes recovered per ciphertext block.
func (k Key) OutputSize() int {
	return k.outputSize
}
