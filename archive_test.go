package dvdbnd

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/dvdbnd/bhd"
	"github.com/arloliu/dvdbnd/endian"
	"github.com/arloliu/dvdbnd/format"
)

// testEntry describes one file to place into a synthetic archive pair.
type testEntry struct {
	path    string
	content []byte
	// padTo overrides the padded size; zero rounds the content length up to
	// the next AES block boundary.
	padTo int
	// logicalZero writes a zero logical size (the "same as padded" sentinel).
	logicalZero bool
	// rawRanges are emitted verbatim into the header; the valid ones are
	// also applied: those byte ranges of the data file get AES-encrypted.
	rawRanges [][2]int64
	aesKey    [16]byte
}

// testArchive owns the RSA key pair protecting one archive's header.
type testArchive struct {
	priv *rsa.PrivateKey
	key  bhd.Key
}

func newTestArchive(t *testing.T) *testArchive {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	return &testArchive{
		priv: priv,
		key:  bhd.NewKey(priv.PublicKey.N, big.NewInt(int64(priv.PublicKey.E))),
	}
}

// write lays the archive pair down as <dir>/<stem>.bhd + .bdt and drops the
// matching public key PEM into keyDir.
func (a *testArchive) write(t *testing.T, dir, keyDir, stem string, entries []testEntry) {
	t.Helper()

	engine := endian.GetLittleEndianEngine()

	// Data file: entries back to back, each padded to the AES block size,
	// with encrypted ranges applied.
	var data []byte
	type placed struct {
		testEntry
		offset uint64
		padded uint32
	}

	var toc []placed
	for _, e := range entries {
		padded := e.padTo
		if padded == 0 {
			padded = (len(e.content) + format.AESBlockSize - 1) &^ (format.AESBlockSize - 1)
		}
		require.GreaterOrEqual(t, padded, len(e.content))

		region := make([]byte, padded)
		copy(region, e.content)
		for _, r := range e.rawRanges {
			if r[0] < 0 || r[0] >= r[1] {
				continue
			}
			encryptECB(t, e.aesKey, region[r[0]:r[1]])
		}

		toc = append(toc, placed{testEntry: e, offset: uint64(len(data)), padded: uint32(padded)})
		data = append(data, region...)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+".bdt"), data, 0o644))

	// Header plaintext: fixed header, one bucket, entries, encryption blocks.
	salt := []byte(stem)
	bucketsOffset := uint32(28 + len(salt))
	entriesOffset := bucketsOffset + 8
	encOffset := uint64(entriesOffset) + uint64(len(toc))*40

	encOffsets := make([]uint64, len(toc))
	next := encOffset
	for i, e := range toc {
		if len(e.rawRanges) == 0 {
			continue
		}
		encOffsets[i] = next
		next += 16 + 4 + uint64(len(e.rawRanges))*16
	}

	buf := []byte(format.MagicBHD5)
	buf = append(buf, 0xFF /* little-endian */, 0, 0, 0)
	buf = engine.AppendUint32(buf, 0)
	buf = engine.AppendUint32(buf, uint32(next))
	buf = engine.AppendUint32(buf, 1)
	buf = engine.AppendUint32(buf, bucketsOffset)
	buf = engine.AppendUint32(buf, uint32(len(salt)))
	buf = append(buf, salt...)

	buf = engine.AppendUint32(buf, uint32(len(toc)))
	buf = engine.AppendUint32(buf, entriesOffset)

	for i, e := range toc {
		size := uint32(len(e.content))
		if e.logicalZero {
			size = 0
		}

		buf = engine.AppendUint64(buf, uint64(NameOf(e.path)))
		buf = engine.AppendUint32(buf, e.padded)
		buf = engine.AppendUint32(buf, size)
		buf = engine.AppendUint64(buf, e.offset)
		buf = engine.AppendUint64(buf, 0)
		buf = engine.AppendUint64(buf, encOffsets[i])
	}

	for i, e := range toc {
		if encOffsets[i] == 0 {
			continue
		}
		buf = append(buf, e.aesKey[:]...)
		buf = engine.AppendUint32(buf, uint32(len(e.rawRanges)))
		for _, r := range e.rawRanges {
			buf = engine.AppendUint64(buf, uint64(r[0]))
			buf = engine.AppendUint64(buf, uint64(r[1]))
		}
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+".bhd"), a.encryptHeader(t, buf), 0o644))

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&a.priv.PublicKey),
	})
	require.NoError(t, os.WriteFile(filepath.Join(keyDir, stem+".pem"), pemBytes, 0o644))
}

// encryptHeader splits the plaintext into output-size blocks and raises
// each to the private exponent, the inverse of the mount-time decryption.
func (a *testArchive) encryptHeader(t *testing.T, plaintext []byte) []byte {
	t.Helper()

	outSize, inSize := a.key.OutputSize(), a.key.InputSize()
	padded := append([]byte(nil), plaintext...)
	for len(padded)%outSize != 0 {
		padded = append(padded, 0)
	}

	ciphertext := make([]byte, 0, len(padded)/outSize*inSize)
	m := new(big.Int)
	block := make([]byte, inSize)
	for off := 0; off < len(padded); off += outSize {
		m.SetBytes(padded[off : off+outSize])
		m.Exp(m, a.priv.D, a.priv.N)
		m.FillBytes(block)
		ciphertext = append(ciphertext, block...)
	}

	return ciphertext
}

// buildDeflateContainer wraps plain in a minimal Deflate compression
// container, the way payloads are typically stored inside archives.
func buildDeflateContainer(t *testing.T, plain []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	be := binary.BigEndian

	buf := []byte("DCX\x00")
	buf = be.AppendUint32(buf, 0x10000)
	buf = be.AppendUint32(buf, 24)
	buf = be.AppendUint32(buf, 36)
	buf = be.AppendUint32(buf, 68)
	buf = be.AppendUint32(buf, 76)
	buf = append(buf, format.MagicDCS...)
	buf = be.AppendUint32(buf, uint32(len(plain)))
	buf = be.AppendUint32(buf, uint32(compressed.Len()))
	buf = append(buf, format.MagicDCP...)
	buf = append(buf, "DFLT"...)
	buf = be.AppendUint32(buf, 32)
	buf = append(buf, make([]byte, 20)...)
	buf = append(buf, format.MagicDCA...)
	buf = be.AppendUint32(buf, 8)

	return append(buf, compressed.Bytes()...)
}

func encryptECB(t *testing.T, key [16]byte, data []byte) {
	t.Helper()
	require.Zero(t, len(data)%format.AESBlockSize)

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)

	for i := 0; i < len(data); i += format.AESBlockSize {
		block.Encrypt(data[i:i+format.AESBlockSize], data[i:i+format.AESBlockSize])
	}
}
