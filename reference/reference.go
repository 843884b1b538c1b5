// Package reference is the trusted side of the differential checks. It wraps
// the Go standard library crypto and zlib packages behind the shapes the
// harness consumes: hash.Hash, cipher.BlockMode, cipher.Stream and plain
// error returns. Builds tagged mcapi_dylib also offer Libz, a deflater over
// the system zlib for comparing against vendor engines.
package reference

import (
	"bytes"
	"compress/zlib"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/ikudriavtsev/cyassl/zfixed"
)

var (
	ErrUnsupportedHash = errors.New("reference: unsupported hash")
	ErrShortBuffer     = errors.New("reference: destination buffer too small")
)

// BlockCipher selects the cipher for CBC mode.
type BlockCipher int

const (
	TDES BlockCipher = iota
	AES
)

func (c BlockCipher) String() string {
	switch c {
	case TDES:
		return "3des"
	case AES:
		return "aes"
	default:
		return fmt.Sprintf("BlockCipher(%d)", int(c))
	}
}

// Mode is the deflate strategy used by Compress.
type Mode int

const (
	// Dynamic runs LZ77 matching and emits dynamic Huffman blocks.
	Dynamic Mode = iota
	// Static codes with the fixed Huffman table.
	Static
)

// Deflater writes the zlib stream of src at mode m into dst and returns
// its length. Overflowing dst is ErrShortBuffer.
type Deflater interface {
	Deflate(dst, src []byte, m Mode) (int, error)
}

// GoDeflater is the pure Go deflater. Dynamic is compress/zlib at the
// default level. Static is a single fixed-table block of literals, since
// compress/flate has no fixed-table strategy.
type GoDeflater struct{}

func (GoDeflater) Deflate(dst, src []byte, m Mode) (int, error) {
	var stream []byte
	switch m {
	case Dynamic:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(src); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
		stream = buf.Bytes()
	case Static:
		stream = zfixed.Encode(src)
	default:
		return 0, fmt.Errorf("reference: unknown compression mode %d", int(m))
	}
	if len(stream) > len(dst) {
		return 0, fmt.Errorf("%w: need %d have %d", ErrShortBuffer, len(stream), len(dst))
	}
	return copy(dst, stream), nil
}

// Impl implements the reference API. The zero value reads randomness from
// crypto/rand and compresses with GoDeflater.
type Impl struct {
	Rand     io.Reader
	Deflater Deflater
}

func (i Impl) Name() string {
	if n, ok := i.Deflater.(interface{ Name() string }); ok {
		return "go-std+" + n.Name()
	}
	return "go-std"
}

func newHashFunc(h crypto.Hash) (func() hash.Hash, error) {
	switch h {
	case crypto.MD5:
		return md5.New, nil
	case crypto.SHA1:
		return sha1.New, nil
	case crypto.SHA256:
		return sha256.New, nil
	case crypto.SHA384:
		return sha512.New384, nil
	case crypto.SHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedHash, h)
	}
}

func (Impl) NewHash(h crypto.Hash) (hash.Hash, error) {
	fn, err := newHashFunc(h)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

func (Impl) NewHMAC(h crypto.Hash, key []byte) (hash.Hash, error) {
	if h == crypto.MD5 {
		return nil, fmt.Errorf("%w: hmac over %v", ErrUnsupportedHash, h)
	}
	fn, err := newHashFunc(h)
	if err != nil {
		return nil, err
	}
	return hmac.New(fn, key), nil
}

func newBlock(c BlockCipher, key []byte) (cipher.Block, error) {
	switch c {
	case TDES:
		return des.NewTripleDESCipher(key)
	case AES:
		return aes.NewCipher(key)
	default:
		return nil, fmt.Errorf("reference: unknown block cipher %v", c)
	}
}

// NewCBC returns a CBC encrypter, or a decrypter over the cipher's decryption
// direction when decrypt is set. iv must be exactly one block.
func (Impl) NewCBC(c BlockCipher, key, iv []byte, decrypt bool) (cipher.BlockMode, error) {
	block, err := newBlock(c, key)
	if err != nil {
		return nil, fmt.Errorf("%v cbc key: %w", c, err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%v cbc: iv length %d, want %d", c, len(iv), block.BlockSize())
	}
	if decrypt {
		return cipher.NewCBCDecrypter(block, iv), nil
	}
	return cipher.NewCBCEncrypter(block, iv), nil
}

// NewCTR returns an AES counter mode stream starting at iv.
func (Impl) NewCTR(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes ctr key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("aes ctr: iv length %d, want %d", len(iv), aes.BlockSize)
	}
	return cipher.NewCTR(block, iv), nil
}

// Compress writes the zlib stream of src to dst and returns its length.
func (i Impl) Compress(dst, src []byte, m Mode) (int, error) {
	d := i.Deflater
	if d == nil {
		d = GoDeflater{}
	}
	n, err := d.Deflate(dst, src, m)
	if err != nil {
		return 0, fmt.Errorf("compress: %w", err)
	}
	return n, nil
}

// Decompress inflates the zlib stream src into dst and returns the length.
func (Impl) Decompress(dst, src []byte) (int, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return 0, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()
	n, err := io.ReadFull(zr, dst)
	switch {
	case err == nil:
		var extra [1]byte
		m, xerr := io.ReadFull(zr, extra[:])
		if m > 0 {
			return 0, fmt.Errorf("decompress: %w: output exceeds %d bytes", ErrShortBuffer, len(dst))
		}
		if xerr != nil && !errors.Is(xerr, io.EOF) {
			return 0, fmt.Errorf("decompress: %w", xerr)
		}
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, nil
	default:
		return 0, fmt.Errorf("decompress: %w", err)
	}
}

// Random fills p from the configured source.
func (i Impl) Random(p []byte) error {
	r := i.Rand
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, p); err != nil {
		return fmt.Errorf("random: %w", err)
	}
	return nil
}
