package harness

import (
	"crypto"
	"crypto/cipher"
	"hash"

	"github.com/ikudriavtsev/cyassl/reference"
)

// Reference is the trusted implementation the provider is compared with.
// reference.Impl satisfies it; tests substitute fault-injecting versions.
type Reference interface {
	Name() string
	NewHash(h crypto.Hash) (hash.Hash, error)
	NewHMAC(h crypto.Hash, key []byte) (hash.Hash, error)
	NewCBC(c reference.BlockCipher, key, iv []byte, decrypt bool) (cipher.BlockMode, error)
	NewCTR(key, iv []byte) (cipher.Stream, error)
	Compress(dst, src []byte, m reference.Mode) (int, error)
	Decompress(dst, src []byte) (int, error)
	Random(p []byte) error
}
