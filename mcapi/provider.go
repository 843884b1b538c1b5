// Package mcapi is the vendor-style cryptographic provider API under test.
//
// The surface mirrors the Microchip crypto API: callers own every context and
// output buffer, contexts are set up, fed and finalized in separate calls, and
// every call reports an integer Status instead of an error. Two engines
// implement it: Soft, a pure-Go host emulation, and Dylib, which forwards to a
// vendor shim library (build tag mcapi_dylib).
package mcapi

// Digest sizes in bytes.
const (
	MD5DigestSize    = 16
	SHADigestSize    = 20
	SHA256DigestSize = 32
	SHA384DigestSize = 48
	SHA512DigestSize = 64
)

// HashAlg selects a digest for hash and HMAC contexts. The values match the
// vendor's HMAC type constants.
type HashAlg int32

const (
	HashSHA    HashAlg = 1
	HashSHA256 HashAlg = 2
	HashSHA512 HashAlg = 4
	HashSHA384 HashAlg = 5
	HashMD5    HashAlg = 6
)

// DigestSize returns the output size of alg, or 0 for an unknown algorithm.
func (a HashAlg) DigestSize() int {
	switch a {
	case HashMD5:
		return MD5DigestSize
	case HashSHA:
		return SHADigestSize
	case HashSHA256:
		return SHA256DigestSize
	case HashSHA384:
		return SHA384DigestSize
	case HashSHA512:
		return SHA512DigestSize
	default:
		return 0
	}
}

// Direction is the key setup direction for block ciphers.
type Direction int32

const (
	Encryption Direction = 0
	Decryption Direction = 1
)

// Huffman compression flags.
const (
	HuffmanDynamic uint32 = 0
	HuffmanStatic  uint32 = 1
)

const (
	AESBlockSize  = 16
	TDESBlockSize = 8
	TDESKeySize   = 24
)

// HashCtx is an incremental digest context.
type HashCtx interface {
	Initialize() Status
	DataAdd(data []byte) Status
	// Finalize writes the digest to the front of digest, which must hold at
	// least the algorithm's digest size, and re-initializes the context.
	Finalize(digest []byte) Status
}

type HMACCtx interface {
	SetKey(alg HashAlg, key []byte) Status
	DataAdd(data []byte) Status
	Finalize(digest []byte) Status
}

type TDESCtx interface {
	KeySet(key, iv []byte, dir Direction) Status
	CBCEncrypt(out, in []byte) Status
	CBCDecrypt(out, in []byte) Status
}

// AESCtx holds an AES key schedule and the running IV or counter register.
// CTR mode is its own inverse and has no decrypt entry point.
type AESCtx interface {
	KeySet(key, iv []byte, dir Direction) Status
	CBCEncrypt(out, in []byte) Status
	CBCDecrypt(out, in []byte) Status
	CTREncrypt(out, in []byte) Status
}

type RNGCtx interface {
	Initialize() Status
	Get(out *byte) Status
	BlockGenerate(out []byte) Status
}

// Provider is the provider API consumed by the conformance harness.
type Provider interface {
	Name() string

	NewMD5() HashCtx
	NewSHA() HashCtx
	NewSHA256() HashCtx
	NewSHA384() HashCtx
	NewSHA512() HashCtx
	NewHMAC() HMACCtx
	NewTDES() TDESCtx
	NewAES() AESCtx
	NewRNG() RNGCtx

	// HuffmanCompress compresses in into out and returns the compressed
	// length, or a negative Status.
	HuffmanCompress(out, in []byte, flags uint32) int
	// HuffmanDecompress returns the decompressed length or a negative Status.
	HuffmanDecompress(out, in []byte) int
}
