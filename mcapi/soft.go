package mcapi

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"
)

// Soft is a host emulation of the provider API. It reproduces the vendor
// calling conventions (status codes, caller buffers, persistent IV registers)
// on top of Go block and digest primitives so that a harness run needs no
// device or shim library.
type Soft struct {
	// Entropy seeds RNG contexts. Nil means crypto/rand.Reader.
	Entropy io.Reader
}

func (Soft) Name() string { return "soft" }

func (Soft) NewMD5() HashCtx    { return &softHash{newHash: md5.New, size: MD5DigestSize} }
func (Soft) NewSHA() HashCtx    { return &softHash{newHash: sha1.New, size: SHADigestSize} }
func (Soft) NewSHA256() HashCtx { return &softHash{newHash: sha256.New, size: SHA256DigestSize} }
func (Soft) NewSHA384() HashCtx { return &softHash{newHash: sha512.New384, size: SHA384DigestSize} }
func (Soft) NewSHA512() HashCtx { return &softHash{newHash: sha512.New, size: SHA512DigestSize} }

func (Soft) NewHMAC() HMACCtx { return &softHMAC{} }
func (Soft) NewTDES() TDESCtx { return &softTDES{} }
func (Soft) NewAES() AESCtx   { return &softAES{} }

func (s Soft) NewRNG() RNGCtx {
	entropy := s.Entropy
	if entropy == nil {
		entropy = rand.Reader
	}
	return &softRNG{entropy: entropy}
}

func softHashFunc(alg HashAlg) func() hash.Hash {
	switch alg {
	case HashMD5:
		return md5.New
	case HashSHA:
		return sha1.New
	case HashSHA256:
		return sha256.New
	case HashSHA384:
		return sha512.New384
	case HashSHA512:
		return sha512.New
	default:
		return nil
	}
}

type softHash struct {
	newHash func() hash.Hash
	size    int
	h       hash.Hash
}

func (c *softHash) Initialize() Status {
	c.h = c.newHash()
	return StatusOK
}

func (c *softHash) DataAdd(data []byte) Status {
	if c.h == nil {
		return StatusBadState
	}
	_, _ = c.h.Write(data)
	return StatusOK
}

func (c *softHash) Finalize(digest []byte) Status {
	if c.h == nil {
		return StatusBadState
	}
	if len(digest) < c.size {
		return StatusBuffer
	}
	copy(digest, c.h.Sum(nil))
	c.h.Reset()
	return StatusOK
}

type softHMAC struct {
	mac  hash.Hash
	size int
}

func (c *softHMAC) SetKey(alg HashAlg, key []byte) Status {
	newHash := softHashFunc(alg)
	if newHash == nil || alg == HashMD5 {
		return StatusBadArg
	}
	c.mac = hmac.New(newHash, key)
	c.size = alg.DigestSize()
	return StatusOK
}

func (c *softHMAC) DataAdd(data []byte) Status {
	if c.mac == nil {
		return StatusBadState
	}
	_, _ = c.mac.Write(data)
	return StatusOK
}

func (c *softHMAC) Finalize(digest []byte) Status {
	if c.mac == nil {
		return StatusBadState
	}
	if len(digest) < c.size {
		return StatusBuffer
	}
	copy(digest, c.mac.Sum(nil))
	c.mac.Reset()
	return StatusOK
}
