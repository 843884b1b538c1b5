package harness

import (
	"crypto"
	"crypto/cipher"
	"hash"
	"testing"

	"github.com/ikudriavtsev/cyassl/mcapi"
	"github.com/ikudriavtsev/cyassl/reference"
)

// tamperHash wraps a provider hash context and injects one fault.
type tamperHash struct {
	mcapi.HashCtx
	initStatus  mcapi.Status
	addStatus   mcapi.Status
	flipDigest  bool
	mutateInput bool
}

func (c *tamperHash) Initialize() mcapi.Status {
	if c.initStatus != mcapi.StatusOK {
		return c.initStatus
	}
	return c.HashCtx.Initialize()
}

func (c *tamperHash) DataAdd(data []byte) mcapi.Status {
	if c.addStatus != mcapi.StatusOK {
		return c.addStatus
	}
	st := c.HashCtx.DataAdd(data)
	if c.mutateInput && len(data) > 0 {
		data[0] ^= 0x01
	}
	return st
}

func (c *tamperHash) Finalize(digest []byte) mcapi.Status {
	st := c.HashCtx.Finalize(digest)
	if c.flipDigest {
		digest[0] ^= 0x80
	}
	return st
}

type stuckRNG struct{ mcapi.RNGCtx }

func (stuckRNG) BlockGenerate([]byte) mcapi.Status { return mcapi.StatusOK }

// addCTR "encrypts" by adding one to every byte, which is not self-inverse.
type addCTR struct{ mcapi.AESCtx }

func (addCTR) CTREncrypt(out, in []byte) mcapi.Status {
	for i := range in {
		out[i] = in[i] + 1
	}
	return mcapi.StatusOK
}

type addStream struct{}

func (addStream) XORKeyStream(dst, src []byte) {
	for i := range src {
		dst[i] = src[i] + 1
	}
}

type faultProvider struct {
	mcapi.Soft
	md5             tamperHash
	rngStuck        bool
	aesKeyStatus    mcapi.Status
	ctrAdd          bool
	tdesDecryptFlip bool
	aesDecryptFlip  bool
	compressStatus  mcapi.Status
	compressTrim    int
	inflateFlip     bool
	// inflateFailOn is the 1-based HuffmanDecompress call that fails;
	// inflateCalls must be set with it.
	inflateFailOn int
	inflateCalls  *int
}

func (p faultProvider) NewMD5() mcapi.HashCtx {
	t := p.md5
	t.HashCtx = p.Soft.NewMD5()
	return &t
}

func (p faultProvider) NewRNG() mcapi.RNGCtx {
	if p.rngStuck {
		return stuckRNG{p.Soft.NewRNG()}
	}
	return p.Soft.NewRNG()
}

func (p faultProvider) NewAES() mcapi.AESCtx {
	ctx := p.Soft.NewAES()
	if p.aesKeyStatus != mcapi.StatusOK {
		return failingKeySet{AESCtx: ctx, st: p.aesKeyStatus}
	}
	if p.ctrAdd {
		return addCTR{ctx}
	}
	if p.aesDecryptFlip {
		return flipAESDecrypt{ctx}
	}
	return ctx
}

func (p faultProvider) NewTDES() mcapi.TDESCtx {
	ctx := p.Soft.NewTDES()
	if p.tdesDecryptFlip {
		return flipTDESDecrypt{ctx}
	}
	return ctx
}

// flipTDESDecrypt and flipAESDecrypt corrupt the first plaintext byte.
type flipTDESDecrypt struct{ mcapi.TDESCtx }

func (c flipTDESDecrypt) CBCDecrypt(out, in []byte) mcapi.Status {
	st := c.TDESCtx.CBCDecrypt(out, in)
	out[0] ^= 0x01
	return st
}

type flipAESDecrypt struct{ mcapi.AESCtx }

func (c flipAESDecrypt) CBCDecrypt(out, in []byte) mcapi.Status {
	st := c.AESCtx.CBCDecrypt(out, in)
	out[0] ^= 0x01
	return st
}

type failingKeySet struct {
	mcapi.AESCtx
	st mcapi.Status
}

func (c failingKeySet) KeySet([]byte, []byte, mcapi.Direction) mcapi.Status { return c.st }

func (p faultProvider) HuffmanCompress(out, in []byte, flags uint32) int {
	if p.compressStatus != mcapi.StatusOK {
		return int(p.compressStatus)
	}
	return p.Soft.HuffmanCompress(out, in, flags) - p.compressTrim
}

func (p faultProvider) HuffmanDecompress(out, in []byte) int {
	if p.inflateCalls != nil {
		*p.inflateCalls++
		if *p.inflateCalls == p.inflateFailOn {
			return int(mcapi.StatusDecompress)
		}
	}
	n := p.Soft.HuffmanDecompress(out, in)
	if p.inflateFlip && n > 0 {
		out[0] ^= 0x01
	}
	return n
}

type faultReference struct {
	reference.Impl
	hashErr        error
	compressErr    error
	randomErr      error
	ctrAdd         bool
	cbcDecryptFlip bool
}

func (r faultReference) NewHash(h crypto.Hash) (hash.Hash, error) {
	if r.hashErr != nil {
		return nil, r.hashErr
	}
	return r.Impl.NewHash(h)
}

func (r faultReference) NewCBC(c reference.BlockCipher, key, iv []byte, decrypt bool) (cipher.BlockMode, error) {
	mode, err := r.Impl.NewCBC(c, key, iv, decrypt)
	if err != nil || !decrypt || !r.cbcDecryptFlip {
		return mode, err
	}
	return flipMode{mode}, nil
}

type flipMode struct{ cipher.BlockMode }

func (m flipMode) CryptBlocks(dst, src []byte) {
	m.BlockMode.CryptBlocks(dst, src)
	dst[0] ^= 0x01
}

func (r faultReference) NewCTR(key, iv []byte) (cipher.Stream, error) {
	if r.ctrAdd {
		return addStream{}, nil
	}
	return r.Impl.NewCTR(key, iv)
}

func (r faultReference) Compress(dst, src []byte, m reference.Mode) (int, error) {
	if r.compressErr != nil {
		return 0, r.compressErr
	}
	return r.Impl.Compress(dst, src, m)
}

func (r faultReference) Random(p []byte) error {
	if r.randomErr != nil {
		return r.randomErr
	}
	return r.Impl.Random(p)
}

func mustFixture(t *testing.T) *Fixture {
	t.Helper()
	f, err := NewFixture(nil)
	if err != nil {
		t.Fatalf("NewFixture: %v", err)
	}
	t.Cleanup(f.Teardown)
	return f
}
