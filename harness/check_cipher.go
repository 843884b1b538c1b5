package harness

import (
	"crypto/cipher"
	"fmt"

	"github.com/ikudriavtsev/cyassl/mcapi"
	"github.com/ikudriavtsev/cyassl/reference"
)

// Cipher material. AES cases use the first 16, 24 or 32 key bytes.
var (
	TDESKey = []byte("1234567890abcdefghijklmn")
	TDESIV  = []byte("12345678")
	AESKey  = []byte("1234567890abcdefghijklmnopqrstuv")
	AESIV   = []byte("1234567890abcdef")
)

// CipherTestSize is the number of corpus bytes each cipher case encrypts.
const CipherTestSize = 32

// AESKeySizes are the key lengths exercised by the AES families.
var AESKeySizes = []int{16, 24, 32}

// blockCtx is the part of the provider TDES and AES contexts the CBC cases
// use.
type blockCtx interface {
	KeySet(key, iv []byte, dir mcapi.Direction) mcapi.Status
	CBCEncrypt(out, in []byte) mcapi.Status
	CBCDecrypt(out, in []byte) mcapi.Status
}

type cbcCheck struct {
	family Family
	cipher reference.BlockCipher
	newCtx func() blockCtx
	ref    Reference
}

func NewTDESCheck(p mcapi.Provider, r Reference) Check {
	return &cbcCheck{
		family: FamilyTDES,
		cipher: reference.TDES,
		newCtx: func() blockCtx { return p.NewTDES() },
		ref:    r,
	}
}

func NewAESCBCCheck(p mcapi.Provider, r Reference) Check {
	return &cbcCheck{
		family: FamilyAESCBC,
		cipher: reference.AES,
		newCtx: func() blockCtx { return p.NewAES() },
		ref:    r,
	}
}

func (c *cbcCheck) Family() Family { return c.family }

type cipherMaterial struct {
	name string
	key  []byte
	iv   []byte
}

func (c *cbcCheck) materials() []cipherMaterial {
	if c.cipher == reference.TDES {
		return []cipherMaterial{{"tdes cbc", TDESKey, TDESIV}}
	}
	var ms []cipherMaterial
	for _, n := range AESKeySizes {
		ms = append(ms, cipherMaterial{fmt.Sprintf("aes-%d cbc", n*8), AESKey[:n], AESIV})
	}
	return ms
}

func (c *cbcCheck) Run(f *Fixture) Result {
	s := newSequence(c.family)
	for _, m := range c.materials() {
		p, ok := s.load(f, m.name, OpEncrypt, Material{Key: m.key, IV: m.iv, InputLen: CipherTestSize})
		if !ok {
			break
		}
		ct := s.run(Case{
			Family:    c.family,
			Name:      m.name,
			Op:        OpEncrypt,
			OutLen:    CipherTestSize,
			Provider:  c.providerSide(m.name, mcapi.Encryption),
			Reference: c.referenceSide(false),
		}, p)
		if s.failed() {
			break
		}
		// Both sides decrypt the provider ciphertext, which matched the
		// reference ciphertext byte for byte.
		dp := Params{Input: ct, Key: p.Key, IV: p.IV}
		s.run(Case{
			Family:    c.family,
			Name:      m.name,
			Op:        OpDecrypt,
			OutLen:    CipherTestSize,
			Provider:  c.providerSide(m.name, mcapi.Decryption),
			Reference: c.referenceSide(true),
			Expect:    p.Input,
		}, dp)
		if s.failed() {
			break
		}
	}
	return s.result()
}

func (c *cbcCheck) providerSide(name string, dir mcapi.Direction) Fn {
	return func(p Params) ([]byte, error) {
		ctx := c.newCtx()
		if err := ctx.KeySet(p.Key, p.IV, dir).Err(name + " key set"); err != nil {
			return nil, setupErr("key set", err)
		}
		out := make([]byte, len(p.Input))
		var st mcapi.Status
		if dir == mcapi.Encryption {
			st = ctx.CBCEncrypt(out, p.Input)
		} else {
			st = ctx.CBCDecrypt(out, p.Input)
		}
		if err := st.Err(name + " " + dirOp(dir)); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (c *cbcCheck) referenceSide(decrypt bool) Fn {
	return func(p Params) ([]byte, error) {
		mode, err := c.ref.NewCBC(c.cipher, p.Key, p.IV, decrypt)
		if err != nil {
			return nil, setupErr("key set", err)
		}
		return cryptBlocks(mode, p.Input)
	}
}

func cryptBlocks(mode cipher.BlockMode, in []byte) ([]byte, error) {
	if len(in)%mode.BlockSize() != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of %d", len(in), mode.BlockSize())
	}
	out := make([]byte, len(in))
	mode.CryptBlocks(out, in)
	return out, nil
}

func dirOp(dir mcapi.Direction) string {
	if dir == mcapi.Decryption {
		return string(OpDecrypt)
	}
	return string(OpEncrypt)
}

type ctrCheck struct {
	p   mcapi.Provider
	ref Reference
}

func NewAESCTRCheck(p mcapi.Provider, r Reference) Check {
	return &ctrCheck{p: p, ref: r}
}

func (c *ctrCheck) Family() Family { return FamilyAESCTR }

// Run encrypts with both sides and compares, then re-keys each side in the
// encryption direction and applies CTR to the ciphertext again, which must
// give back the plaintext.
func (c *ctrCheck) Run(f *Fixture) Result {
	s := newSequence(FamilyAESCTR)
	for _, n := range AESKeySizes {
		name := fmt.Sprintf("aes-%d ctr", n*8)
		p, ok := s.load(f, name, OpEncrypt, Material{Key: AESKey[:n], IV: AESIV, InputLen: CipherTestSize})
		if !ok {
			break
		}
		ct := s.run(Case{
			Family:    FamilyAESCTR,
			Name:      name,
			Op:        OpEncrypt,
			OutLen:    CipherTestSize,
			Provider:  c.providerSide(name, OpEncrypt),
			Reference: c.referenceSide,
		}, p)
		if s.failed() {
			break
		}
		s.run(Case{
			Family:    FamilyAESCTR,
			Name:      name,
			Op:        OpDecrypt,
			OutLen:    CipherTestSize,
			Provider:  c.providerSide(name, OpDecrypt),
			Reference: c.referenceSide,
			Expect:    p.Input,
		}, Params{Input: ct, Key: p.Key, IV: p.IV})
		if s.failed() {
			break
		}
	}
	return s.result()
}

func (c *ctrCheck) providerSide(name string, op Op) Fn {
	return func(p Params) ([]byte, error) {
		ctx := c.p.NewAES()
		if err := ctx.KeySet(p.Key, p.IV, mcapi.Encryption).Err(name + " key set"); err != nil {
			return nil, setupErr("key set", err)
		}
		out := make([]byte, len(p.Input))
		if err := ctx.CTREncrypt(out, p.Input).Err(name + " " + string(op)); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (c *ctrCheck) referenceSide(p Params) ([]byte, error) {
	stream, err := c.ref.NewCTR(p.Key, p.IV)
	if err != nil {
		return nil, setupErr("key set", err)
	}
	out := make([]byte, len(p.Input))
	stream.XORKeyStream(out, p.Input)
	return out, nil
}
