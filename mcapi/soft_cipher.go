package mcapi

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
)

// The soft engine keeps only the raw block transform from the standard
// library, the way device accelerators expose ECB blocks. Chaining, the IV
// register and CTR keystream bookkeeping live here.

type softTDES struct {
	block cipher.Block
	reg   [TDESBlockSize]byte
	dir   Direction
}

func (c *softTDES) KeySet(key, iv []byte, dir Direction) Status {
	if len(key) != TDESKeySize || !validDirection(dir) {
		return StatusBadArg
	}
	if len(iv) != 0 && len(iv) < TDESBlockSize {
		return StatusBadArg
	}
	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return StatusBadArg
	}
	c.block = block
	c.dir = dir
	c.reg = [TDESBlockSize]byte{}
	copy(c.reg[:], iv)
	return StatusOK
}

func (c *softTDES) CBCEncrypt(out, in []byte) Status {
	if c.block == nil {
		return StatusBadState
	}
	if c.dir != Encryption {
		return StatusBadState
	}
	return cbcEncrypt(c.block, c.reg[:], out, in)
}

func (c *softTDES) CBCDecrypt(out, in []byte) Status {
	if c.block == nil {
		return StatusBadState
	}
	if c.dir != Decryption {
		return StatusBadState
	}
	return cbcDecrypt(c.block, c.reg[:], out, in)
}

type softAES struct {
	block cipher.Block
	reg   [AESBlockSize]byte
	ks    [AESBlockSize]byte // current CTR keystream block
	left  int                // unused bytes at the end of ks
	dir   Direction
}

func (c *softAES) KeySet(key, iv []byte, dir Direction) Status {
	switch len(key) {
	case 16, 24, 32:
	default:
		return StatusBadArg
	}
	if !validDirection(dir) {
		return StatusBadArg
	}
	if len(iv) != 0 && len(iv) < AESBlockSize {
		return StatusBadArg
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return StatusBadArg
	}
	c.block = block
	c.dir = dir
	c.reg = [AESBlockSize]byte{}
	copy(c.reg[:], iv)
	c.ks = [AESBlockSize]byte{}
	c.left = 0
	return StatusOK
}

func (c *softAES) CBCEncrypt(out, in []byte) Status {
	if c.block == nil || c.dir != Encryption {
		return StatusBadState
	}
	return cbcEncrypt(c.block, c.reg[:], out, in)
}

func (c *softAES) CBCDecrypt(out, in []byte) Status {
	if c.block == nil || c.dir != Decryption {
		return StatusBadState
	}
	return cbcDecrypt(c.block, c.reg[:], out, in)
}

// CTREncrypt XORs in with the keystream. The counter is the whole 128-bit
// register, big-endian, and partial blocks carry over between calls.
func (c *softAES) CTREncrypt(out, in []byte) Status {
	if c.block == nil || c.dir != Encryption {
		return StatusBadState
	}
	if len(out) < len(in) {
		return StatusBuffer
	}
	for i := range in {
		if c.left == 0 {
			c.block.Encrypt(c.ks[:], c.reg[:])
			incrementCounter(c.reg[:])
			c.left = AESBlockSize
		}
		out[i] = in[i] ^ c.ks[AESBlockSize-c.left]
		c.left--
	}
	return StatusOK
}

func validDirection(dir Direction) bool {
	return dir == Encryption || dir == Decryption
}

func cbcEncrypt(b cipher.Block, reg, out, in []byte) Status {
	bs := b.BlockSize()
	if len(in)%bs != 0 || len(out) < len(in) {
		return StatusBuffer
	}
	for i := 0; i < len(in); i += bs {
		for k := 0; k < bs; k++ {
			reg[k] ^= in[i+k]
		}
		b.Encrypt(reg, reg)
		copy(out[i:i+bs], reg)
	}
	return StatusOK
}

func cbcDecrypt(b cipher.Block, reg, out, in []byte) Status {
	bs := b.BlockSize()
	if len(in)%bs != 0 || len(out) < len(in) {
		return StatusBuffer
	}
	var saved [AESBlockSize]byte
	ct := saved[:bs]
	for i := 0; i < len(in); i += bs {
		// in and out may alias
		copy(ct, in[i:i+bs])
		b.Decrypt(out[i:i+bs], ct)
		for k := 0; k < bs; k++ {
			out[i+k] ^= reg[k]
		}
		copy(reg, ct)
	}
	return StatusOK
}

func incrementCounter(ctr []byte) {
	for i := len(ctr) - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}
