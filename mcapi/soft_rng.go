package mcapi

import (
	"io"

	"golang.org/x/crypto/chacha20"
)

// Generated bytes between reseeds from the entropy source.
const rngReseedInterval = 1 << 20

// softRNG is a ChaCha20 keystream generator keyed from the entropy source.
type softRNG struct {
	entropy   io.Reader
	stream    *chacha20.Cipher
	generated int
}

func (c *softRNG) Initialize() Status {
	var seed [chacha20.KeySize + chacha20.NonceSize]byte
	defer clear(seed[:])
	if _, err := io.ReadFull(c.entropy, seed[:]); err != nil {
		return StatusRNGFailure
	}
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:chacha20.KeySize], seed[chacha20.KeySize:])
	if err != nil {
		return StatusRNGFailure
	}
	c.stream = stream
	c.generated = 0
	return StatusOK
}

func (c *softRNG) Get(out *byte) Status {
	if out == nil {
		return StatusBadArg
	}
	var b [1]byte
	if st := c.BlockGenerate(b[:]); !st.OK() {
		return st
	}
	*out = b[0]
	return StatusOK
}

func (c *softRNG) BlockGenerate(out []byte) Status {
	if c.stream == nil {
		return StatusBadState
	}
	if c.generated+len(out) > rngReseedInterval {
		if st := c.Initialize(); !st.OK() {
			return st
		}
	}
	clear(out)
	c.stream.XORKeyStream(out, out)
	c.generated += len(out)
	return StatusOK
}
