package mcapi

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ikudriavtsev/cyassl/zfixed"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestSoftHashKnownVectors(t *testing.T) {
	p := Soft{}
	cases := []struct {
		name string
		ctx  HashCtx
		size int
		want string
	}{
		{"md5", p.NewMD5(), MD5DigestSize, "900150983cd24fb0d6963f7d28e17f72"},
		{"sha", p.NewSHA(), SHADigestSize, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", p.NewSHA256(), SHA256DigestSize, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tc := range cases {
		digest := make([]byte, tc.size)
		if st := tc.ctx.Initialize(); !st.OK() {
			t.Fatalf("%s initialize: %d", tc.name, st)
		}
		if st := tc.ctx.DataAdd([]byte("abc")); !st.OK() {
			t.Fatalf("%s data add: %d", tc.name, st)
		}
		if st := tc.ctx.Finalize(digest); !st.OK() {
			t.Fatalf("%s finalize: %d", tc.name, st)
		}
		if got := hex.EncodeToString(digest); got != tc.want {
			t.Fatalf("%s digest mismatch: got=%s want=%s", tc.name, got, tc.want)
		}
	}
}

func TestSoftHashFinalizeReinitializes(t *testing.T) {
	ctx := Soft{}.NewSHA512()
	ctx.Initialize()
	ctx.DataAdd([]byte("first"))
	first := make([]byte, SHA512DigestSize)
	ctx.Finalize(first)

	ctx.DataAdd([]byte("first"))
	second := make([]byte, SHA512DigestSize)
	if st := ctx.Finalize(second); !st.OK() {
		t.Fatalf("finalize after finalize: %d", st)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("context was not reset by Finalize")
	}
}

func TestSoftHashStatusCodes(t *testing.T) {
	ctx := Soft{}.NewSHA384()
	if st := ctx.DataAdd([]byte("x")); st != StatusBadState {
		t.Fatalf("data add before initialize: got %d want %d", st, StatusBadState)
	}
	ctx.Initialize()
	if st := ctx.Finalize(make([]byte, SHA384DigestSize-1)); st != StatusBuffer {
		t.Fatalf("short digest buffer: got %d want %d", st, StatusBuffer)
	}
}

func TestSoftHMACJefe(t *testing.T) {
	msg := []byte("what do ya want for nothing?")
	cases := []struct {
		alg  HashAlg
		want string
	}{
		{HashSHA, "effcdf6ae5eb2fa2d27416d5f184df9c259a7c79"},
		{HashSHA256, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"},
	}
	for _, tc := range cases {
		ctx := Soft{}.NewHMAC()
		if st := ctx.SetKey(tc.alg, []byte("Jefe")); !st.OK() {
			t.Fatalf("set key %d: %d", tc.alg, st)
		}
		ctx.DataAdd(msg)
		digest := make([]byte, tc.alg.DigestSize())
		if st := ctx.Finalize(digest); !st.OK() {
			t.Fatalf("finalize %d: %d", tc.alg, st)
		}
		if got := hex.EncodeToString(digest); got != tc.want {
			t.Fatalf("hmac %d mismatch: got=%s want=%s", tc.alg, got, tc.want)
		}
	}
}

func TestSoftHMACRejectsUnknownType(t *testing.T) {
	ctx := Soft{}.NewHMAC()
	if st := ctx.SetKey(HashAlg(3), []byte("Jefe")); st != StatusBadArg {
		t.Fatalf("unknown type: got %d want %d", st, StatusBadArg)
	}
	if st := ctx.SetKey(HashMD5, []byte("Jefe")); st != StatusBadArg {
		t.Fatalf("md5 is not an hmac type: got %d", st)
	}
	if st := ctx.DataAdd(nil); st != StatusBadState {
		t.Fatalf("data add without key: got %d", st)
	}
}

func TestSoftAESCBCKnownVector(t *testing.T) {
	key := mustHex("2b7e151628aed2a6abf7158809cf4f3c")
	iv := mustHex("000102030405060708090a0b0c0d0e0f")
	pt := mustHex("6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51")
	want := mustHex("7649abac8119b246cee98e9b12e9197d5086cb9b507219ee95db113a917678b2")

	ctx := Soft{}.NewAES()
	if st := ctx.KeySet(key, iv, Encryption); !st.OK() {
		t.Fatalf("key set: %d", st)
	}
	// two calls chain through the IV register
	ct := make([]byte, len(pt))
	ctx.CBCEncrypt(ct[:16], pt[:16])
	ctx.CBCEncrypt(ct[16:], pt[16:])
	if !bytes.Equal(ct, want) {
		t.Fatalf("ciphertext mismatch:\n got %x\nwant %x", ct, want)
	}

	if st := ctx.KeySet(key, iv, Decryption); !st.OK() {
		t.Fatalf("key set decrypt: %d", st)
	}
	// in place
	if st := ctx.CBCDecrypt(ct, ct); !st.OK() {
		t.Fatalf("decrypt: %d", st)
	}
	if !bytes.Equal(ct, pt) {
		t.Fatalf("plaintext mismatch:\n got %x\nwant %x", ct, pt)
	}
}

func TestSoftAESCTRKnownVectorAndCarryOver(t *testing.T) {
	key := mustHex("2b7e151628aed2a6abf7158809cf4f3c")
	ctr := mustHex("f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff")
	pt := mustHex("6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51")
	want := mustHex("874d6191b620e3261bef6864990db6ce9806f66b7970fdff8617187bb9fffdff")

	ctx := Soft{}.NewAES()
	ctx.KeySet(key, ctr, Encryption)
	ct := make([]byte, len(pt))
	// split off block boundaries
	ctx.CTREncrypt(ct[:5], pt[:5])
	ctx.CTREncrypt(ct[5:21], pt[5:21])
	ctx.CTREncrypt(ct[21:], pt[21:])
	if !bytes.Equal(ct, want) {
		t.Fatalf("ctr mismatch:\n got %x\nwant %x", ct, want)
	}

	ctx.KeySet(key, ctr, Encryption)
	back := make([]byte, len(ct))
	ctx.CTREncrypt(back, ct)
	if !bytes.Equal(back, pt) {
		t.Fatalf("ctr is not self-inverse")
	}
}

func TestSoftCounterWraps(t *testing.T) {
	c := bytes.Repeat([]byte{0xff}, AESBlockSize)
	incrementCounter(c)
	if !bytes.Equal(c, make([]byte, AESBlockSize)) {
		t.Fatalf("counter did not wrap: %x", c)
	}
}

func TestSoftCipherStatusCodes(t *testing.T) {
	aes := Soft{}.NewAES()
	if st := aes.CBCEncrypt(make([]byte, 16), make([]byte, 16)); st != StatusBadState {
		t.Fatalf("encrypt before key set: %d", st)
	}
	if st := aes.KeySet(make([]byte, 15), nil, Encryption); st != StatusBadArg {
		t.Fatalf("15 byte key: %d", st)
	}
	if st := aes.KeySet(make([]byte, 16), make([]byte, 4), Encryption); st != StatusBadArg {
		t.Fatalf("short iv: %d", st)
	}
	if st := aes.KeySet(make([]byte, 16), nil, Direction(7)); st != StatusBadArg {
		t.Fatalf("bad direction: %d", st)
	}
	aes.KeySet(make([]byte, 32), nil, Encryption)
	if st := aes.CBCEncrypt(make([]byte, 16), make([]byte, 15)); st != StatusBuffer {
		t.Fatalf("unaligned input: %d", st)
	}
	if st := aes.CBCDecrypt(make([]byte, 16), make([]byte, 16)); st != StatusBadState {
		t.Fatalf("decrypt on encryption key: %d", st)
	}
	aes.KeySet(make([]byte, 32), nil, Decryption)
	if st := aes.CTREncrypt(make([]byte, 16), make([]byte, 16)); st != StatusBadState {
		t.Fatalf("ctr on decryption key: %d", st)
	}

	tdes := Soft{}.NewTDES()
	if st := tdes.KeySet(make([]byte, 16), nil, Encryption); st != StatusBadArg {
		t.Fatalf("16 byte tdes key: %d", st)
	}
	tdes.KeySet([]byte("1234567890abcdefghijklmn"), []byte("12345678"), Encryption)
	if st := tdes.CBCEncrypt(make([]byte, 8), make([]byte, 16)); st != StatusBuffer {
		t.Fatalf("short output: %d", st)
	}
}

func TestSoftTDESRoundTrip(t *testing.T) {
	key := []byte("1234567890abcdefghijklmn")
	iv := []byte("12345678")
	pt := make([]byte, 32)
	for i := range pt {
		pt[i] = byte(i)
	}
	ctx := Soft{}.NewTDES()
	ctx.KeySet(key, iv, Encryption)
	ct := make([]byte, len(pt))
	if st := ctx.CBCEncrypt(ct, pt); !st.OK() {
		t.Fatalf("encrypt: %d", st)
	}
	if bytes.Equal(ct, pt) {
		t.Fatalf("ciphertext equals plaintext")
	}
	ctx.KeySet(key, iv, Decryption)
	back := make([]byte, len(ct))
	if st := ctx.CBCDecrypt(back, ct); !st.OK() {
		t.Fatalf("decrypt: %d", st)
	}
	if !bytes.Equal(back, pt) {
		t.Fatalf("round trip mismatch")
	}
}

func TestSoftHuffmanRoundTrip(t *testing.T) {
	p := Soft{}
	text := bytes.Repeat([]byte("four loko whatever street art yr farm-to-table. "), 16)
	for _, flags := range []uint32{HuffmanDynamic, HuffmanStatic} {
		c := make([]byte, 1024)
		n := p.HuffmanCompress(c, text, flags)
		if n <= 0 {
			t.Fatalf("flags %d: compress returned %d", flags, n)
		}
		d := make([]byte, 1024)
		m := p.HuffmanDecompress(d, c[:n])
		if m != len(text) {
			t.Fatalf("flags %d: decompress returned %d want %d", flags, m, len(text))
		}
		if !bytes.Equal(d[:m], text) {
			t.Fatalf("flags %d: round trip mismatch", flags)
		}
	}
}

func TestSoftHuffmanBlockTypes(t *testing.T) {
	text := []byte("Typewriter culpa try-hard, pariatur sint brooklyn meggings. Gentrify\n")
	c := make([]byte, 1024)
	n := Soft{}.HuffmanCompress(c, text, HuffmanStatic)
	if n <= 0 {
		t.Fatalf("static compress returned %d", n)
	}
	if got := zfixed.FirstBlockType(c[:n]); got != zfixed.BlockFixed {
		t.Fatalf("static first block type = %d, want fixed", got)
	}
	if !bytes.Equal(c[:n], zfixed.Encode(text)) {
		t.Fatalf("static stream differs from the fixed-table encoding")
	}
}

func TestSoftHuffmanStatusCodes(t *testing.T) {
	p := Soft{}
	text := bytes.Repeat([]byte{'a'}, 600)
	if n := p.HuffmanCompress(make([]byte, 1024), text, 9); n != int(StatusBadArg) {
		t.Fatalf("unknown flags: %d", n)
	}
	if n := p.HuffmanCompress(make([]byte, 2), text, HuffmanDynamic); n != int(StatusBuffer) {
		t.Fatalf("tiny output buffer: %d", n)
	}
	c := make([]byte, 1024)
	n := p.HuffmanCompress(c, text, HuffmanDynamic)
	if m := p.HuffmanDecompress(make([]byte, 100), c[:n]); m != int(StatusBuffer) {
		t.Fatalf("decompress into short buffer: %d", m)
	}
	if m := p.HuffmanDecompress(make([]byte, 1024), []byte("not a zlib stream")); m >= 0 {
		t.Fatalf("garbage input decompressed to %d bytes", m)
	}
	c[n-1] ^= 0xff // adler32 trailer
	if m := p.HuffmanDecompress(make([]byte, 1024), c[:n]); m >= 0 {
		t.Fatalf("corrupted checksum accepted: %d", m)
	}
}

func TestSoftRNG(t *testing.T) {
	rng := Soft{Entropy: bytes.NewReader(bytes.Repeat([]byte{0x42}, 64))}.NewRNG()
	if st := rng.BlockGenerate(make([]byte, 4)); st != StatusBadState {
		t.Fatalf("generate before initialize: %d", st)
	}
	if st := rng.Initialize(); !st.OK() {
		t.Fatalf("initialize: %d", st)
	}
	var b byte
	if st := rng.Get(&b); !st.OK() {
		t.Fatalf("get: %d", st)
	}
	if st := rng.Get(nil); st != StatusBadArg {
		t.Fatalf("get nil: %d", st)
	}
	out := make([]byte, 32)
	if st := rng.BlockGenerate(out); !st.OK() {
		t.Fatalf("block generate: %d", st)
	}
	if bytes.Equal(out, make([]byte, 32)) {
		t.Fatalf("generator produced zeros")
	}
}

func TestSoftRNGEntropyFailure(t *testing.T) {
	rng := Soft{Entropy: errReader{errors.New("no entropy")}}.NewRNG()
	if st := rng.Initialize(); st != StatusRNGFailure {
		t.Fatalf("initialize with failing entropy: got %d want %d", st, StatusRNGFailure)
	}
}

func TestSoftRNGReseeds(t *testing.T) {
	entropy := bytes.NewReader(bytes.Repeat([]byte{0x01}, 2*(32+12)))
	c := Soft{Entropy: entropy}.NewRNG().(*softRNG)
	c.Initialize()
	c.generated = rngReseedInterval
	if st := c.BlockGenerate(make([]byte, 1)); !st.OK() {
		t.Fatalf("generate across reseed: %d", st)
	}
	if c.generated != 1 {
		t.Fatalf("reseed did not reset counter: %d", c.generated)
	}
	if entropy.Len() != 0 {
		t.Fatalf("reseed did not draw entropy")
	}
}
