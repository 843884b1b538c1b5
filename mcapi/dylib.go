//go:build mcapi_dylib

package mcapi

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef int32_t (*mcapi_hash_fn)(int32_t, const uint8_t*, size_t, uint8_t*, size_t);
typedef int32_t (*mcapi_hmac_fn)(int32_t, const uint8_t*, size_t, const uint8_t*, size_t, uint8_t*, size_t);
typedef int32_t (*mcapi_cipher_fn)(int32_t, const uint8_t*, size_t, const uint8_t*, const uint8_t*, uint8_t*, size_t);
typedef int32_t (*mcapi_ctr_fn)(const uint8_t*, size_t, const uint8_t*, const uint8_t*, uint8_t*, size_t);
typedef int32_t (*mcapi_zip_fn)(uint8_t*, size_t, const uint8_t*, size_t, uint32_t);
typedef int32_t (*mcapi_rng_fn)(uint8_t*, size_t);

typedef struct {
	void* handle;
	mcapi_hash_fn hash;
	mcapi_hmac_fn hmac;
	mcapi_cipher_fn tdes_cbc;
	mcapi_cipher_fn aes_cbc;
	mcapi_ctr_fn aes_ctr;
	mcapi_zip_fn compress;
	mcapi_zip_fn decompress;
	mcapi_rng_fn rng_block;
} mcapi_shim_t;

static int mcapi_shim_load(mcapi_shim_t* p, const char* path) {
	p->handle = dlopen(path, RTLD_LAZY);
	if (!p->handle) return -1;

	p->hash = (mcapi_hash_fn)dlsym(p->handle, "mcapi_shim_hash");
	p->hmac = (mcapi_hmac_fn)dlsym(p->handle, "mcapi_shim_hmac");
	p->tdes_cbc = (mcapi_cipher_fn)dlsym(p->handle, "mcapi_shim_tdes_cbc");
	p->aes_cbc = (mcapi_cipher_fn)dlsym(p->handle, "mcapi_shim_aes_cbc");
	p->aes_ctr = (mcapi_ctr_fn)dlsym(p->handle, "mcapi_shim_aes_ctr");
	p->compress = (mcapi_zip_fn)dlsym(p->handle, "mcapi_shim_huffman_compress");
	p->decompress = (mcapi_zip_fn)dlsym(p->handle, "mcapi_shim_huffman_decompress");
	p->rng_block = (mcapi_rng_fn)dlsym(p->handle, "mcapi_shim_rng_block");

	if (!p->hash || !p->hmac || !p->tdes_cbc || !p->aes_cbc || !p->aes_ctr ||
	    !p->compress || !p->decompress || !p->rng_block) {
		dlclose(p->handle);
		p->handle = NULL;
		return -2;
	}
	return 0;
}

static int32_t mcapi_shim_hash_call(mcapi_shim_t* p, int32_t alg, const uint8_t* in, size_t in_len, uint8_t* out, size_t out_len) {
	return p->hash(alg, in, in_len, out, out_len);
}

static int32_t mcapi_shim_hmac_call(mcapi_shim_t* p, int32_t alg, const uint8_t* key, size_t key_len,
	const uint8_t* in, size_t in_len, uint8_t* out, size_t out_len) {
	return p->hmac(alg, key, key_len, in, in_len, out, out_len);
}

static int32_t mcapi_shim_tdes_cbc_call(mcapi_shim_t* p, int32_t dir, const uint8_t* key, size_t key_len,
	const uint8_t* iv, const uint8_t* in, uint8_t* out, size_t len) {
	return p->tdes_cbc(dir, key, key_len, iv, in, out, len);
}

static int32_t mcapi_shim_aes_cbc_call(mcapi_shim_t* p, int32_t dir, const uint8_t* key, size_t key_len,
	const uint8_t* iv, const uint8_t* in, uint8_t* out, size_t len) {
	return p->aes_cbc(dir, key, key_len, iv, in, out, len);
}

static int32_t mcapi_shim_aes_ctr_call(mcapi_shim_t* p, const uint8_t* key, size_t key_len,
	const uint8_t* ctr, const uint8_t* in, uint8_t* out, size_t len) {
	return p->aes_ctr(key, key_len, ctr, in, out, len);
}

static int32_t mcapi_shim_compress_call(mcapi_shim_t* p, uint8_t* out, size_t out_len, const uint8_t* in, size_t in_len, uint32_t flags) {
	return p->compress(out, out_len, in, in_len, flags);
}

static int32_t mcapi_shim_decompress_call(mcapi_shim_t* p, uint8_t* out, size_t out_len, const uint8_t* in, size_t in_len) {
	return p->decompress(out, out_len, in, in_len, 0);
}

static int32_t mcapi_shim_rng_call(mcapi_shim_t* p, uint8_t* out, size_t len) {
	return p->rng_block(out, len);
}

static void mcapi_shim_close(mcapi_shim_t* p) {
	if (p->handle) {
		dlclose(p->handle);
		p->handle = NULL;
	}
}
*/
import "C"

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/crypto/sha3"
)

// Dylib forwards the provider API to a vendor shim library exposing the
// mcapi_shim_* ABI. The shim is one-shot per call; contexts, IV registers and
// counters are kept on the Go side. After Close every call reaching the shim
// returns StatusUnsupported.
type Dylib struct {
	p    *C.mcapi_shim_t
	path string
}

// LoadDylibFromEnv loads the shim from MCAPI_SHIM_PATH. When
// MCAPI_SHIM_SHA3_256 is set the file must hash to it; MCAPI_STRICT=1 makes
// the pin mandatory.
func LoadDylibFromEnv() (*Dylib, error) {
	path, ok := os.LookupEnv("MCAPI_SHIM_PATH")
	if !ok || path == "" {
		return nil, errors.New("MCAPI_SHIM_PATH is not set")
	}
	if expected := os.Getenv("MCAPI_SHIM_SHA3_256"); expected != "" {
		if err := verifyShimHash(path, expected); err != nil {
			return nil, err
		}
	} else if StrictFromEnv() {
		return nil, errors.New("MCAPI_SHIM_SHA3_256 required when MCAPI_STRICT=1")
	}
	return LoadDylib(path)
}

func verifyShimHash(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	if actual := hex.EncodeToString(h.Sum(nil)); actual != strings.ToLower(expected) {
		return errors.New("mcapi shim hash mismatch (MCAPI_SHIM_SHA3_256)")
	}
	return nil
}

func LoadDylib(path string) (*Dylib, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	p := (*C.mcapi_shim_t)(C.calloc(1, C.size_t(unsafe.Sizeof(C.mcapi_shim_t{}))))
	if p == nil {
		return nil, errors.New("mcapi shim: out of memory")
	}
	if rc := C.mcapi_shim_load(p, cpath); rc != 0 {
		C.free(unsafe.Pointer(p))
		return nil, fmt.Errorf("failed to load mcapi shim %s: rc=%d", path, int(rc))
	}
	return &Dylib{p: p, path: path}, nil
}

// Close releases the library handle. Contexts created from d must not be
// used afterwards.
func (d *Dylib) Close() {
	if d.p == nil {
		return
	}
	C.mcapi_shim_close(d.p)
	C.free(unsafe.Pointer(d.p))
	d.p = nil
}

func (d *Dylib) Name() string { return "dylib:" + d.path }

func (d *Dylib) closed() bool { return d.p == nil }

func (d *Dylib) NewMD5() HashCtx    { return &dylibHash{d: d, alg: HashMD5} }
func (d *Dylib) NewSHA() HashCtx    { return &dylibHash{d: d, alg: HashSHA} }
func (d *Dylib) NewSHA256() HashCtx { return &dylibHash{d: d, alg: HashSHA256} }
func (d *Dylib) NewSHA384() HashCtx { return &dylibHash{d: d, alg: HashSHA384} }
func (d *Dylib) NewSHA512() HashCtx { return &dylibHash{d: d, alg: HashSHA512} }
func (d *Dylib) NewHMAC() HMACCtx   { return &dylibHMAC{d: d} }
func (d *Dylib) NewTDES() TDESCtx   { return &dylibTDES{d: d} }
func (d *Dylib) NewAES() AESCtx     { return &dylibAES{d: d} }
func (d *Dylib) NewRNG() RNGCtx     { return &dylibRNG{d: d} }

func (d *Dylib) HuffmanCompress(out, in []byte, flags uint32) int {
	if d.closed() {
		return int(StatusUnsupported)
	}
	return int(C.mcapi_shim_compress_call(d.p, bufPtr(out), C.size_t(len(out)), bufPtr(in), C.size_t(len(in)), C.uint32_t(flags)))
}

func (d *Dylib) HuffmanDecompress(out, in []byte) int {
	if d.closed() {
		return int(StatusUnsupported)
	}
	return int(C.mcapi_shim_decompress_call(d.p, bufPtr(out), C.size_t(len(out)), bufPtr(in), C.size_t(len(in))))
}

// bufPtr returns nil for empty slices so no zero-length Go pointer crosses
// the boundary.
func bufPtr(b []byte) *C.uint8_t {
	if len(b) == 0 {
		return nil
	}
	return (*C.uint8_t)(unsafe.Pointer(&b[0]))
}

// fitsWord32 guards the shim's word32 length parameters.
func fitsWord32(n int) bool {
	return uint64(n) <= uint64(^uint32(0))
}

type dylibHash struct {
	d    *Dylib
	alg  HashAlg
	buf  []byte
	init bool
}

func (c *dylibHash) Initialize() Status {
	c.buf = c.buf[:0]
	c.init = true
	return StatusOK
}

func (c *dylibHash) DataAdd(data []byte) Status {
	if !c.init {
		return StatusBadState
	}
	if !fitsWord32(len(c.buf) + len(data)) {
		return StatusBadArg
	}
	c.buf = append(c.buf, data...)
	return StatusOK
}

func (c *dylibHash) Finalize(digest []byte) Status {
	if !c.init {
		return StatusBadState
	}
	if len(digest) < c.alg.DigestSize() {
		return StatusBuffer
	}
	if c.d.closed() {
		return StatusUnsupported
	}
	rc := C.mcapi_shim_hash_call(c.d.p, C.int32_t(c.alg), bufPtr(c.buf), C.size_t(len(c.buf)), bufPtr(digest), C.size_t(len(digest)))
	c.buf = c.buf[:0]
	return Status(rc)
}

type dylibHMAC struct {
	d   *Dylib
	alg HashAlg
	key []byte
	buf []byte
}

func (c *dylibHMAC) SetKey(alg HashAlg, key []byte) Status {
	if alg.DigestSize() == 0 || alg == HashMD5 {
		return StatusBadArg
	}
	c.alg = alg
	c.key = append(c.key[:0], key...)
	c.buf = c.buf[:0]
	return StatusOK
}

func (c *dylibHMAC) DataAdd(data []byte) Status {
	if c.alg == 0 {
		return StatusBadState
	}
	if !fitsWord32(len(c.buf) + len(data)) {
		return StatusBadArg
	}
	c.buf = append(c.buf, data...)
	return StatusOK
}

func (c *dylibHMAC) Finalize(digest []byte) Status {
	if c.alg == 0 {
		return StatusBadState
	}
	if len(digest) < c.alg.DigestSize() {
		return StatusBuffer
	}
	if c.d.closed() {
		return StatusUnsupported
	}
	rc := C.mcapi_shim_hmac_call(c.d.p, C.int32_t(c.alg), bufPtr(c.key), C.size_t(len(c.key)),
		bufPtr(c.buf), C.size_t(len(c.buf)), bufPtr(digest), C.size_t(len(digest)))
	c.buf = c.buf[:0]
	return Status(rc)
}

type dylibTDES struct {
	d   *Dylib
	key []byte
	reg [TDESBlockSize]byte
	dir Direction
}

func (c *dylibTDES) KeySet(key, iv []byte, dir Direction) Status {
	if len(key) != TDESKeySize || !validDirection(dir) {
		return StatusBadArg
	}
	if len(iv) != 0 && len(iv) < TDESBlockSize {
		return StatusBadArg
	}
	c.key = append(c.key[:0], key...)
	c.reg = [TDESBlockSize]byte{}
	copy(c.reg[:], iv)
	c.dir = dir
	return StatusOK
}

func (c *dylibTDES) CBCEncrypt(out, in []byte) Status {
	if c.key == nil || c.dir != Encryption {
		return StatusBadState
	}
	return dylibCBC(c.d, false, Encryption, c.key, c.reg[:], out, in, TDESBlockSize)
}

func (c *dylibTDES) CBCDecrypt(out, in []byte) Status {
	if c.key == nil || c.dir != Decryption {
		return StatusBadState
	}
	return dylibCBC(c.d, false, Decryption, c.key, c.reg[:], out, in, TDESBlockSize)
}

type dylibAES struct {
	d    *Dylib
	key  []byte
	reg  [AESBlockSize]byte
	ks   [AESBlockSize]byte
	left int
	dir  Direction
}

func (c *dylibAES) KeySet(key, iv []byte, dir Direction) Status {
	switch len(key) {
	case 16, 24, 32:
	default:
		return StatusBadArg
	}
	if !validDirection(dir) || (len(iv) != 0 && len(iv) < AESBlockSize) {
		return StatusBadArg
	}
	c.key = append(c.key[:0], key...)
	c.reg = [AESBlockSize]byte{}
	copy(c.reg[:], iv)
	c.ks = [AESBlockSize]byte{}
	c.left = 0
	c.dir = dir
	return StatusOK
}

func (c *dylibAES) CBCEncrypt(out, in []byte) Status {
	if c.key == nil || c.dir != Encryption {
		return StatusBadState
	}
	return dylibCBC(c.d, true, Encryption, c.key, c.reg[:], out, in, AESBlockSize)
}

func (c *dylibAES) CBCDecrypt(out, in []byte) Status {
	if c.key == nil || c.dir != Decryption {
		return StatusBadState
	}
	return dylibCBC(c.d, true, Decryption, c.key, c.reg[:], out, in, AESBlockSize)
}

// CTREncrypt runs whole blocks through the shim and keeps the unused tail
// of the last keystream block for the next call.
func (c *dylibAES) CTREncrypt(out, in []byte) Status {
	if c.key == nil || c.dir != Encryption {
		return StatusBadState
	}
	if len(out) < len(in) {
		return StatusBuffer
	}
	if !fitsWord32(len(in)) {
		return StatusBadArg
	}
	if c.d.closed() {
		return StatusUnsupported
	}
	n := 0
	for ; n < len(in) && c.left > 0; n++ {
		out[n] = in[n] ^ c.ks[AESBlockSize-c.left]
		c.left--
	}
	if full := (len(in) - n) / AESBlockSize * AESBlockSize; full > 0 {
		if st := c.ctr(out[n:n+full], in[n:n+full]); !st.OK() {
			return st
		}
		n += full
	}
	if n < len(in) {
		var zero [AESBlockSize]byte
		if st := c.ctr(c.ks[:], zero[:]); !st.OK() {
			return st
		}
		c.left = AESBlockSize
		for ; n < len(in); n++ {
			out[n] = in[n] ^ c.ks[AESBlockSize-c.left]
			c.left--
		}
	}
	return StatusOK
}

// ctr applies the shim's CTR mode to whole blocks and advances the counter
// register past them.
func (c *dylibAES) ctr(out, in []byte) Status {
	rc := Status(C.mcapi_shim_aes_ctr_call(c.d.p, bufPtr(c.key), C.size_t(len(c.key)),
		bufPtr(c.reg[:]), bufPtr(in), bufPtr(out), C.size_t(len(in))))
	if !rc.OK() {
		return rc
	}
	for i := 0; i < len(in)/AESBlockSize; i++ {
		incrementCounter(c.reg[:])
	}
	return StatusOK
}

func dylibCBC(d *Dylib, aes bool, dir Direction, key, reg, out, in []byte, bs int) Status {
	if len(in)%bs != 0 || len(out) < len(in) {
		return StatusBuffer
	}
	if len(in) == 0 {
		return StatusOK
	}
	if !fitsWord32(len(in)) {
		return StatusBadArg
	}
	if d.closed() {
		return StatusUnsupported
	}
	// in and out may alias, so the next decrypt register is saved first
	var next [AESBlockSize]byte
	copy(next[:bs], in[len(in)-bs:])
	var rc C.int32_t
	if aes {
		rc = C.mcapi_shim_aes_cbc_call(d.p, C.int32_t(dir), bufPtr(key), C.size_t(len(key)),
			bufPtr(reg), bufPtr(in), bufPtr(out), C.size_t(len(in)))
	} else {
		rc = C.mcapi_shim_tdes_cbc_call(d.p, C.int32_t(dir), bufPtr(key), C.size_t(len(key)),
			bufPtr(reg), bufPtr(in), bufPtr(out), C.size_t(len(in)))
	}
	if st := Status(rc); !st.OK() {
		return st
	}
	if dir == Encryption {
		copy(reg, out[len(in)-bs:len(in)])
	} else {
		copy(reg, next[:bs])
	}
	return StatusOK
}

type dylibRNG struct {
	d    *Dylib
	init bool
}

func (c *dylibRNG) Initialize() Status {
	if c.d.closed() {
		return StatusUnsupported
	}
	var one [1]byte
	if st := Status(C.mcapi_shim_rng_call(c.d.p, bufPtr(one[:]), 1)); !st.OK() {
		return st
	}
	c.init = true
	return StatusOK
}

func (c *dylibRNG) Get(out *byte) Status {
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

func (c *dylibRNG) BlockGenerate(out []byte) Status {
	if !c.init {
		return StatusBadState
	}
	if len(out) == 0 {
		return StatusOK
	}
	if c.d.closed() {
		return StatusUnsupported
	}
	return Status(C.mcapi_shim_rng_call(c.d.p, bufPtr(out), C.size_t(len(out))))
}
