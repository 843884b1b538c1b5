//go:build mcapi_dylib

package reference

/*
#cgo LDFLAGS: -lz
#include <stddef.h>
#include <string.h>
#include <zlib.h>

static int reference_deflate(unsigned char* out, size_t out_len, const unsigned char* in, size_t in_len,
	int window_bits, int mem_level, int strategy, size_t* written) {
	z_stream s;
	int rc;

	memset(&s, 0, sizeof(s));
	rc = deflateInit2(&s, Z_DEFAULT_COMPRESSION, Z_DEFLATED, window_bits, mem_level, strategy);
	if (rc != Z_OK) return rc;
	s.next_in = (Bytef*)in;
	s.avail_in = (uInt)in_len;
	s.next_out = out;
	s.avail_out = (uInt)out_len;
	rc = deflate(&s, Z_FINISH);
	*written = (size_t)s.total_out;
	deflateEnd(&s);
	if (rc == Z_STREAM_END) return Z_OK;
	return rc == Z_OK ? Z_BUF_ERROR : rc;
}
*/
import "C"

import (
	"fmt"
	"math"
	"unsafe"
)

// Deflate parameters of the vendor Compress call.
const (
	LibzWindowBits = 11
	LibzMemLevel   = 1
)

// Libz deflates with the system zlib the way the vendor library does: the
// default level, an 11-bit window, memory level 1, and the Z_FIXED strategy
// for Static.
type Libz struct{}

func (Libz) Name() string { return "libz" }

func (Libz) Deflate(dst, src []byte, m Mode) (int, error) {
	var strategy C.int
	switch m {
	case Dynamic:
		strategy = C.Z_DEFAULT_STRATEGY
	case Static:
		strategy = C.Z_FIXED
	default:
		return 0, fmt.Errorf("reference: unknown compression mode %d", int(m))
	}
	if len(dst) == 0 {
		return 0, ErrShortBuffer
	}
	if uint64(len(src)) > math.MaxUint32 || uint64(len(dst)) > math.MaxUint32 {
		return 0, fmt.Errorf("libz: buffer exceeds 4 GiB")
	}
	var in *C.uchar
	if len(src) > 0 {
		in = (*C.uchar)(unsafe.Pointer(&src[0]))
	}
	var written C.size_t
	rc := C.reference_deflate((*C.uchar)(unsafe.Pointer(&dst[0])), C.size_t(len(dst)), in, C.size_t(len(src)),
		LibzWindowBits, LibzMemLevel, strategy, &written)
	switch rc {
	case C.Z_OK:
		return int(written), nil
	case C.Z_BUF_ERROR:
		return 0, fmt.Errorf("%w: libz stream exceeds %d bytes", ErrShortBuffer, len(dst))
	default:
		return 0, fmt.Errorf("libz deflate: rc=%d", int(rc))
	}
}
