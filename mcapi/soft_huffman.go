package mcapi

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"

	kzlib "github.com/klauspost/compress/zlib"

	"github.com/ikudriavtsev/cyassl/zfixed"
)

// HuffmanCompress produces a zlib stream. Dynamic uses LZ77 matching with
// dynamic Huffman tables; static codes every byte as a literal with the
// fixed table. The encoders must stay bit-compatible with the pure Go
// reference, so they are shared with it; decoding goes through an
// independent inflate implementation.
func (Soft) HuffmanCompress(out, in []byte, flags uint32) int {
	var stream []byte
	switch flags {
	case HuffmanDynamic:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return int(StatusCompress)
		}
		if _, err := zw.Write(in); err != nil {
			return int(StatusCompress)
		}
		if err := zw.Close(); err != nil {
			return int(StatusCompress)
		}
		stream = buf.Bytes()
	case HuffmanStatic:
		stream = zfixed.Encode(in)
	default:
		return int(StatusBadArg)
	}
	if len(stream) > len(out) {
		return int(StatusBuffer)
	}
	return copy(out, stream)
}

func (Soft) HuffmanDecompress(out, in []byte) int {
	zr, err := kzlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return int(StatusDecompress)
	}
	defer zr.Close()
	return inflateInto(zr, out)
}

// inflateInto reads the whole stream into out and returns its length. A
// stream longer than out is a buffer error.
func inflateInto(r io.Reader, out []byte) int {
	n, err := io.ReadFull(r, out)
	switch {
	case err == nil:
		var extra [1]byte
		if _, xerr := io.ReadFull(r, extra[:]); xerr == nil {
			return int(StatusBuffer)
		} else if !errors.Is(xerr, io.EOF) {
			return int(StatusDecompress)
		}
		return n
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n
	default:
		return int(StatusDecompress)
	}
}
