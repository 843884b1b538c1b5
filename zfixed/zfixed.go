// Package zfixed encodes zlib streams made of one deflate block coded with
// the fixed Huffman table of RFC 1951 section 3.2.6. Every input byte is
// emitted as a literal; there is no match search.
package zfixed

import (
	"encoding/binary"
	"hash/adler32"
)

// Header is the zlib stream header: deflate with a 32K window, fastest level.
var Header = [2]byte{0x78, 0x01}

// Deflate block types as carried in the BTYPE field.
const (
	BlockStored  = 0
	BlockFixed   = 1
	BlockDynamic = 2
)

type bitWriter struct {
	out  []byte
	acc  uint32
	nacc uint
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	w.acc |= v << w.nacc
	w.nacc += n
	for w.nacc >= 8 {
		w.out = append(w.out, byte(w.acc))
		w.acc >>= 8
		w.nacc -= 8
	}
}

// writeCode writes a Huffman code most significant bit first.
func (w *bitWriter) writeCode(code uint32, n uint) {
	var rev uint32
	for i := uint(0); i < n; i++ {
		rev = rev<<1 | code&1
		code >>= 1
	}
	w.writeBits(rev, n)
}

func (w *bitWriter) flush() {
	if w.nacc > 0 {
		w.out = append(w.out, byte(w.acc))
		w.acc, w.nacc = 0, 0
	}
}

// Encode returns the zlib stream of src.
func Encode(src []byte) []byte {
	w := &bitWriter{out: make([]byte, 0, len(Header)+len(src)+len(src)/8+6)}
	w.out = append(w.out, Header[:]...)
	w.writeBits(1, 1) // BFINAL
	w.writeBits(BlockFixed, 2)
	for _, b := range src {
		if b < 144 {
			w.writeCode(0x30+uint32(b), 8)
		} else {
			w.writeCode(0x190+uint32(b-144), 9)
		}
	}
	w.writeCode(0, 7) // end of block
	w.flush()
	return binary.BigEndian.AppendUint32(w.out, adler32.Checksum(src))
}

// FirstBlockType returns the BTYPE of the first deflate block of a zlib
// stream, or -1 if the stream is too short to carry one.
func FirstBlockType(stream []byte) int {
	if len(stream) < 3 {
		return -1
	}
	return int(stream[2]>>1) & 3
}
