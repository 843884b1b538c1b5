package zfixed

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	kzlib "github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func inflateStd(t *testing.T, stream []byte) []byte {
	t.Helper()
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func inflateKlauspost(t *testing.T, stream []byte) []byte {
	t.Helper()
	zr, err := kzlib.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)
	defer zr.Close()
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func TestEncodeRoundTrip(t *testing.T) {
	every := make([]byte, 512)
	for i := range every {
		every[i] = byte(i)
	}
	inputs := map[string][]byte{
		"empty":      {},
		"one":        {'a'},
		"ascii":      []byte("the quick brown fox jumps over the lazy dog\n"),
		"every byte": every,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			stream := Encode(in)
			require.Equal(t, Header[:], stream[:2])
			require.Equal(t, BlockFixed, FirstBlockType(stream))
			require.Equal(t, in, inflateStd(t, stream))
			require.Equal(t, in, inflateKlauspost(t, stream))
		})
	}
}

func TestEncodeLiteralLengths(t *testing.T) {
	// 2 header + 3 block header bits + 8 per literal + 7 end of block, padded, + 4 adler
	require.Len(t, Encode(bytes.Repeat([]byte{'a'}, 100)), 2+(3+800+7+7)/8+4)
	// literals 144..255 take 9 bits
	require.Len(t, Encode(bytes.Repeat([]byte{0xff}, 100)), 2+(3+900+7+7)/8+4)
}

func TestFirstBlockType(t *testing.T) {
	require.Equal(t, -1, FirstBlockType([]byte{0x78, 0x01}))

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.HuffmanOnly)
	require.NoError(t, err)
	// compressible enough that a stored block is never smaller
	_, err = zw.Write(bytes.Repeat([]byte("ab"), 500))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.Equal(t, BlockDynamic, FirstBlockType(buf.Bytes()))
}
