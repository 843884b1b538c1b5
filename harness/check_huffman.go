package harness

import (
	"github.com/ikudriavtsev/cyassl/mcapi"
	"github.com/ikudriavtsev/cyassl/reference"
)

type huffmanMode struct {
	name  string
	flags uint32
	mode  reference.Mode
}

var huffmanModes = []huffmanMode{
	{"dynamic", mcapi.HuffmanDynamic, reference.Dynamic},
	{"static", mcapi.HuffmanStatic, reference.Static},
}

type huffmanCheck struct {
	p   mcapi.Provider
	ref Reference
}

func NewHuffmanCheck(p mcapi.Provider, r Reference) Check {
	return &huffmanCheck{p: p, ref: r}
}

func (c *huffmanCheck) Family() Family { return FamilyHuffman }

// Run compresses the corpus with both sides per mode and requires equal
// streams. Each stream is then inflated by both sides and must give back
// the corpus.
func (c *huffmanCheck) Run(f *Fixture) Result {
	s := newSequence(FamilyHuffman)
	text := []byte(CompressText)
	for _, m := range huffmanModes {
		name := "huffman " + m.name
		p, ok := s.load(f, name, OpCompress, Material{Input: text})
		if !ok {
			break
		}
		var refStream []byte
		stream := s.run(Case{
			Family:   FamilyHuffman,
			Name:     name,
			Op:       OpCompress,
			OutLen:   VariableLen,
			Provider: c.compress(m),
			Reference: func(p Params) ([]byte, error) {
				out, err := c.referenceCompress(m)(p)
				refStream = out
				return out, err
			},
		}, p)
		if s.failed() {
			break
		}
		for _, src := range []struct {
			label  string
			stream []byte
		}{
			{name + " provider-stream", stream},
			{name + " reference-stream", refStream},
		} {
			s.run(Case{
				Family:    FamilyHuffman,
				Name:      src.label,
				Op:        OpDecompress,
				OutLen:    VariableLen,
				Provider:  c.decompress,
				Reference: c.referenceDecompress,
				Expect:    text,
			}, Params{Input: src.stream})
		}
		if s.failed() {
			break
		}
	}
	return s.result()
}

func (c *huffmanCheck) compress(m huffmanMode) Fn {
	return func(p Params) ([]byte, error) {
		out := make([]byte, CompressBufferSize)
		n := c.p.HuffmanCompress(out, p.Input, m.flags)
		if err := mcapi.LengthErr("huffman "+m.name+" compress", n); err != nil {
			return nil, err
		}
		return out[:n], nil
	}
}

func (c *huffmanCheck) referenceCompress(m huffmanMode) Fn {
	return func(p Params) ([]byte, error) {
		out := make([]byte, CompressBufferSize)
		n, err := c.ref.Compress(out, p.Input, m.mode)
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	}
}

// Output buffers start zero-filled so stale bytes cannot satisfy the
// round trip comparison.
func (c *huffmanCheck) decompress(p Params) ([]byte, error) {
	out := make([]byte, CompressBufferSize)
	n := c.p.HuffmanDecompress(out, p.Input)
	if err := mcapi.LengthErr("huffman decompress", n); err != nil {
		return nil, err
	}
	return out[:n], nil
}

func (c *huffmanCheck) referenceDecompress(p Params) ([]byte, error) {
	out := make([]byte, CompressBufferSize)
	n, err := c.ref.Decompress(out, p.Input)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
