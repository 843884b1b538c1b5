package harness

import (
	"bytes"
	"fmt"
)

const (
	// DataSize is the length of the deterministic input corpus.
	DataSize = 1024
	KeySize  = 32
	IVSize   = 32
)

// Allocator returns a zeroed buffer of n bytes.
type Allocator func(n int) ([]byte, error)

func DefaultAllocator(n int) ([]byte, error) { return make([]byte, n), nil }

// Fixture owns the input corpus and the key and IV scratch buffers shared
// by every check of one run. Key and IV are overwritten, never appended,
// when a case loads its material.
type Fixture struct {
	data []byte
	key  []byte
	iv   []byte
}

// NewFixture allocates the buffers and fills data[i] = i mod 256. A nil
// alloc uses DefaultAllocator.
func NewFixture(alloc Allocator) (*Fixture, error) {
	if alloc == nil {
		alloc = DefaultAllocator
	}
	data, err := allocExact(alloc, DataSize, "input")
	if err != nil {
		return nil, err
	}
	for i := range data {
		data[i] = byte(i)
	}
	key, err := allocExact(alloc, KeySize, "key")
	if err != nil {
		return nil, err
	}
	iv, err := allocExact(alloc, IVSize, "iv")
	if err != nil {
		return nil, err
	}
	return &Fixture{data: data, key: key, iv: iv}, nil
}

func allocExact(alloc Allocator, n int, what string) ([]byte, error) {
	b, err := alloc(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s alloc: %v", ErrSetup, what, err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: %s alloc returned %d bytes, want %d", ErrSetup, what, len(b), n)
	}
	return b, nil
}

func (f *Fixture) live() error {
	if f == nil || f.data == nil {
		return fmt.Errorf("%w: fixture used after teardown", ErrSetup)
	}
	return nil
}

// Data returns a copy of the first n corpus bytes.
func (f *Fixture) Data(n int) ([]byte, error) {
	if err := f.live(); err != nil {
		return nil, err
	}
	if n < 0 || n > len(f.data) {
		return nil, fmt.Errorf("input length %d out of range [0,%d]", n, len(f.data))
	}
	return bytes.Clone(f.data[:n]), nil
}

func (f *Fixture) SetKey(b []byte) error {
	if err := f.live(); err != nil {
		return err
	}
	if len(b) > len(f.key) {
		return fmt.Errorf("key length %d exceeds %d", len(b), len(f.key))
	}
	copy(f.key, b)
	return nil
}

func (f *Fixture) SetIV(b []byte) error {
	if err := f.live(); err != nil {
		return err
	}
	if len(b) > len(f.iv) {
		return fmt.Errorf("iv length %d exceeds %d", len(b), len(f.iv))
	}
	copy(f.iv, b)
	return nil
}

// Material is the explicit key and IV a case needs. Input, when set,
// replaces the corpus; otherwise the first InputLen corpus bytes are used.
type Material struct {
	Key      []byte
	IV       []byte
	Input    []byte
	InputLen int
}

// Params is one side's view of a case. Every field is a private copy.
type Params struct {
	Input []byte
	Key   []byte
	IV    []byte
}

func (p Params) Clone() Params {
	return Params{Input: bytes.Clone(p.Input), Key: bytes.Clone(p.Key), IV: bytes.Clone(p.IV)}
}

func (p Params) Equal(o Params) bool {
	return bytes.Equal(p.Input, o.Input) && bytes.Equal(p.Key, o.Key) && bytes.Equal(p.IV, o.IV)
}

// Load writes m's key and IV into the scratch buffers and returns params
// cut from them at the material lengths.
func (f *Fixture) Load(m Material) (Params, error) {
	if err := f.SetKey(m.Key); err != nil {
		return Params{}, err
	}
	if err := f.SetIV(m.IV); err != nil {
		return Params{}, err
	}
	var p Params
	if m.Input != nil {
		p.Input = bytes.Clone(m.Input)
	} else {
		in, err := f.Data(m.InputLen)
		if err != nil {
			return Params{}, err
		}
		p.Input = in
	}
	if len(m.Key) > 0 {
		p.Key = bytes.Clone(f.key[:len(m.Key)])
	}
	if len(m.IV) > 0 {
		p.IV = bytes.Clone(f.iv[:len(m.IV)])
	}
	return p, nil
}

// Teardown zeroes and releases the buffers. It is safe to call twice.
func (f *Fixture) Teardown() {
	if f == nil {
		return
	}
	clear(f.data)
	clear(f.key)
	clear(f.iv)
	f.data, f.key, f.iv = nil, nil, nil
}
