//go:build mcapi_dylib

package runner

import (
	"errors"
	"fmt"

	"github.com/ikudriavtsev/cyassl/mcapi"
	"github.com/ikudriavtsev/cyassl/reference"
)

func loadProvider(backend string) (mcapi.Provider, func(), error) {
	switch backend {
	case BackendSoft:
		if mcapi.StrictFromEnv() {
			return nil, func() {}, errors.New("MCAPI_STRICT=1 requires the dylib backend")
		}
		return mcapi.Soft{}, func() {}, nil
	case BackendDylib:
		d, err := mcapi.LoadDylibFromEnv()
		if err != nil {
			return nil, func() {}, err
		}
		return d, d.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown backend %q", backend)
	}
}

// newReference pairs the vendor engine with a libz deflater so compressed
// streams are comparable byte for byte.
func newReference(backend string) reference.Impl {
	if backend == BackendDylib {
		return reference.Impl{Deflater: reference.Libz{}}
	}
	return reference.Impl{}
}
