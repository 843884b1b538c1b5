//go:build !mcapi_dylib

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
		return nil, func() {}, fmt.Errorf("%w: dylib backend needs -tags mcapi_dylib", mcapi.ErrNotImplemented)
	default:
		return nil, func() {}, fmt.Errorf("unknown backend %q", backend)
	}
}

func newReference(string) reference.Impl { return reference.Impl{} }
