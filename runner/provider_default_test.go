//go:build !mcapi_dylib

package runner

import (
	"errors"
	"testing"

	"github.com/ikudriavtsev/cyassl/mcapi"
)

func TestLoadProviderDefaultBuild(t *testing.T) {
	t.Setenv("MCAPI_STRICT", "")
	p, cleanup, err := loadProvider(BackendSoft)
	if err != nil {
		t.Fatalf("soft backend: %v", err)
	}
	cleanup()
	if p.Name() != "soft" {
		t.Fatalf("provider=%q", p.Name())
	}

	if _, _, err := loadProvider(BackendDylib); !errors.Is(err, mcapi.ErrNotImplemented) {
		t.Fatalf("dylib backend: expected ErrNotImplemented, got %v", err)
	}
	if _, _, err := loadProvider("hsm"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadProviderStrictRejectsSoft(t *testing.T) {
	t.Setenv("MCAPI_STRICT", "1")
	if _, _, err := loadProvider(BackendSoft); err == nil {
		t.Fatalf("expected strict mode to reject the soft backend")
	}
}

func TestNewReferenceDefaultBuild(t *testing.T) {
	for _, backend := range []string{BackendSoft, BackendDylib} {
		if ref := newReference(backend); ref.Deflater != nil || ref.Name() != "go-std" {
			t.Fatalf("%s: reference %q with deflater %T", backend, ref.Name(), ref.Deflater)
		}
	}
}
