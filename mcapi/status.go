package mcapi

import (
	"errors"
	"fmt"
)

// Status is the integer result of a provider API call. Zero is success; any
// other value is an opaque failure code.
type Status int32

const (
	StatusOK          Status = 0
	StatusMemory      Status = -125 // out of memory
	StatusBuffer      Status = -132 // output buffer too small or length not block aligned
	StatusBadArg      Status = -173 // bad function argument
	StatusBadState    Status = -192 // context used before setup
	StatusRNGFailure  Status = -199 // entropy source or generator failure
	StatusCompress    Status = -229
	StatusDecompress  Status = -231
	StatusUnsupported Status = -174 // not compiled into this engine
)

func (s Status) OK() bool { return s == StatusOK }

// Err converts s to an error, nil on success.
func (s Status) Err(op string) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Code: s}
}

type StatusError struct {
	Op   string
	Code Status
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return fmt.Sprintf("mcapi status %d", int32(e.Code))
	}
	return fmt.Sprintf("%s: mcapi status %d", e.Op, int32(e.Code))
}

// LengthErr converts the int result of the compression calls, where a
// negative value is a status code, to an error.
func LengthErr(op string, n int) error {
	if n >= 0 {
		return nil
	}
	return &StatusError{Op: op, Code: Status(n)}
}

// ErrNotImplemented indicates that a build does not include the requested engine.
var ErrNotImplemented = errors.New("mcapi: engine not implemented in this build")
