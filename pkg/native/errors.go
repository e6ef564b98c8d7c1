// Package native is the runtime support imported by generated Go bindings:
// library loading, function-table binding and the checks wrappers perform
// before crossing into native code.
package native

import (
	"errors"
	"fmt"
)

var (
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrBind           = errors.New("bind failed")
	ErrCheck          = errors.New("argument check failed")
	ErrInvalidEnum    = errors.New("value outside the legal set")
	ErrLoad           = errors.New("library load failed")
)

// BufferTooSmallError reports a query-or-write buffer below the required size.
// Nothing was written into the buffer.
type BufferTooSmallError struct {
	Param    string
	Required uint32
	Capacity uint32
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("%s: %v: need %d, have %d", e.Param, ErrBufferTooSmall, e.Required, e.Capacity)
}

func (e *BufferTooSmallError) Is(target error) bool { return target == ErrBufferTooSmall }

// BindError names the first required entry point that could not be resolved.
type BindError struct {
	Slot  string
	Index int // slot index, -1 for symbol lookups
	Err   error
}

func (e *BindError) Error() string {
	where := e.Slot
	if e.Index >= 0 {
		where = fmt.Sprintf("%s (slot %d)", e.Slot, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrBind, where, e.Err)
	}
	return fmt.Sprintf("%v: %s is missing", ErrBind, where)
}

func (e *BindError) Is(target error) bool { return target == ErrBind }

func (e *BindError) Unwrap() error { return e.Err }

// ResultError carries a non-success status code returned by a native call.
type ResultError struct {
	Func string
	Code int64
	Name string // symbolic name of Code when known
}

func (e *ResultError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%d)", e.Func, e.Name, e.Code)
	}
	return fmt.Sprintf("%s: result %d", e.Func, e.Code)
}

// Result converts a status code into an error. success is the code that
// means no error; names maps codes to their symbolic names and may be nil.
func Result[T ~int8 | ~int16 | ~int32 | ~int64 | ~int | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr](fn string, code, success T, names map[T]string) error {
	if code == success {
		return nil
	}
	return &ResultError{Func: fn, Code: int64(code), Name: names[code]}
}
