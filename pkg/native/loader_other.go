//go:build !(darwin || freebsd || linux || netbsd || windows)

package native

import (
	"errors"
	"runtime"
)

type systemLoader struct{}

var errUnsupported = errors.New("dynamic loading is not supported on " + runtime.GOOS)

func (systemLoader) Open(string) (uintptr, error)           { return 0, errUnsupported }
func (systemLoader) Lookup(uintptr, string) (uintptr, error) { return 0, errUnsupported }
func (systemLoader) Close(uintptr) error                     { return errUnsupported }
