//go:build windows

package native

import "golang.org/x/sys/windows"

type systemLoader struct{}

func (systemLoader) Open(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	return uintptr(h), err
}

func (systemLoader) Lookup(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func (systemLoader) Close(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
