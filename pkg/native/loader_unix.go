//go:build darwin || freebsd || linux || netbsd

package native

import "github.com/ebitengine/purego"

type systemLoader struct{}

func (systemLoader) Open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func (systemLoader) Lookup(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func (systemLoader) Close(handle uintptr) error {
	return purego.Dlclose(handle)
}
