package native

import (
	"errors"
	"fmt"
	"sync"
)

// Loader is the platform's dynamic loader.
type Loader interface {
	Open(path string) (uintptr, error)
	Lookup(handle uintptr, name string) (uintptr, error)
	Close(handle uintptr) error
}

// DefaultLoader is the loader of the running platform.
var DefaultLoader Loader = systemLoader{}

// loadMu serializes calls into the platform loader.
var loadMu sync.Mutex

// Library is an open native library.
//
// Symbol lookups and Close may be called from any goroutine. Close waits for
// lookups in flight and makes later ones fail.
type Library struct {
	loader Loader
	path   string

	mu     sync.RWMutex
	handle uintptr
	closed bool
}

// Open loads the library at path.
func Open(loader Loader, path string) (*Library, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	h, err := loader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}
	return &Library{loader: loader, path: path, handle: h}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string { return l.path }

// Symbol returns the address of an exported symbol.
func (l *Library) Symbol(name string) (uintptr, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, &BindError{Slot: name, Index: -1, Err: errors.New("library is closed")}
	}
	addr, err := l.loader.Lookup(l.handle, name)
	if err != nil {
		return 0, &BindError{Slot: name, Index: -1, Err: err}
	}
	if addr == 0 {
		return 0, &BindError{Slot: name, Index: -1}
	}
	return addr, nil
}

// Load fills the func fields of the struct fns points to from exported
// symbols named by each field's `ffi` tag. A missing symbol fails with a
// *BindError before any field is assigned.
func (l *Library) Load(fns any) error {
	return loadFuncs(fns, l.Symbol)
}

// Close unloads the library. Closing twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	loadMu.Lock()
	defer loadMu.Unlock()
	return l.loader.Close(l.handle)
}

// WithLibrary opens path, runs fn and closes the library on every exit path,
// panics included. fn may close the library itself or open others.
func WithLibrary(loader Loader, path string, fn func(*Library) error) (err error) {
	lib, err := Open(loader, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return fn(lib)
}
