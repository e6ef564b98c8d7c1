// Package emit renders validated modules into host-language bindings.
package emit

import (
	"fmt"
	"sort"
	"sync"

	"go-bindgen/cmd/bindgen/decl"
)

// DefaultRuntime is the import path of the runtime support package generated
// Go code depends on.
const DefaultRuntime = "go-bindgen/pkg/native"

// OutputFile is one generated file.
type OutputFile struct {
	Path    string // relative to the output directory
	Content []byte
	Module  string
}

// Options control a single Emit call.
type Options struct {
	// Package is the Go package name of generated files.
	Package string
	// Runtime overrides DefaultRuntime.
	Runtime string
	// Source is recorded in the generated header.
	Source string
}

func (o Options) runtime() string {
	if o.Runtime != "" {
		return o.Runtime
	}
	return DefaultRuntime
}

func (o Options) pkg() string {
	if o.Package != "" {
		return o.Package
	}
	return "bindings"
}

// Target is one host language.
type Target interface {
	Name() string
	// ClosedEnums reports whether the host language gets a closed enum type.
	// Targets without one pass enums as raw integers and list the legal values
	// in a comment.
	ClosedEnums() bool
	Emit(mod *decl.ValidatedModule, opts Options) ([]*OutputFile, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Target{}
)

// Register adds a target factory. Called from init in each target's file.
func Register(name string, factory func() Target) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("emit target %q already registered", name))
	}
	registry[name] = factory
}

// Get returns a new instance of the named target.
func Get(name string) (Target, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (available: %v)", name, allLocked())
	}
	return factory(), nil
}

// All returns the registered target names, sorted.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return allLocked()
}

func allLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
