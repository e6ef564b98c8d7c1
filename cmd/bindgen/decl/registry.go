package decl

import (
	"fmt"
	"sort"
)

// PointerSize is the size and alignment of every pointer in the 64-bit data
// model the registry assumes.
const PointerSize = 8

// Registry holds every named native type known to a generation run.
//
// Types are registered once, single-threaded, before any module is parsed.
// After that the registry is only read and may be shared between workers.
type Registry struct {
	types map[string]*TypeDescriptor
}

// NewRegistry returns a Registry pre-populated with the builtin C types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*TypeDescriptor)}
	for _, b := range builtins {
		d := b
		r.types[d.Name] = &d
	}
	return r
}

var builtins = []TypeDescriptor{
	{Name: "void", Size: 0, Align: 1},
	{Name: "bool", Size: 1, Align: 1, Scalar: ScalarBool},
	{Name: "char", Size: 1, Align: 1, Scalar: ScalarSigned},
	{Name: "int8_t", Size: 1, Align: 1, Scalar: ScalarSigned},
	{Name: "uint8_t", Size: 1, Align: 1, Scalar: ScalarUnsigned},
	{Name: "int16_t", Size: 2, Align: 2, Scalar: ScalarSigned},
	{Name: "uint16_t", Size: 2, Align: 2, Scalar: ScalarUnsigned},
	{Name: "int32_t", Size: 4, Align: 4, Scalar: ScalarSigned},
	{Name: "uint32_t", Size: 4, Align: 4, Scalar: ScalarUnsigned},
	{Name: "int64_t", Size: 8, Align: 8, Scalar: ScalarSigned},
	{Name: "uint64_t", Size: 8, Align: 8, Scalar: ScalarUnsigned},
	{Name: "size_t", Size: 8, Align: 8, Scalar: ScalarUnsigned},
	{Name: "intptr_t", Size: 8, Align: 8, Scalar: ScalarSigned},
	{Name: "uintptr_t", Size: 8, Align: 8, Scalar: ScalarUnsigned},
	{Name: "float", Size: 4, Align: 4, Scalar: ScalarFloat},
	{Name: "double", Size: 8, Align: 8, Scalar: ScalarFloat},
}

// IsBuiltin reports whether name is one of the pre-registered C types.
func IsBuiltin(name string) bool {
	for _, b := range builtins {
		if b.Name == name {
			return true
		}
	}
	return false
}

// Register adds a descriptor.
//
// Registering a name again with an identical descriptor is a no-op; a
// different descriptor under a taken name fails with ErrTypeAlreadyRegistered.
// Struct layouts are checked before anything is stored.
func (r *Registry) Register(d TypeDescriptor) error {
	if !isIdent(d.Name) {
		return fmt.Errorf("phase=registry path=%s: %w: type name is not an identifier", d.Name, ErrMalformedDeclaration)
	}
	if d.IsPointer() {
		return fmt.Errorf("phase=registry path=%s: %w: pointer types are derived, not registered", d.Name, ErrMalformedDeclaration)
	}
	if existing, ok := r.types[d.Name]; ok {
		if existing.Equal(&d) {
			return nil
		}
		return fmt.Errorf("phase=registry path=%s: %w with a different definition", d.Name, ErrTypeAlreadyRegistered)
	}

	switch d.Kind {
	case KindStruct:
		if err := r.checkLayout(&d); err != nil {
			return err
		}
	case KindEnum, KindResult:
		u, err := r.Resolve(d.Underlying)
		if err != nil {
			return fmt.Errorf("phase=registry path=%s: %w", d.Name, err)
		}
		if !u.IsInteger() {
			return fmt.Errorf("phase=registry path=%s: %w: enum storage %q is not an integer", d.Name, ErrMalformedDeclaration, d.Underlying)
		}
	}
	if d.Align <= 0 || d.Align&(d.Align-1) != 0 {
		return fmt.Errorf("phase=registry path=%s: %w: alignment %d is not a power of two", d.Name, ErrInvalidLayout, d.Align)
	}

	stored := d
	stored.Fields = append([]Field(nil), d.Fields...)
	stored.Values = append([]EnumValue(nil), d.Values...)
	r.types[d.Name] = &stored
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (*TypeDescriptor, error) {
	d, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return d, nil
}

// ResolveRef resolves the base of ref and wraps it in ref.Depth pointer levels.
func (r *Registry) ResolveRef(ref TypeRef) (*TypeDescriptor, error) {
	d, err := r.Resolve(ref.Base)
	if err != nil {
		return nil, err
	}
	for i := 0; i < ref.Depth; i++ {
		if i == 0 && ref.Const {
			d = ConstPointerTo(d)
		} else {
			d = PointerTo(d)
		}
	}
	return d, nil
}

// ResolveExpr parses expr and resolves it.
func (r *Registry) ResolveExpr(expr string) (*TypeDescriptor, error) {
	ref, err := ParseTypeRef(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDeclaration, err)
	}
	return r.ResolveRef(ref)
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.types))
	for n := range r.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// PointerTo derives a mutable pointer to elem.
func PointerTo(elem *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{
		Name:  elem.Name + "*",
		Size:  PointerSize,
		Align: PointerSize,
		Kind:  KindPointer,
		Elem:  elem,
	}
}

// ConstPointerTo derives a pointer to an immutable elem.
func ConstPointerTo(elem *TypeDescriptor) *TypeDescriptor {
	return &TypeDescriptor{
		Name:  "const " + elem.Name + "*",
		Size:  PointerSize,
		Align: PointerSize,
		Kind:  KindConstPointer,
		Elem:  elem,
	}
}
