package decl

import (
	"fmt"
	"strings"
)

// Kind classifies a TypeDescriptor.
type Kind int

const (
	KindPrimitive Kind = iota
	KindPointer
	KindConstPointer
	KindStruct
	KindEnum
	KindResult
	KindOpaque
)

var kindNames = [...]string{
	KindPrimitive:    "primitive",
	KindPointer:      "pointer",
	KindConstPointer: "const-pointer",
	KindStruct:       "struct",
	KindEnum:         "enum",
	KindResult:       "result",
	KindOpaque:       "opaque",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps the template spelling of a kind. "alias" is accepted as a
// synonym for primitive.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "alias", "primitive":
		return KindPrimitive, true
	case "struct":
		return KindStruct, true
	case "enum":
		return KindEnum, true
	case "result":
		return KindResult, true
	case "opaque", "handle":
		return KindOpaque, true
	}
	return 0, false
}

// Scalar describes how a primitive is represented in registers.
type Scalar int

const (
	ScalarNone Scalar = iota
	ScalarBool
	ScalarSigned
	ScalarUnsigned
	ScalarFloat
)

// TypeDescriptor is the registry's record of one native type.
//
// Pointer descriptors are never registered; they are derived with PointerTo and
// ConstPointerTo and carry their pointee in Elem.
type TypeDescriptor struct {
	Name   string
	Size   int
	Align  int
	Kind   Kind
	Scalar Scalar

	// Underlying names the primitive an alias, enum or result is stored as.
	Underlying string

	Elem   *TypeDescriptor
	Fields []Field
	Values []EnumValue

	// Module is the module that declared the type; empty for builtins.
	Module string
	Doc    string
}

// Field is one member of a struct descriptor.
type Field struct {
	Name   string
	Type   string // type expression, resolved through the registry
	Offset int
	Count  int // >1 for fixed-size arrays
}

// EnumValue is a named value of an enum or result descriptor.
type EnumValue struct {
	Name  string
	Value int64
	Doc   string
}

// IsPointer reports whether d is a pointer or const-pointer.
func (d *TypeDescriptor) IsPointer() bool {
	return d.Kind == KindPointer || d.Kind == KindConstPointer
}

// IsInteger reports whether values of d are plain integers. Enums and results
// are integers too; pointers are not.
func (d *TypeDescriptor) IsInteger() bool {
	switch d.Kind {
	case KindPrimitive:
		return d.Scalar == ScalarSigned || d.Scalar == ScalarUnsigned
	case KindEnum, KindResult:
		return true
	}
	return false
}

// IsVoid reports whether d is the void builtin.
func (d *TypeDescriptor) IsVoid() bool {
	return d.Kind == KindPrimitive && d.Name == "void"
}

// Lookup returns the enum value with the given name.
func (d *TypeDescriptor) Lookup(name string) (EnumValue, bool) {
	for _, v := range d.Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValue{}, false
}

// Equal reports whether two descriptors describe the same type. Docs and the
// declaring module are not part of a type's identity.
func (d *TypeDescriptor) Equal(o *TypeDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.Name != o.Name || d.Size != o.Size || d.Align != o.Align || d.Kind != o.Kind ||
		d.Scalar != o.Scalar || d.Underlying != o.Underlying {
		return false
	}
	if (d.Elem == nil) != (o.Elem == nil) || (d.Elem != nil && !d.Elem.Equal(o.Elem)) {
		return false
	}
	if len(d.Fields) != len(o.Fields) || len(d.Values) != len(o.Values) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i] != o.Fields[i] {
			return false
		}
	}
	for i := range d.Values {
		if d.Values[i].Name != o.Values[i].Name || d.Values[i].Value != o.Values[i].Value {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Type expressions
// ---------------------------------------------------------------------------

// TypeRef is a parsed type expression such as "const char*" or "void**".
type TypeRef struct {
	Base  string
	Depth int  // pointer depth
	Const bool // const applies to the innermost pointee
}

func (r TypeRef) String() string {
	var b strings.Builder
	if r.Const {
		b.WriteString("const ")
	}
	b.WriteString(r.Base)
	b.WriteString(strings.Repeat("*", r.Depth))
	return b.String()
}

// IsZero reports whether r was never set.
func (r TypeRef) IsZero() bool { return r.Base == "" }

// ParseTypeRef parses a type expression. Accepted forms: T, T*, const T*, T**.
// "T const*" is accepted as a synonym of "const T*".
func ParseTypeRef(expr string) (TypeRef, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type expression")
	}
	var ref TypeRef
	for strings.HasSuffix(s, "*") {
		ref.Depth++
		s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	}
	words := strings.Fields(s)
	var base []string
	for _, w := range words {
		if w == "const" {
			ref.Const = true
			continue
		}
		base = append(base, w)
	}
	if len(base) != 1 {
		return TypeRef{}, fmt.Errorf("type expression %q must name exactly one base type", expr)
	}
	if ref.Const && ref.Depth == 0 {
		return TypeRef{}, fmt.Errorf("type expression %q: const is only meaningful behind a pointer", expr)
	}
	if !isIdent(base[0]) {
		return TypeRef{}, fmt.Errorf("type expression %q: %q is not an identifier", expr, base[0])
	}
	ref.Base = base[0]
	return ref, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
