package decl

import "fmt"

// Direction of data flow through a parameter.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Convention is how an output buffer is filled.
type Convention int

const (
	// ConvNone marks parameters that are not output buffers.
	ConvNone Convention = iota
	// ConvWrite buffers are always written; the caller supplies the capacity.
	ConvWrite
	// ConvQuery buffers may be null, in which case only the required size is
	// reported.
	ConvQuery
)

func (c Convention) String() string {
	switch c {
	case ConvNone:
		return "none"
	case ConvWrite:
		return "write"
	case ConvQuery:
		return "query"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// Binding is how a module's functions are resolved at runtime.
type Binding int

const (
	BindingDirect Binding = iota
	BindingFunctionTable
)

func (b Binding) String() string {
	if b == BindingFunctionTable {
		return "function-table"
	}
	return "direct"
}

// CallConv is the native calling convention.
type CallConv int

const (
	// CallConvC is the platform C convention.
	CallConvC CallConv = iota
	// CallConvSystem is stdcall on Windows and the C convention elsewhere.
	CallConvSystem
)

func (c CallConv) String() string {
	if c == CallConvSystem {
		return "system"
	}
	return "c"
}

// ParameterSpec is one declared parameter.
type ParameterSpec struct {
	Name      string
	Type      TypeRef
	Direction Direction
	Nullable  bool
	Unsafe    bool
	Doc       string

	// AutoSizedBy names the sibling that reports this buffer's capacity.
	AutoSizedBy string
	// LengthOf names the buffer whose length this integer parameter carries.
	LengthOf string
	// Check is the minimum element count of a pointer when HasCheck is set.
	Check    int
	HasCheck bool
	// Expression fixes the value of a hidden parameter, e.g. "sizeof(VREvent_t)".
	Expression string
	// Status marks the out parameter receiving a result code.
	Status     bool
	Convention Convention

	// Pattern is the naming regex the legal values were resolved from.
	Pattern string
	Legal   []EnumValue
}

// FunctionSpec is one declared native function.
type FunctionSpec struct {
	Name      string
	Prefix    string
	Params    []ParameterSpec
	Return    TypeRef
	Doc       string
	ReturnDoc string
	Binding   Binding
	CallConv  CallConv
	Optional  bool
	// Discriminator names the parameter selecting between write and query
	// behavior when a function mixes both buffer conventions.
	Discriminator string
	Module        string
}

// NativeName is the exported symbol, or the host-side name for table
// functions.
func (f FunctionSpec) NativeName() string { return f.Prefix + f.Name }

// Param returns the parameter with the given name.
func (f FunctionSpec) Param(name string) (ParameterSpec, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// EnumSpec is a declared enum or result-code type.
type EnumSpec struct {
	Name       string
	Module     string
	Underlying string
	Result     bool
	Values     []EnumValue
	Doc        string
}

// ConstKind distinguishes constant flavors.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstString
	ConstEnum
)

// ConstantSpec is a named compile-time value.
type ConstantSpec struct {
	Name   string
	Module string
	Kind   ConstKind
	// Type is the C type for int constants and the extended enum for enum
	// constants.
	Type  string
	Int   int64
	Str   string
	Doc   string
}

// ModuleSpec is the parsed form of one template module.
type ModuleSpec struct {
	Name     string
	API      string
	Prefix   string
	Binding  Binding
	CallConv CallConv
	Library  string
	Doc      string
	Source   string

	// Types lists the aliases, handles and structs this module declared, in
	// declaration order. Enums are listed separately.
	Types      []*TypeDescriptor
	Enums      []EnumSpec
	Constants  []ConstantSpec
	Functions  []FunctionSpec
	TableOrder []string
}

// ValidatedParam is a parameter whose type has been resolved.
type ValidatedParam struct {
	ParameterSpec
	Desc *TypeDescriptor
	// Base is Desc with one pointer level removed, or Desc itself.
	Base *TypeDescriptor
	// ExprValue is the byte size named by a sizeof expression, or the literal.
	ExprValue int64
}

// ValidatedFunction is a FunctionSpec that passed every validation check.
type ValidatedFunction struct {
	FunctionSpec
	Params []ValidatedParam
	Ret    *TypeDescriptor
}

// Param returns the validated parameter with the given name.
func (f *ValidatedFunction) Param(name string) (*ValidatedParam, bool) {
	for i := range f.Params {
		if f.Params[i].Name == name {
			return &f.Params[i], true
		}
	}
	return nil, false
}

// ValidatedModule is the unit handed to emitters.
type ValidatedModule struct {
	*ModuleSpec
	Functions []*ValidatedFunction
	Registry  *Registry
}

// Function returns the validated function with the given name.
func (m *ValidatedModule) Function(name string) (*ValidatedFunction, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
