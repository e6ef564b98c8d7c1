package decl

// RawModule is a template module as read from an external source (e.g. YAML).
// It is format-agnostic: no serialization tags, strings where the template
// has free text.
type RawModule struct {
	Name     string
	API      string
	Prefix   string
	Binding  string
	CallConv string
	Library  string
	Doc      string

	// Source is the file the module came from, for diagnostics.
	Source string

	Types      []RawType
	Enums      []RawEnum
	Constants  []RawConstant
	Functions  []RawFunction
	TableOrder []string
}

// RawType declares an alias, opaque handle or struct.
type RawType struct {
	Name       string
	Kind       string
	Underlying string
	Size       int
	Align      int
	Fields     []RawField
	Doc        string
}

// RawField is a struct member. Offset is nil when the layout is computed.
type RawField struct {
	Name   string
	Type   string
	Offset *int
	Count  int
}

// RawEnum declares an enum; Result marks status-code enums.
type RawEnum struct {
	Name       string
	Underlying string
	Result     bool
	Values     []RawEnumValue
	Doc        string
}

// RawEnumValue keeps the value as written so hex and negative literals survive.
type RawEnumValue struct {
	Name  string
	Value string
	Doc   string
}

// RawConstant is an int, string or enum constant. Extends names the enum an
// enum constant adds a value to.
type RawConstant struct {
	Name    string
	Type    string
	Value   string
	Extends string
	Doc     string
}

// RawFunction is a declared function.
type RawFunction struct {
	Name          string
	Doc           string
	ReturnDoc     string
	Returns       string
	Optional      bool
	Discriminator string
	Params        []RawParam
}

// RawParam is a declared parameter. Type is a type expression.
type RawParam struct {
	Name       string
	Type       string
	Dir        string
	Nullable   bool
	Unsafe     bool
	AutoSize   string
	LengthOf   string
	Check      *int
	Expression string
	Status     bool
	Convention string
	Values     string
	Doc        string
}
