package decl

import (
	"fmt"
	"strconv"
	"strings"
)

// Declare registers every type and enum of raw in reg.
//
// Aliases and handles go first, then enums, then structs, so struct fields may
// use anything the module declares. Structs may refer to earlier structs only.
// Declare must not run concurrently with anything else touching reg.
func Declare(raw RawModule, reg *Registry) error {
	seen := map[string]struct{}{}
	claim := func(name string) error {
		if _, ok := seen[name]; ok {
			return duplicate(raw.Name+"."+name, "type", name)
		}
		seen[name] = struct{}{}
		return nil
	}

	var structs []RawType
	for _, t := range raw.Types {
		if err := claim(t.Name); err != nil {
			return err
		}
		kind, ok := ParseKind(t.Kind)
		if !ok {
			return malformed(raw.Name+"."+t.Name, "unknown type kind %q", t.Kind)
		}
		if kind == KindStruct {
			structs = append(structs, t)
			continue
		}
		if kind == KindEnum || kind == KindResult {
			return malformed(raw.Name+"."+t.Name, "enums are declared under enums, not types")
		}
		d, err := buildScalarType(raw.Name, t, kind, reg)
		if err != nil {
			return err
		}
		if err := reg.Register(*d); err != nil {
			return err
		}
	}

	for _, e := range raw.Enums {
		if err := claim(e.Name); err != nil {
			return err
		}
		d, err := buildEnumType(raw.Name, e, reg)
		if err != nil {
			return err
		}
		if err := reg.Register(*d); err != nil {
			return err
		}
	}

	for _, t := range structs {
		d, err := buildStructType(raw.Name, t, reg)
		if err != nil {
			return err
		}
		if err := reg.Register(*d); err != nil {
			return err
		}
	}
	return nil
}

func buildScalarType(module string, t RawType, kind Kind, reg *Registry) (*TypeDescriptor, error) {
	path := module + "." + t.Name
	d := &TypeDescriptor{Name: t.Name, Kind: kind, Module: module, Doc: t.Doc}
	switch kind {
	case KindOpaque:
		// Handles are pointer sized unless the template says otherwise
		// (64-bit non-dispatchable handles on 32-bit targets).
		d.Size, d.Align = PointerSize, PointerSize
		if t.Size > 0 {
			d.Size = t.Size
			d.Align = max(t.Align, t.Size)
		}
	case KindPrimitive:
		if t.Underlying == "" {
			return nil, malformed(path, "alias needs an underlying type")
		}
		u, err := reg.Resolve(t.Underlying)
		if err != nil {
			return nil, fmt.Errorf("phase=parse path=%s: %w", path, err)
		}
		if u.Kind != KindPrimitive && u.Kind != KindOpaque || u.IsVoid() {
			return nil, malformed(path, "alias of %s %q is not supported", u.Kind, u.Name)
		}
		d.Kind = u.Kind
		d.Size, d.Align, d.Scalar = u.Size, u.Align, u.Scalar
		d.Underlying = u.Name
	}
	return d, nil
}

func buildEnumType(module string, e RawEnum, reg *Registry) (*TypeDescriptor, error) {
	path := module + "." + e.Name
	under := e.Underlying
	if under == "" {
		under = "int32_t"
	}
	u, err := reg.Resolve(under)
	if err != nil {
		return nil, fmt.Errorf("phase=parse path=%s: %w", path, err)
	}
	values, err := parseEnumValues(path, e.Values, u)
	if err != nil {
		return nil, err
	}
	kind := KindEnum
	if e.Result {
		kind = KindResult
	}
	return &TypeDescriptor{
		Name:       e.Name,
		Size:       u.Size,
		Align:      u.Align,
		Kind:       kind,
		Scalar:     u.Scalar,
		Underlying: u.Name,
		Values:     values,
		Module:     module,
		Doc:        e.Doc,
	}, nil
}

func buildStructType(module string, t RawType, reg *Registry) (*TypeDescriptor, error) {
	path := module + "." + t.Name
	if len(t.Fields) == 0 {
		return nil, malformed(path, "struct has no fields")
	}
	fields := make([]Field, len(t.Fields))
	explicit := 0
	names := map[string]struct{}{}
	for i, f := range t.Fields {
		if !isIdent(f.Name) {
			return nil, malformed(path, "field %d has no valid name", i)
		}
		if _, ok := names[f.Name]; ok {
			return nil, duplicate(path+"."+f.Name, "field", f.Name)
		}
		names[f.Name] = struct{}{}
		if f.Count < 0 {
			return nil, malformed(path+"."+f.Name, "negative array count %d", f.Count)
		}
		fields[i] = Field{Name: f.Name, Type: f.Type, Offset: -1, Count: max(f.Count, 1)}
		if f.Offset != nil {
			fields[i].Offset = *f.Offset
			explicit++
		}
	}

	d := &TypeDescriptor{Name: t.Name, Kind: KindStruct, Module: module, Doc: t.Doc}
	switch explicit {
	case 0:
		laid, size, align, err := ComputeLayout(reg, fields)
		if err != nil {
			return nil, fmt.Errorf("phase=parse path=%s: %w", path, err)
		}
		d.Fields, d.Size, d.Align = laid, size, align
		if t.Size > 0 {
			d.Size = t.Size
		}
		if t.Align > 0 {
			d.Align = t.Align
		}
	case len(fields):
		if t.Size <= 0 {
			return nil, malformed(path, "explicit field offsets need an explicit size")
		}
		d.Fields, d.Size, d.Align = fields, t.Size, t.Align
		if d.Align == 0 {
			layout, err := reg.Layout(d)
			if err != nil {
				return nil, fmt.Errorf("phase=parse path=%s: %w", path, err)
			}
			d.Align = 1
			for _, f := range layout {
				d.Align = max(d.Align, f.Align)
			}
		}
	default:
		return nil, malformed(path, "either every field or no field must give an offset")
	}
	return d, nil
}

func parseEnumValues(path string, raw []RawEnumValue, storage *TypeDescriptor) ([]EnumValue, error) {
	out := make([]EnumValue, 0, len(raw))
	seen := map[string]struct{}{}
	for _, v := range raw {
		if !isIdent(v.Name) {
			return nil, malformed(path, "enum value %q is not an identifier", v.Name)
		}
		if _, ok := seen[v.Name]; ok {
			return nil, duplicate(path+"."+v.Name, "enum value", v.Name)
		}
		seen[v.Name] = struct{}{}
		n, err := parseInt(v.Value)
		if err != nil {
			return nil, malformed(path+"."+v.Name, "value %q is not an integer", v.Value)
		}
		if err := checkRange(v.Value, n, storage); err != nil {
			return nil, malformed(path+"."+v.Name, "%v", err)
		}
		if err := checkQuotes(v.Doc); err != nil {
			return nil, malformed(path+"."+v.Name, "%v", err)
		}
		out = append(out, EnumValue{Name: v.Name, Value: n, Doc: v.Doc})
	}
	return out, nil
}

// checkRange reports whether the literal text, parsed as n, is representable
// in the integer storage of d. Negative literals never fit unsigned storage;
// unsigned 64-bit values above MaxInt64 arrive wrapped and are accepted.
func checkRange(text string, n int64, d *TypeDescriptor) error {
	bits := uint(8 * d.Size)
	if d.Scalar == ScalarUnsigned {
		if strings.HasPrefix(strings.TrimSpace(text), "-") {
			return fmt.Errorf("value %s is negative but %s is unsigned", text, d.Name)
		}
		if bits < 64 && (n < 0 || uint64(n) >= 1<<bits) {
			return fmt.Errorf("value %s overflows %d-bit %s", text, bits, d.Name)
		}
		return nil
	}
	if bits < 64 {
		limit := int64(1) << (bits - 1)
		if n < -limit || n >= limit {
			return fmt.Errorf("value %s overflows %d-bit %s", text, bits, d.Name)
		}
	} else if n < 0 && !strings.HasPrefix(strings.TrimSpace(text), "-") {
		return fmt.Errorf("value %s overflows 64-bit %s", text, d.Name)
	}
	return nil
}

// parseInt accepts decimal, hex, octal and binary literals, optionally negative.
// Values above MaxInt64 (e.g. 0xFFFFFFFFFFFFFFFF) wrap like their C bit pattern.
func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err == nil {
		return n, nil
	}
	u, uerr := strconv.ParseUint(s, 0, 64)
	if uerr != nil {
		return 0, err
	}
	return int64(u), nil
}
