package decl

import (
	"fmt"
	"strings"
)

// Parse turns a raw module into a ModuleSpec.
//
// Types and enums must already be declared in reg (see Declare); Parse only
// reads the registry. Every entry is parsed independently, so the order of
// entries within a module does not change the result.
func Parse(raw RawModule, reg *Registry) (*ModuleSpec, error) {
	if !isIdent(raw.Name) {
		return nil, malformed(orPlaceholder(raw.Name), "module needs an identifier name (source %s)", orPlaceholder(raw.Source))
	}
	path := raw.Name
	if err := checkQuotes(raw.Doc); err != nil {
		return nil, malformed(path, "%v", err)
	}

	m := &ModuleSpec{
		Name:    raw.Name,
		API:     raw.API,
		Prefix:  raw.Prefix,
		Library: raw.Library,
		Doc:     raw.Doc,
		Source:  raw.Source,
	}
	var err error
	if m.Binding, err = parseBinding(raw.Binding); err != nil {
		return nil, malformed(path, "%v", err)
	}
	if m.CallConv, err = parseCallConv(raw.CallConv); err != nil {
		return nil, malformed(path, "%v", err)
	}

	for _, t := range raw.Types {
		d, err := reg.Resolve(t.Name)
		if err != nil {
			return nil, malformed(path+"."+t.Name, "type was not declared before parsing")
		}
		if err := checkQuotes(t.Doc); err != nil {
			return nil, malformed(path+"."+t.Name, "%v", err)
		}
		// An identical re-declaration belongs to the module that registered it first.
		if d.Module != raw.Name {
			continue
		}
		m.Types = append(m.Types, d)
	}

	for _, e := range raw.Enums {
		ep := path + "." + e.Name
		if err := checkQuotes(e.Doc); err != nil {
			return nil, malformed(ep, "%v", err)
		}
		d, err := reg.Resolve(e.Name)
		if err != nil {
			return nil, malformed(ep, "enum was not declared before parsing")
		}
		values, err := parseEnumValues(ep, e.Values, d)
		if err != nil {
			return nil, err
		}
		if d.Module != raw.Name {
			continue
		}
		under := e.Underlying
		if under == "" {
			under = "int32_t"
		}
		m.Enums = append(m.Enums, EnumSpec{
			Name: e.Name, Module: raw.Name, Underlying: under,
			Result: e.Result, Values: values, Doc: e.Doc,
		})
	}

	consts := map[string]struct{}{}
	for _, c := range raw.Constants {
		if _, ok := consts[c.Name]; ok {
			return nil, duplicate(path+"."+c.Name, "constant", c.Name)
		}
		consts[c.Name] = struct{}{}
		cs, err := parseConstant(raw.Name, c, reg)
		if err != nil {
			return nil, err
		}
		m.Constants = append(m.Constants, cs)
	}

	funcs := map[string]struct{}{}
	for _, f := range raw.Functions {
		if _, ok := funcs[f.Name]; ok {
			return nil, duplicate(path+"."+f.Name, "function", f.Name)
		}
		funcs[f.Name] = struct{}{}
		fs, err := ParseFunction(m, f, reg)
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, fs)
	}

	for i, name := range raw.TableOrder {
		if !isIdent(name) {
			return nil, malformed(path, "table_order[%d] %q is not an identifier", i, name)
		}
	}
	m.TableOrder = append([]string(nil), raw.TableOrder...)
	return m, nil
}

// ParseFunction parses one function in the context of its module.
func ParseFunction(m *ModuleSpec, f RawFunction, reg *Registry) (FunctionSpec, error) {
	path := m.Name + "." + orPlaceholder(f.Name)
	if !isIdent(f.Name) {
		return FunctionSpec{}, malformed(path, "function needs an identifier name")
	}
	for _, doc := range []string{f.Doc, f.ReturnDoc} {
		if err := checkQuotes(doc); err != nil {
			return FunctionSpec{}, malformed(path, "%v", err)
		}
	}
	ret := f.Returns
	if ret == "" {
		ret = "void"
	}
	retRef, err := ParseTypeRef(ret)
	if err != nil {
		return FunctionSpec{}, malformed(path, "return type: %v", err)
	}

	fs := FunctionSpec{
		Name:          f.Name,
		Prefix:        m.Prefix,
		Return:        retRef,
		Doc:           f.Doc,
		ReturnDoc:     f.ReturnDoc,
		Binding:       m.Binding,
		CallConv:      m.CallConv,
		Optional:      f.Optional,
		Discriminator: f.Discriminator,
		Module:        m.Name,
	}
	seen := map[string]struct{}{}
	for i, p := range f.Params {
		if !isIdent(p.Name) {
			return FunctionSpec{}, malformed(path, "parameter %d needs an identifier name", i)
		}
		if _, ok := seen[p.Name]; ok {
			return FunctionSpec{}, malformed(path+"."+p.Name, "parameter declared twice")
		}
		seen[p.Name] = struct{}{}
		ps, err := parseParam(path+"."+p.Name, p, reg)
		if err != nil {
			return FunctionSpec{}, err
		}
		fs.Params = append(fs.Params, ps)
	}
	return fs, nil
}

func parseParam(path string, p RawParam, reg *Registry) (ParameterSpec, error) {
	ref, err := ParseTypeRef(p.Type)
	if err != nil {
		return ParameterSpec{}, malformed(path, "%v", err)
	}
	if err := checkQuotes(p.Doc); err != nil {
		return ParameterSpec{}, malformed(path, "%v", err)
	}
	ps := ParameterSpec{
		Name:        p.Name,
		Type:        ref,
		Nullable:    p.Nullable,
		Unsafe:      p.Unsafe,
		Doc:         p.Doc,
		AutoSizedBy: p.AutoSize,
		LengthOf:    p.LengthOf,
		Expression:  strings.TrimSpace(p.Expression),
		Status:      p.Status,
		Pattern:     p.Values,
	}
	if ps.Direction, err = parseDirection(p.Dir); err != nil {
		return ParameterSpec{}, malformed(path, "%v", err)
	}
	if ps.Convention, err = parseConvention(p.Convention); err != nil {
		return ParameterSpec{}, malformed(path, "%v", err)
	}
	if p.Check != nil {
		ps.Check, ps.HasCheck = *p.Check, true
	}
	if p.Values != "" {
		// An unknown base type is left for the validator to report.
		if enum, err := reg.Resolve(ref.Base); err == nil {
			legal, err := ResolveLegalValues(p.Values, enum)
			if err != nil {
				return ParameterSpec{}, malformed(path, "%v", err)
			}
			ps.Legal = legal
		}
	}
	return ps, nil
}

func parseConstant(module string, c RawConstant, reg *Registry) (ConstantSpec, error) {
	path := module + "." + orPlaceholder(c.Name)
	if !isIdent(c.Name) {
		return ConstantSpec{}, malformed(path, "constant needs an identifier name")
	}
	if err := checkQuotes(c.Doc); err != nil {
		return ConstantSpec{}, malformed(path, "%v", err)
	}
	cs := ConstantSpec{Name: c.Name, Module: module, Doc: c.Doc}
	switch {
	case c.Extends != "":
		enum, err := reg.Resolve(c.Extends)
		if err != nil {
			return ConstantSpec{}, fmt.Errorf("phase=parse path=%s: %w", path, err)
		}
		if enum.Kind != KindEnum && enum.Kind != KindResult {
			return ConstantSpec{}, malformed(path, "extends non-enum type %s", enum.Name)
		}
		n, err := parseInt(c.Value)
		if err != nil {
			return ConstantSpec{}, malformed(path, "value %q is not an integer", c.Value)
		}
		if err := checkRange(c.Value, n, enum); err != nil {
			return ConstantSpec{}, malformed(path, "%v", err)
		}
		cs.Kind, cs.Type, cs.Int = ConstEnum, enum.Name, n
	case c.Type == "string":
		cs.Kind, cs.Type, cs.Str = ConstString, "string", c.Value
	default:
		typ := c.Type
		if typ == "" {
			typ = "int32_t"
		}
		d, err := reg.Resolve(typ)
		if err != nil {
			return ConstantSpec{}, fmt.Errorf("phase=parse path=%s: %w", path, err)
		}
		if !d.IsInteger() {
			return ConstantSpec{}, malformed(path, "constant type %s is not an integer", typ)
		}
		n, err := parseInt(c.Value)
		if err != nil {
			return ConstantSpec{}, malformed(path, "value %q is not an integer", c.Value)
		}
		if err := checkRange(c.Value, n, d); err != nil {
			return ConstantSpec{}, malformed(path, "%v", err)
		}
		cs.Kind, cs.Type, cs.Int = ConstInt, typ, n
	}
	return cs, nil
}

func parseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "in":
		return DirIn, nil
	case "out":
		return DirOut, nil
	case "inout", "in-out", "in_out":
		return DirInOut, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want in, out or inout)", s)
}

func parseConvention(s string) (Convention, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ConvNone, nil
	case "write", "always-write":
		return ConvWrite, nil
	case "query", "query-or-write":
		return ConvQuery, nil
	}
	return 0, fmt.Errorf("unknown buffer convention %q (want write or query)", s)
}

func parseBinding(s string) (Binding, error) {
	switch strings.ToLower(s) {
	case "", "direct":
		return BindingDirect, nil
	case "function-table", "fntable", "table":
		return BindingFunctionTable, nil
	}
	return 0, fmt.Errorf("unknown binding %q (want direct or function-table)", s)
}

func parseCallConv(s string) (CallConv, error) {
	switch strings.ToLower(s) {
	case "", "c", "cdecl":
		return CallConvC, nil
	case "system", "stdcall", "apientry":
		return CallConvSystem, nil
	}
	return 0, fmt.Errorf("unknown calling convention %q (want c or system)", s)
}

// checkQuotes rejects documentation with an unterminated double quote.
func checkQuotes(doc string) error {
	if strings.Count(doc, `"`)%2 != 0 {
		return fmt.Errorf("documentation has an unbalanced double quote")
	}
	return nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return "<missing>"
	}
	return s
}
