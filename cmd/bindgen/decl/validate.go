package decl

import (
	"fmt"
	"strings"
)

// Validate checks fn against reg and returns its resolved form.
//
// Checks run in a fixed order and the first failure is returned as a
// *ValidationError:
//
//  1. every type reference resolves
//  2. every auto-size reference names an integer out or inout sibling
//  3. every check annotation sits on a pointer and asks for at least one element
//  4. output buffers do not mix write and query conventions without a discriminator
//
// followed by the status, length_of and expression rules.
func Validate(fn FunctionSpec, reg *Registry) (*ValidatedFunction, error) {
	v := &ValidatedFunction{FunctionSpec: fn, Params: make([]ValidatedParam, len(fn.Params))}
	fail := func(param string, reason error, format string, args ...any) (*ValidatedFunction, error) {
		return nil, &ValidationError{
			Function: fn.NativeName(),
			Param:    param,
			Reason:   reason,
			Detail:   fmt.Sprintf(format, args...),
		}
	}

	// 1. types
	ret, err := reg.ResolveRef(fn.Return)
	if err != nil {
		return fail("", ErrUnknownType, "return type %s", fn.Return)
	}
	v.Ret = ret
	for i, p := range fn.Params {
		d, err := reg.ResolveRef(p.Type)
		if err != nil {
			return fail(p.Name, ErrUnknownType, "type %s", p.Type)
		}
		if d.IsVoid() {
			return fail(p.Name, ErrUnknownType, "void is not a parameter type")
		}
		base := d
		if d.IsPointer() {
			base = d.Elem
		}
		v.Params[i] = ValidatedParam{ParameterSpec: p, Desc: d, Base: base}
	}

	// 2. auto-size
	for _, p := range v.Params {
		if p.AutoSizedBy == "" {
			continue
		}
		if !p.Desc.IsPointer() {
			return fail(p.Name, ErrBadAutoSize, "only pointer buffers can be auto-sized")
		}
		size, ok := v.Param(p.AutoSizedBy)
		switch {
		case !ok || size.Name == p.Name:
			return fail(p.Name, ErrBadAutoSize, "%q is not a sibling parameter", p.AutoSizedBy)
		case !size.Base.IsInteger():
			return fail(p.Name, ErrBadAutoSize, "%q is %s, not an integer", size.Name, size.Desc.Name)
		case size.Direction == DirIn:
			return fail(p.Name, ErrBadAutoSize, "%q must be out or inout to report a size", size.Name)
		}
	}

	// 3. check
	for _, p := range v.Params {
		if !p.HasCheck {
			continue
		}
		if p.Check < 1 {
			return fail(p.Name, ErrBadCheck, "check(%d) must be at least 1", p.Check)
		}
		if !p.Desc.IsPointer() {
			return fail(p.Name, ErrBadCheck, "check on non-pointer type %s", p.Desc.Name)
		}
	}

	// 4. buffer conventions
	var write, query int
	for _, p := range v.Params {
		switch p.Convention {
		case ConvNone:
			continue
		case ConvWrite:
			write++
		case ConvQuery:
			query++
		}
		if !p.Desc.IsPointer() || p.Direction == DirIn {
			return fail(p.Name, ErrMixedConventions, "%s convention on a parameter that is not an output buffer", p.Convention)
		}
	}
	if fn.Discriminator != "" {
		if _, ok := v.Param(fn.Discriminator); !ok {
			return fail(fn.Discriminator, ErrMixedConventions, "discriminator is not a parameter")
		}
	}
	if write > 0 && query > 0 && fn.Discriminator == "" {
		return fail("", ErrMixedConventions, "%d write and %d query buffers without a discriminator", write, query)
	}
	if query > 1 {
		return fail("", ErrMultipleQueryBuffers, "%d query buffers", query)
	}
	for _, p := range v.Params {
		if p.Convention != ConvQuery || p.AutoSizedBy != "" {
			continue
		}
		if !ret.IsInteger() || ret.Kind == KindResult {
			return fail(p.Name, ErrMixedConventions, "query buffer needs an auto-size parameter or an integer return, got %s", ret.Name)
		}
	}

	// status
	status := ""
	for _, p := range v.Params {
		if !p.Status {
			continue
		}
		if status != "" {
			return fail(p.Name, ErrBadStatus, "%q is already the status parameter", status)
		}
		status = p.Name
		if !p.Desc.IsPointer() || p.Direction == DirIn || p.Base.Kind != KindResult {
			return fail(p.Name, ErrBadStatus, "status must be an out pointer to a result type, got %s %s", p.Direction, p.Desc.Name)
		}
	}

	// length_of
	for _, p := range v.Params {
		if p.LengthOf == "" {
			continue
		}
		buf, ok := v.Param(p.LengthOf)
		switch {
		case !ok || buf.Name == p.Name:
			return fail(p.Name, ErrBadLengthOf, "%q is not a sibling parameter", p.LengthOf)
		case !buf.Desc.IsPointer():
			return fail(p.Name, ErrBadLengthOf, "%q is not a pointer", buf.Name)
		case p.Desc.IsPointer() || !p.Desc.IsInteger() || p.Direction != DirIn:
			return fail(p.Name, ErrBadLengthOf, "length must be an in integer, got %s %s", p.Direction, p.Desc.Name)
		case p.AutoSizedBy != "" || p.Expression != "":
			return fail(p.Name, ErrBadLengthOf, "length_of cannot be combined with autosize or expression")
		}
	}

	// expression
	for i := range v.Params {
		p := &v.Params[i]
		if p.Expression == "" {
			continue
		}
		if p.Desc.IsPointer() || !p.Desc.IsInteger() {
			return fail(p.Name, ErrBadExpression, "expression on non-integer type %s", p.Desc.Name)
		}
		n, err := evalExpression(p.Expression, reg)
		if err != nil {
			return fail(p.Name, ErrBadExpression, "%v", err)
		}
		p.ExprValue = n
	}

	return v, nil
}

// evalExpression evaluates "sizeof(T)" or an integer literal.
func evalExpression(expr string, reg *Registry) (int64, error) {
	if inner, ok := strings.CutPrefix(expr, "sizeof("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return 0, fmt.Errorf("unterminated sizeof in %q", expr)
		}
		d, err := reg.ResolveExpr(strings.TrimSpace(inner))
		if err != nil {
			return 0, err
		}
		if d.Size == 0 {
			return 0, fmt.Errorf("sizeof(%s) is zero", d.Name)
		}
		return int64(d.Size), nil
	}
	n, err := parseInt(expr)
	if err != nil {
		return 0, fmt.Errorf("%q is neither sizeof(T) nor an integer literal", expr)
	}
	return n, nil
}

// ValidateModule validates every function of m. The first failing function
// stops validation of the module.
func ValidateModule(m *ModuleSpec, reg *Registry) (*ValidatedModule, error) {
	vm := &ValidatedModule{ModuleSpec: m, Registry: reg}
	for _, fn := range m.Functions {
		v, err := Validate(fn, reg)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}
		vm.Functions = append(vm.Functions, v)
	}
	return vm, nil
}
