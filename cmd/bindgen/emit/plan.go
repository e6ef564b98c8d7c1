package emit

import (
	"fmt"

	"go-bindgen/cmd/bindgen/decl"
)

// Role is how a native parameter surfaces in a host wrapper.
type Role int

const (
	RoleValue   Role = iota // passed through unchanged
	RoleString              // const char* input taken as a host string
	RoleHidden              // computed: expression or length_of
	RoleCount               // capacity of an auto-sized buffer, computed from the buffer
	RoleSlice               // pointer taken as a slice
	RoleQuery               // query-or-write buffer
	RoleOut                 // single-element output, returned by value
	RoleStatus              // status output, returned as an error
	RolePointer             // raw pointer passed through
)

var roleNames = [...]string{"value", "string", "hidden", "count", "slice", "query", "out", "status", "pointer"}

func (r Role) String() string { return roleNames[r] }

// PlannedParam is a parameter with its host role.
type PlannedParam struct {
	*decl.ValidatedParam
	Role  Role
	Ident string
	// Sizes names the buffer a RoleCount or length_of parameter describes.
	Sizes string
}

// Elem is the pointee for pointer roles and the type itself otherwise.
func (p *PlannedParam) Elem() *decl.TypeDescriptor { return p.Base }

// CallPlan is the host-side shape of one function.
type CallPlan struct {
	Fn     *decl.ValidatedFunction
	Params []*PlannedParam
	Query  *PlannedParam
	// SizeViaReturn is set when the query buffer's required size is the
	// function's return value rather than an auto-size parameter.
	SizeViaReturn bool
	ReturnsValue  bool
	ReturnsResult bool
	HasErr        bool
}

// PlanCall assigns a role to every parameter of fn.
func PlanCall(fn *decl.ValidatedFunction) (*CallPlan, error) {
	plan := &CallPlan{Fn: fn}
	counted := map[string]string{}  // size param → buffer
	lengthOf := map[string]string{} // buffer → length param
	for _, p := range fn.Params {
		if p.AutoSizedBy != "" {
			counted[p.AutoSizedBy] = p.Name
		}
		if p.LengthOf != "" {
			lengthOf[p.LengthOf] = p.Name
		}
	}

	for i := range fn.Params {
		vp := &fn.Params[i]
		pp := &PlannedParam{ValidatedParam: vp, Ident: ParamName(vp.Name)}
		_, isLengthTarget := lengthOf[vp.Name]
		switch {
		case vp.Expression != "":
			pp.Role = RoleHidden
		case vp.LengthOf != "":
			pp.Role, pp.Sizes = RoleHidden, vp.LengthOf
		case counted[vp.Name] != "":
			pp.Role, pp.Sizes = RoleCount, counted[vp.Name]
		case vp.Status:
			pp.Role = RoleStatus
		case vp.Convention == decl.ConvQuery:
			pp.Role = RoleQuery
		case vp.Convention == decl.ConvWrite || vp.AutoSizedBy != "" || isLengthTarget:
			pp.Role = RoleSlice
		case vp.HasCheck && vp.Check == 1 && vp.Direction == decl.DirOut && !vp.Nullable:
			pp.Role = RoleOut
		case vp.HasCheck && vp.Check > 1:
			pp.Role = RoleSlice
		case isCString(vp.Desc) && vp.Direction == decl.DirIn:
			pp.Role = RoleString
		case vp.Desc.IsPointer():
			pp.Role = RolePointer
		default:
			pp.Role = RoleValue
		}
		plan.Params = append(plan.Params, pp)
		if pp.Role == RoleQuery {
			plan.Query = pp
		}
	}

	ret := fn.Ret
	plan.ReturnsResult = ret.Kind == decl.KindResult
	if plan.Query != nil && plan.Query.AutoSizedBy == "" {
		if !ret.IsInteger() || plan.ReturnsResult {
			return nil, fmt.Errorf("%s: query buffer %s needs an auto-size parameter or an integer return", fn.NativeName(), plan.Query.Name)
		}
		plan.SizeViaReturn = true
	}
	plan.ReturnsValue = !ret.IsVoid() && !plan.ReturnsResult && !plan.SizeViaReturn

	plan.HasErr = plan.ReturnsResult || plan.Query != nil || fn.Optional
	for _, p := range plan.Params {
		if (p.HasCheck && !p.Unsafe) || len(p.Legal) > 0 || p.Role == RoleStatus {
			plan.HasErr = true
		}
	}
	return plan, nil
}

// Param returns the planned parameter with the given native name.
func (c *CallPlan) Param(name string) *PlannedParam {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HostParams lists the parameters the host caller supplies.
func (c *CallPlan) HostParams() []*PlannedParam {
	var out []*PlannedParam
	for _, p := range c.Params {
		switch p.Role {
		case RoleHidden, RoleCount, RoleOut, RoleStatus:
			continue
		}
		out = append(out, p)
	}
	return out
}

// Outs lists the parameters returned by value: single-element outputs and the
// pointer capacities of write buffers, which report how much was written.
func (c *CallPlan) Outs() []*PlannedParam {
	var out []*PlannedParam
	for _, p := range c.Params {
		switch {
		case p.Role == RoleOut:
			out = append(out, p)
		case p.Role == RoleCount && !c.sizesQuery(p) && p.Desc.IsPointer():
			out = append(out, p)
		}
	}
	return out
}

// sizesQuery reports whether p is the capacity of the query buffer.
func (c *CallPlan) sizesQuery(p *PlannedParam) bool {
	return c.Query != nil && p.Sizes == c.Query.Name
}

func isCString(d *decl.TypeDescriptor) bool {
	return d.Kind == decl.KindConstPointer && d.Elem.Name == "char"
}
