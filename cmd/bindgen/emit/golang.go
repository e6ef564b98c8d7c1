package emit

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/fntable"
)

func init() {
	Register("go", func() Target { return &GoTarget{} })
}

// GoTarget emits purego-backed Go bindings.
type GoTarget struct{}

func (t *GoTarget) Name() string      { return "go" }
func (t *GoTarget) ClosedEnums() bool { return true }

func (t *GoTarget) Emit(mod *decl.ValidatedModule, opts Options) ([]*OutputFile, error) {
	g := &goGen{mod: mod, rt: opts.runtime(), plans: map[string]*CallPlan{}}
	for _, fn := range mod.Functions {
		plan, err := PlanCall(fn)
		if err != nil {
			return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
		}
		g.plans[fn.Name] = plan
	}

	src := opts.Source
	if src == "" {
		src = mod.Source
	}
	if src == "" {
		src = mod.Name
	}
	f := jen.NewFile(opts.pkg())
	f.HeaderComment(fmt.Sprintf("Code generated by bindgen from %s. DO NOT EDIT.", src))
	f.ImportName(g.rt, "native")

	steps := []func(*jen.File) error{g.types, g.enums, g.constants, g.binder, g.wrappers}
	for _, step := range steps {
		if err := step(f); err != nil {
			return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("phase=emit path=%s: render: %w", mod.Name, err)
	}
	return []*OutputFile{{Path: FileStem(mod.Name) + ".go", Content: buf.Bytes(), Module: mod.Name}}, nil
}

// EmitFunction renders the raw signature and wrapper of a single function,
// for previews.
func (t *GoTarget) EmitFunction(mod *decl.ValidatedModule, fn *decl.ValidatedFunction) (string, error) {
	plan, err := PlanCall(fn)
	if err != nil {
		return "", err
	}
	g := &goGen{mod: mod, rt: DefaultRuntime, plans: map[string]*CallPlan{fn.Name: plan}}
	raw, err := g.rawField(fn)
	if err != nil {
		return "", err
	}
	f := jen.NewFile("preview")
	f.Type().Id(g.funcsType()).Struct(raw)
	if err := g.wrapper(f, plan); err != nil {
		return "", err
	}
	return fmt.Sprintf("%#v", f), nil
}

// FileStem is the lower-case file name of a module.
func FileStem(module string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, module)
}

type goGen struct {
	mod   *decl.ValidatedModule
	rt    string
	plans map[string]*CallPlan
}

var builtinGo = map[string]string{
	"bool":      "bool",
	"char":      "byte",
	"int8_t":    "int8",
	"uint8_t":   "uint8",
	"int16_t":   "int16",
	"uint16_t":  "uint16",
	"int32_t":   "int32",
	"uint32_t":  "uint32",
	"int64_t":   "int64",
	"uint64_t":  "uint64",
	"size_t":    "uintptr",
	"intptr_t":  "int",
	"uintptr_t": "uintptr",
	"float":     "float32",
	"double":    "float64",
}

// GoTypeName is the Go name of a declared native type. The native spelling
// is kept so bindings read like the C headers they mirror.
func GoTypeName(name string) string { return ExportName(name) }

func (g *goGen) goType(d *decl.TypeDescriptor) (*jen.Statement, error) {
	switch {
	case d.IsPointer():
		if d.Elem.IsVoid() {
			return jen.Qual("unsafe", "Pointer"), nil
		}
		elem, err := g.goType(d.Elem)
		if err != nil {
			return nil, err
		}
		return jen.Op("*").Add(elem), nil
	case d.IsVoid():
		return nil, fmt.Errorf("void has no Go value type")
	case d.Module == "":
		name, ok := builtinGo[d.Name]
		if !ok {
			return nil, fmt.Errorf("no Go type for builtin %s", d.Name)
		}
		return jen.Id(name), nil
	}
	return jen.Id(GoTypeName(d.Name)), nil
}

// elemType is the slice element type of a buffer; void buffers are bytes.
func (g *goGen) elemType(d *decl.TypeDescriptor) (*jen.Statement, error) {
	if d.IsVoid() {
		return jen.Byte(), nil
	}
	return g.goType(d)
}

func (g *goGen) underlyingGo(d *decl.TypeDescriptor) string {
	if name, ok := builtinGo[d.Underlying]; ok {
		return name
	}
	if u, err := g.mod.Registry.Resolve(d.Underlying); err == nil && u.Module != "" {
		return GoTypeName(u.Name)
	}
	if d.Size == decl.PointerSize {
		return "uintptr"
	}
	return fmt.Sprintf("uint%d", d.Size*8)
}

func intLit(v int64, d *decl.TypeDescriptor) jen.Code {
	if v < 0 && d != nil && d.Scalar == decl.ScalarUnsigned {
		return jen.Id(fmt.Sprintf("%#x", uint64(v)))
	}
	return jen.Lit(int(v))
}

func docLines(f *jen.File, texts ...string) {
	first := true
	for _, text := range texts {
		if text == "" {
			continue
		}
		if !first {
			f.Comment("")
		}
		first = false
		for _, line := range strings.Split(text, "\n") {
			f.Comment(strings.TrimRight(line, " \t"))
		}
	}
}

// ---- Types -----------------------------------------------------------------

func (g *goGen) types(f *jen.File) error {
	for _, d := range g.mod.Types {
		name := GoTypeName(d.Name)
		switch d.Kind {
		case decl.KindStruct:
			if err := g.structMirror(f, d); err != nil {
				return err
			}
		case decl.KindOpaque:
			docLines(f, fmt.Sprintf("%s is an opaque native handle.", name), d.Doc)
			f.Type().Id(name).Id(g.underlyingGo(d))
		default:
			docLines(f, fmt.Sprintf("%s is the native %s.", name, d.Underlying), d.Doc)
			f.Type().Id(name).Id(g.underlyingGo(d))
		}
		f.Line()
	}
	return nil
}

func (g *goGen) structMirror(f *jen.File, d *decl.TypeDescriptor) error {
	name := GoTypeName(d.Name)
	mirror, err := MirrorFields(g.mod.Registry, d)
	if err != nil {
		return err
	}
	var fields []jen.Code
	for _, mf := range mirror {
		if mf.IsPadding() {
			fields = append(fields, jen.Id("_").Index(jen.Lit(mf.Size)).Byte())
			continue
		}
		t, err := g.goType(mf.Desc)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, mf.Name, err)
		}
		field := jen.Id(ExportName(mf.Name))
		if mf.Count > 1 {
			field = field.Index(jen.Lit(mf.Count))
		}
		fields = append(fields, field.Add(t))
	}
	docLines(f, fmt.Sprintf("%s mirrors the native struct (%d bytes, align %d).", name, d.Size, d.Align), d.Doc)
	f.Type().Id(name).Struct(fields...)

	sizeof := jen.Qual("unsafe", "Sizeof").Call(jen.Id(name).Values())
	f.Comment("Fails to compile if the mirror drifts from the native size.")
	f.Var().Defs(
		jen.Id("_").Index(sizeof.Clone().Op("-").Lit(d.Size)).Byte(),
		jen.Id("_").Index(jen.Lit(d.Size).Op("-").Add(sizeof.Clone())).Byte(),
	)
	return nil
}

// ---- Enums and constants ---------------------------------------------------

func namesVar(enum string) string { return LowerCamel(enum) + "Names" }

func (g *goGen) enums(f *jen.File) error {
	for _, e := range g.mod.Enums {
		d, err := g.mod.Registry.Resolve(e.Name)
		if err != nil {
			return err
		}
		name := GoTypeName(e.Name)
		kind := "enum"
		if e.Result {
			kind = "result code"
		}
		docLines(f, fmt.Sprintf("%s is a native %s.", name, kind), e.Doc)
		f.Type().Id(name).Id(g.underlyingGo(d))
		f.Line()

		if len(e.Values) > 0 {
			f.Const().DefsFunc(func(grp *jen.Group) {
				for _, v := range e.Values {
					if v.Doc != "" {
						for _, line := range strings.Split(v.Doc, "\n") {
							grp.Comment(line)
						}
					}
					grp.Id(ExportName(v.Name)).Id(name).Op("=").Add(intLit(v.Value, d))
				}
			})
			f.Line()
		}

		seen := map[int64]bool{}
		f.Var().Id(namesVar(e.Name)).Op("=").Map(jen.Id(name)).String().Values(jen.DictFunc(func(dict jen.Dict) {
			for _, v := range e.Values {
				if seen[v.Value] {
					continue
				}
				seen[v.Value] = true
				dict[jen.Id(ExportName(v.Name))] = jen.Lit(v.Name)
			}
		}))
		f.Line()

		f.Comment("String returns the native name of v.")
		f.Func().Params(jen.Id("v").Id(name)).Id("String").Params().String().Block(
			jen.If(jen.List(jen.Id("s"), jen.Id("ok")).Op(":=").Id(namesVar(e.Name)).Index(jen.Id("v")), jen.Id("ok")).Block(
				jen.Return(jen.Id("s")),
			),
			jen.Return(jen.Lit(name+"(").Op("+").Qual("strconv", "FormatInt").Call(jen.Int64().Call(jen.Id("v")), jen.Lit(10)).Op("+").Lit(")")),
		)
		f.Line()
		f.Comment("Valid reports whether v is one of the declared values.")
		f.Func().Params(jen.Id("v").Id(name)).Id("Valid").Params().Bool().Block(
			jen.List(jen.Id("_"), jen.Id("ok")).Op(":=").Id(namesVar(e.Name)).Index(jen.Id("v")),
			jen.Return(jen.Id("ok")),
		)
		f.Line()
	}
	return nil
}

func (g *goGen) constants(f *jen.File) error {
	for _, c := range g.mod.Constants {
		name := ExportName(c.Name)
		docLines(f, c.Doc)
		switch c.Kind {
		case decl.ConstString:
			f.Const().Id(name).Op("=").Lit(c.Str)
		case decl.ConstEnum:
			d, err := g.mod.Registry.Resolve(c.Type)
			if err != nil {
				return err
			}
			f.Const().Id(name).Id(GoTypeName(c.Type)).Op("=").Add(intLit(c.Int, d))
		default:
			d, err := g.mod.Registry.Resolve(c.Type)
			if err != nil {
				return err
			}
			t, err := g.goType(d)
			if err != nil {
				return err
			}
			f.Const().Id(name).Add(t).Op("=").Add(intLit(c.Int, d))
		}
	}
	if len(g.mod.Constants) > 0 {
		f.Line()
	}

	var exts []decl.ConstantSpec
	for _, c := range g.mod.Constants {
		if c.Kind == decl.ConstEnum {
			exts = append(exts, c)
		}
	}
	if len(exts) > 0 {
		f.Comment("Values added to enums declared elsewhere join their names tables.")
		f.Func().Id("init").Params().BlockFunc(func(grp *jen.Group) {
			for _, c := range exts {
				names := jen.Id(namesVar(c.Type))
				key := jen.Id(ExportName(c.Name))
				grp.If(jen.List(jen.Id("_"), jen.Id("ok")).Op(":=").Add(names.Clone()).Index(key.Clone()), jen.Op("!").Id("ok")).Block(
					names.Clone().Index(key.Clone()).Op("=").Lit(c.Name),
				)
			}
		})
		f.Line()
	}
	return nil
}

// ---- Raw signatures and binding --------------------------------------------

func (g *goGen) holder() string    { return LowerCamel(g.mod.Name) }
func (g *goGen) funcsType() string { return LowerCamel(g.mod.Name) + "Funcs" }

func (g *goGen) rawParamType(p *PlannedParam) (*jen.Statement, error) {
	if p.Role == RoleString {
		return jen.String(), nil
	}
	return g.goType(p.Desc)
}

func (g *goGen) rawRetType(fn *decl.ValidatedFunction) (*jen.Statement, error) {
	switch {
	case fn.Ret.IsVoid():
		return jen.Null(), nil
	case isCString(fn.Ret):
		return jen.String(), nil
	}
	return g.goType(fn.Ret)
}

func (g *goGen) rawField(fn *decl.ValidatedFunction) (jen.Code, error) {
	plan := g.plans[fn.Name]
	var params []jen.Code
	for _, p := range plan.Params {
		t, err := g.rawParamType(p)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", fn.NativeName(), p.Name, err)
		}
		params = append(params, jen.Id(p.Ident).Add(t))
	}
	ret, err := g.rawRetType(fn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.NativeName(), err)
	}
	tag := fn.NativeName()
	if fn.Binding == decl.BindingFunctionTable {
		tag = fn.Name
	}
	if fn.Optional {
		tag += ",optional"
	}
	return jen.Id(GoName(fn.Name)).Func().Params(params...).Add(ret).Tag(map[string]string{"ffi": tag}), nil
}

func (g *goGen) binder(f *jen.File) error {
	if len(g.mod.Functions) == 0 {
		return nil
	}
	var fields []jen.Code
	for _, fn := range g.mod.Functions {
		field, err := g.rawField(fn)
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}
	modName := GoName(g.mod.Name)
	f.Comment(g.funcsType() + " holds the native entry points of " + g.mod.Name + ".")
	f.Type().Id(g.funcsType()).Struct(fields...)
	f.Line()
	f.Var().Id(g.holder()).Op("*").Id(g.funcsType())
	f.Line()

	if g.mod.Library != "" {
		f.Comment(modName + "Library is the base name of the native library exporting " + g.mod.Name + ".")
		f.Const().Id(modName + "Library").Op("=").Lit(g.mod.Library)
		f.Line()
	}

	fns := jen.Var().Id("fns").Id(g.funcsType())
	publish := []jen.Code{
		jen.Id(g.holder()).Op("=").Op("&").Id("fns"),
		jen.Return(jen.Nil()),
	}

	if g.mod.Binding == decl.BindingFunctionTable {
		tbl, err := fntable.Plan(g.mod)
		if err != nil {
			return err
		}
		slotsVar := modName + "Slots"
		f.Comment(slotsVar + " is the native function table of " + g.mod.Name + " in ABI order.")
		f.Var().Id(slotsVar).Op("=").Index().Qual(g.rt, "Slot").ValuesFunc(func(grp *jen.Group) {
			for _, s := range tbl.Slots {
				grp.Line().Values(jen.Dict{
					jen.Id("Name"):     jen.Lit(s.Name),
					jen.Id("Required"): jen.Lit(s.Required),
				})
			}
			grp.Line()
		})
		f.Line()
		docLines(f,
			"Bind"+modName+" binds the "+g.mod.Name+" function table read from src. It\n"+
				"must succeed before any "+g.mod.Name+" function is called; on failure the\n"+
				"previously bound table, if any, stays in place.",
			g.mod.Doc)
		f.Func().Id("Bind"+modName).Params(jen.Id("src").Qual(g.rt, "SlotSource")).Error().Block(append([]jen.Code{
			jen.List(jen.Id("tbl"), jen.Err()).Op(":=").Qual(g.rt, "Bind").Call(jen.Id("src"), jen.Id(slotsVar)),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
			fns,
			jen.If(jen.Err().Op(":=").Id("tbl").Dot("Load").Call(jen.Op("&").Id("fns")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		}, publish...)...)
		f.Line()
		return nil
	}

	docLines(f,
		"Load"+modName+" resolves the "+g.mod.Name+" entry points exported by lib. It\n"+
			"must succeed before any "+g.mod.Name+" function is called.",
		g.mod.Doc)
	f.Func().Id("Load"+modName).Params(jen.Id("lib").Op("*").Qual(g.rt, "Library")).Error().Block(append([]jen.Code{
		fns,
		jen.If(jen.Err().Op(":=").Id("lib").Dot("Load").Call(jen.Op("&").Id("fns")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Err()),
		),
	}, publish...)...)
	f.Line()

	if g.mod.Library != "" {
		docLines(f, "Open"+modName+" opens "+modName+"Library with the platform loader and\n"+
			"resolves its entry points. The caller closes the returned library.")
		f.Func().Id("Open"+modName).Params().Params(jen.Op("*").Qual(g.rt, "Library"), jen.Error()).Block(
			jen.List(jen.Id("lib"), jen.Err()).Op(":=").Qual(g.rt, "Open").Call(
				jen.Qual(g.rt, "DefaultLoader"),
				jen.Qual(g.rt, "LibraryFile").Call(jen.Id(modName+"Library")),
			),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.If(jen.Err().Op(":=").Id("Load"+modName).Call(jen.Id("lib")), jen.Err().Op("!=").Nil()).Block(
				jen.Id("lib").Dot("Close").Call(),
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(jen.Id("lib"), jen.Nil()),
		)
		f.Line()
	}
	return nil
}

// ---- Wrappers --------------------------------------------------------------

func (g *goGen) wrappers(f *jen.File) error {
	for _, fn := range g.mod.Functions {
		if err := g.wrapper(f, g.plans[fn.Name]); err != nil {
			return err
		}
	}
	return nil
}

func (g *goGen) wrapper(f *jen.File, plan *CallPlan) error {
	fn := plan.Fn
	name := GoName(fn.NativeName())

	var params, results []jen.Code
	for _, p := range plan.HostParams() {
		var t *jen.Statement
		var err error
		switch p.Role {
		case RoleString:
			t = jen.String()
		case RoleSlice, RoleQuery:
			t, err = g.elemType(p.Base)
			t = jen.Index().Add(t)
		default:
			t, err = g.goType(p.Desc)
		}
		if err != nil {
			return fmt.Errorf("%s.%s: %w", fn.NativeName(), p.Name, err)
		}
		params = append(params, jen.Id(p.Ident).Add(t))
	}
	for _, p := range plan.Outs() {
		t, err := g.goType(p.Base)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", fn.NativeName(), p.Name, err)
		}
		results = append(results, jen.Id(p.Ident).Add(t))
	}
	if plan.ReturnsValue {
		t, err := g.rawRetType(fn)
		if err != nil {
			return err
		}
		results = append(results, jen.Id("ret").Add(t))
	}
	if plan.Query != nil {
		results = append(results, jen.Id("size").Uint32())
	}
	if plan.HasErr {
		results = append(results, jen.Err().Error())
	}

	body, err := g.wrapperBody(plan)
	if err != nil {
		return fmt.Errorf("%s: %w", fn.NativeName(), err)
	}

	var pdocs []string
	for _, p := range plan.Params {
		if len(p.Legal) > 0 {
			names := make([]string, len(p.Legal))
			for i, v := range p.Legal {
				names[i] = ExportName(v.Name)
			}
			pdocs = append(pdocs, p.Ident+" must be one of "+strings.Join(names, ", ")+".")
		}
		if p.Doc != "" && p.Role != RoleHidden && p.Role != RoleCount {
			pdocs = append(pdocs, p.Ident+": "+p.Doc)
		}
	}
	if fn.Discriminator != "" {
		pdocs = append(pdocs, ParamName(fn.Discriminator)+" selects whether the output buffers are written or only sized.")
	}
	ret := ""
	if fn.ReturnDoc != "" {
		ret = "Returns " + fn.ReturnDoc
	}
	docLines(f, name+" calls "+fn.NativeName()+".", fn.Doc, strings.Join(pdocs, "\n"), ret)
	sig := f.Func().Id(name).Params(params...)
	if len(results) > 0 {
		sig.Params(results...)
	}
	sig.Block(body...)
	f.Line()
	return nil
}

func (g *goGen) wrapperBody(plan *CallPlan) ([]jen.Code, error) {
	fn := plan.Fn
	var body []jen.Code
	ret := func() *jen.Statement { return jen.Return() }
	failIf := func(check jen.Code) jen.Code {
		return jen.If(jen.Err().Op("=").Add(check), jen.Err().Op("!=").Nil()).Block(ret())
	}

	if fn.Optional {
		body = append(body, jen.If(jen.Id(g.holder()).Op("==").Nil().Op("||").Id(g.holder()).Dot(GoName(fn.Name)).Op("==").Nil()).Block(
			jen.Err().Op("=").Op("&").Qual(g.rt, "BindError").Values(jen.Dict{
				jen.Id("Slot"):  jen.Lit(fn.Name),
				jen.Id("Index"): jen.Lit(-1),
			}),
			ret(),
		))
	}

	for _, p := range plan.Params {
		switch {
		case p.Unsafe:
		case p.HasCheck && p.Role == RoleSlice:
			body = append(body, failIf(jen.Qual(g.rt, "CheckLen").Call(jen.Lit(p.Name), jen.Len(jen.Id(p.Ident)), jen.Lit(p.Check))))
		case p.HasCheck && p.Role == RolePointer && !p.Nullable && !p.Base.IsVoid():
			body = append(body, failIf(jen.Qual(g.rt, "CheckPtr").Call(jen.Lit(p.Name), jen.Id(p.Ident))))
		}
		if len(p.Legal) > 0 && p.Role == RoleValue {
			args := []jen.Code{jen.Lit(p.Name), jen.Id(p.Ident)}
			for _, v := range p.Legal {
				args = append(args, jen.Id(ExportName(v.Name)))
			}
			body = append(body, failIf(jen.Qual(g.rt, "OneOf").Call(args...)))
		}
	}

	// Locals the native call writes through.
	var post []jen.Code
	for _, p := range plan.Params {
		switch {
		case p.Role == RoleStatus:
			t, err := g.goType(p.Base)
			if err != nil {
				return nil, err
			}
			body = append(body, jen.Var().Id(p.Ident).Add(t))
			post = append(post, g.result(fn, p.Base, jen.Id(p.Ident)))
		case p.Role == RoleCount && !plan.sizesQuery(p) && p.Desc.IsPointer():
			t, err := g.goType(p.Base)
			if err != nil {
				return nil, err
			}
			buf := plan.Param(p.Sizes)
			body = append(body, jen.Id(p.Ident).Op("=").Add(t).Call(jen.Len(jen.Id(buf.Ident))))
		}
	}

	args, err := g.callArgs(plan, false)
	if err != nil {
		return nil, err
	}
	call := jen.Id(g.holder()).Dot(GoName(fn.Name)).Call(args...)

	if plan.Query != nil {
		q := plan.Query
		elem, err := g.elemType(q.Base)
		if err != nil {
			return nil, err
		}
		cargs, err := g.callArgs(plan, true)
		if err != nil {
			return nil, err
		}
		ccall := jen.Id(g.holder()).Dot(GoName(fn.Name)).Call(cargs...)

		var closure []jen.Code
		var count *PlannedParam
		for _, p := range plan.Params {
			if p.Role == RoleCount && plan.sizesQuery(p) {
				count = p
			}
		}
		if count != nil {
			if !count.Desc.IsPointer() {
				return nil, fmt.Errorf("auto-size parameter %s of a query buffer must be a pointer", count.Name)
			}
			t, err := g.goType(count.Base)
			if err != nil {
				return nil, err
			}
			closure = append(closure, jen.Id(count.Ident).Op(":=").Add(t).Call(jen.Id("capacity")))
		}
		switch {
		case plan.SizeViaReturn:
			closure = append(closure, jen.Return(jen.Uint32().Call(ccall)))
		default:
			switch {
			case plan.ReturnsResult:
				t, err := g.goType(fn.Ret)
				if err != nil {
					return nil, err
				}
				body = append(body, jen.Var().Id("res").Add(t))
				closure = append(closure, jen.Id("res").Op("=").Add(ccall))
				post = append([]jen.Code{g.result(fn, fn.Ret, jen.Id("res"))}, post...)
			case plan.ReturnsValue:
				closure = append(closure, jen.Id("ret").Op("=").Add(ccall))
			default:
				closure = append(closure, ccall)
			}
			closure = append(closure, jen.Return(jen.Uint32().Call(jen.Id(count.Ident))))
		}
		body = append(body,
			jen.List(jen.Id("size"), jen.Err()).Op("=").Qual(g.rt, "QueryOrWrite").Call(
				jen.Lit(q.Name),
				jen.Id(q.Ident),
				jen.Func().Params(jen.Id("ptr").Op("*").Add(elem), jen.Id("capacity").Uint32()).Uint32().Block(closure...),
			),
			jen.If(jen.Err().Op("!=").Nil()).Block(ret()),
		)
	} else {
		switch {
		case plan.ReturnsResult:
			post = append([]jen.Code{g.result(fn, fn.Ret, call)}, post...)
		case plan.ReturnsValue:
			body = append(body, jen.Id("ret").Op("=").Add(call))
		default:
			body = append(body, call)
		}
	}

	for i, check := range post {
		if i == len(post)-1 {
			body = append(body, jen.Err().Op("=").Add(check))
			break
		}
		body = append(body, failIf(check))
	}
	if len(plan.Outs()) > 0 || plan.ReturnsValue || plan.Query != nil || plan.HasErr {
		body = append(body, ret())
	}
	return body, nil
}

// result converts a status value of result type d into an error
// expression. Result enums declared by sibling modules share the package, so
// their names map is in scope.
func (g *goGen) result(fn *decl.ValidatedFunction, d *decl.TypeDescriptor, value jen.Code) jen.Code {
	return jen.Qual(g.rt, "Result").Call(jen.Lit(fn.NativeName()), value, jen.Lit(0), jen.Id(namesVar(d.Name)))
}

func (g *goGen) callArgs(plan *CallPlan, inClosure bool) ([]jen.Code, error) {
	var args []jen.Code
	for _, p := range plan.Params {
		var a jen.Code
		switch p.Role {
		case RoleHidden:
			t, err := g.goType(p.Desc)
			if err != nil {
				return nil, err
			}
			switch {
			case p.Expression != "":
				a = t.Call(jen.Lit(int(p.ExprValue)))
			case plan.Query != nil && p.Sizes == plan.Query.Name:
				if !inClosure {
					a = jen.Lit(0)
				} else {
					a = t.Call(jen.Id("capacity"))
				}
			default:
				a = t.Call(jen.Len(jen.Id(plan.Param(p.Sizes).Ident)))
			}
		case RoleCount:
			switch {
			case p.Desc.IsPointer():
				a = jen.Op("&").Id(p.Ident)
			case plan.sizesQuery(p):
				t, err := g.goType(p.Desc)
				if err != nil {
					return nil, err
				}
				a = t.Call(jen.Id("capacity"))
			default:
				t, err := g.goType(p.Desc)
				if err != nil {
					return nil, err
				}
				a = t.Call(jen.Len(jen.Id(plan.Param(p.Sizes).Ident)))
			}
		case RoleSlice:
			a = voidPtr(p, jen.Qual(g.rt, "SliceData").Call(jen.Id(p.Ident)))
		case RoleQuery:
			a = voidPtr(p, jen.Id("ptr"))
		case RoleOut, RoleStatus:
			a = jen.Op("&").Id(p.Ident)
		default:
			a = jen.Id(p.Ident)
		}
		args = append(args, a)
	}
	return args, nil
}

func voidPtr(p *PlannedParam, ptr *jen.Statement) jen.Code {
	if p.Base.IsVoid() {
		return jen.Qual("unsafe", "Pointer").Call(ptr)
	}
	return ptr
}
