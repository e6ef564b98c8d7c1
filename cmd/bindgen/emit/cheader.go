package emit

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/fntable"
)

func init() {
	Register("c", func() Target { return &CTarget{} })
}

//go:embed templates/cheader.h.tmpl
var cHeaderText string

var cHeaderTmpl = template.Must(template.New("cheader").Parse(cHeaderText))

// CTarget emits a C header with fixed-width typedefs, layout assertions and
// either prototypes or a function table struct.
type CTarget struct{}

func (t *CTarget) Name() string      { return "c" }
func (t *CTarget) ClosedEnums() bool { return false }

type cHeader struct {
	Source    string
	Guard     string
	Includes  []string
	System    bool
	Typedefs  []cType
	Enums     []cEnum
	Structs   []cType
	Constants []cDefine
	Functions []cFunc
	Table     *cTable
}

type cType struct {
	Name    string
	Doc     []string
	Typedef string
	Fields  []string
	Size    int
	Offsets []cOffset
}

type cOffset struct {
	Field  string
	Offset int
}

type cEnum struct {
	Name       string
	Underlying string
	Doc        []string
	Values     []cEnumValue
}

type cEnumValue struct {
	Name  string
	Value string
	Doc   string
}

type cDefine struct {
	Name  string
	Value string
	Doc   []string
}

type cFunc struct {
	Doc  []string
	Decl string
}

type cSlot struct {
	Doc  string
	Decl string
}

type cTable struct {
	Name  string
	Doc   []string
	Slots []cSlot
}

func (t *CTarget) Emit(mod *decl.ValidatedModule, opts Options) ([]*OutputFile, error) {
	h := &cHeader{
		Source: opts.Source,
		Guard:  "BINDGEN_" + strings.ToUpper(FileStem(mod.Name)) + "_H",
	}
	if h.Source == "" {
		h.Source = mod.Source
	}
	if h.Source == "" {
		h.Source = mod.Name
	}

	deps, err := foreignModules(mod)
	if err != nil {
		return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
	}
	for _, m := range deps {
		h.Includes = append(h.Includes, FileStem(m)+".h")
	}

	types, err := orderTypes(mod.Types)
	if err != nil {
		return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
	}
	for _, d := range types {
		ct, err := cTypeOf(mod.Registry, d)
		if err != nil {
			return nil, fmt.Errorf("phase=emit path=%s.%s: %w", mod.Name, d.Name, err)
		}
		if d.Kind == decl.KindStruct {
			h.Structs = append(h.Structs, ct)
		} else {
			h.Typedefs = append(h.Typedefs, ct)
		}
	}

	for _, e := range mod.Enums {
		d, err := mod.Registry.Resolve(e.Name)
		if err != nil {
			return nil, err
		}
		ce := cEnum{Name: e.Name, Underlying: d.Underlying, Doc: cDoc(e.Doc)}
		for _, v := range e.Values {
			ce.Values = append(ce.Values, cEnumValue{Name: v.Name, Value: cInt(v.Value, d), Doc: cInline(v.Doc)})
		}
		h.Enums = append(h.Enums, ce)
	}

	for _, c := range mod.Constants {
		def := cDefine{Name: c.Name, Doc: cDoc(c.Doc)}
		switch c.Kind {
		case decl.ConstString:
			def.Value = cQuote(c.Str)
		default:
			d, err := mod.Registry.Resolve(c.Type)
			if err != nil {
				return nil, err
			}
			def.Value = fmt.Sprintf("((%s)%s)", c.Type, cInt(c.Int, d))
		}
		h.Constants = append(h.Constants, def)
	}

	for _, fn := range mod.Functions {
		if fn.CallConv == decl.CallConvSystem {
			h.System = true
		}
	}
	if mod.Binding == decl.BindingFunctionTable && len(mod.Functions) > 0 {
		tbl, err := fntable.Plan(mod)
		if err != nil {
			return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
		}
		ct := &cTable{Name: mod.Name + "_FnTable", Doc: cDoc(mod.Doc)}
		for _, s := range tbl.Slots {
			if s.Reserved() {
				ct.Slots = append(ct.Slots, cSlot{Decl: fmt.Sprintf("void *_reserved%d", s.Index)})
				continue
			}
			ct.Slots = append(ct.Slots, cSlot{
				Doc:  cInline(firstLine(s.Function.Doc)),
				Decl: cSignature(s.Function, fmt.Sprintf("(%s*%s)", cConv(s.Function), s.Name)),
			})
		}
		h.Table = ct
	} else {
		for _, fn := range mod.Functions {
			h.Functions = append(h.Functions, cFunc{
				Doc:  cFuncDoc(fn),
				Decl: cSignature(fn, cConv(fn)+fn.NativeName()),
			})
		}
	}

	var buf bytes.Buffer
	if err := cHeaderTmpl.Execute(&buf, h); err != nil {
		return nil, fmt.Errorf("phase=emit path=%s: %w", mod.Name, err)
	}
	return []*OutputFile{{Path: FileStem(mod.Name) + ".h", Content: buf.Bytes(), Module: mod.Name}}, nil
}

func cTypeOf(reg *decl.Registry, d *decl.TypeDescriptor) (cType, error) {
	ct := cType{Name: d.Name, Doc: cDoc(d.Doc), Size: d.Size}
	switch d.Kind {
	case decl.KindOpaque:
		if d.Size == decl.PointerSize {
			ct.Typedef = fmt.Sprintf("typedef struct %s_T *%s;", d.Name, d.Name)
		} else {
			ct.Typedef = fmt.Sprintf("typedef uint%d_t %s;", d.Size*8, d.Name)
		}
		return ct, nil
	case decl.KindStruct:
	default:
		ct.Typedef = fmt.Sprintf("typedef %s %s;", d.Underlying, d.Name)
		return ct, nil
	}

	mirror, err := MirrorFields(reg, d)
	if err != nil {
		return ct, err
	}
	pad := 0
	for _, mf := range mirror {
		if mf.IsPadding() {
			ct.Fields = append(ct.Fields, fmt.Sprintf("uint8_t _pad%d[%d]", pad, mf.Size))
			pad++
			continue
		}
		field := mf.Type + " " + mf.Name
		if mf.Count > 1 {
			field += fmt.Sprintf("[%d]", mf.Count)
		}
		ct.Fields = append(ct.Fields, field)
		ct.Offsets = append(ct.Offsets, cOffset{Field: mf.Name, Offset: mf.Offset})
	}
	return ct, nil
}

// orderTypes puts scalar typedefs first, then structs so that every struct
// follows the structs it embeds by value. The header writes enums between
// the two groups.
func orderTypes(types []*decl.TypeDescriptor) ([]*decl.TypeDescriptor, error) {
	byName := map[string]*decl.TypeDescriptor{}
	var out []*decl.TypeDescriptor
	for _, d := range types {
		byName[d.Name] = d
		if d.Kind != decl.KindStruct {
			out = append(out, d)
		}
	}
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var visit func(d *decl.TypeDescriptor) error
	visit = func(d *decl.TypeDescriptor) error {
		switch state[d.Name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("struct %s contains itself", d.Name)
		}
		state[d.Name] = visiting
		for _, f := range d.Fields {
			ref, err := decl.ParseTypeRef(f.Type)
			if err != nil {
				return err
			}
			if dep, ok := byName[ref.Base]; ok && ref.Depth == 0 && dep.Kind == decl.KindStruct {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		state[d.Name] = done
		out = append(out, d)
		return nil
	}
	for _, d := range types {
		if d.Kind == decl.KindStruct {
			if err := visit(d); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func cConv(fn *decl.ValidatedFunction) string {
	if fn.CallConv == decl.CallConvSystem {
		return "BINDGEN_APIENTRY "
	}
	return ""
}

// CPrototype is the C declaration of fn as the c target prints it.
func CPrototype(fn *decl.ValidatedFunction) string {
	return cSignature(fn, cConv(fn)+fn.NativeName()) + ";"
}

func cSignature(fn *decl.ValidatedFunction, declarator string) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Type.String()+" "+p.Name)
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	ret := fn.Return.String()
	if fn.Return.IsZero() {
		ret = "void"
	}
	return fmt.Sprintf("%s %s(%s)", ret, declarator, strings.Join(params, ", "))
}

func cFuncDoc(fn *decl.ValidatedFunction) []string {
	doc := cDoc(fn.Doc)
	var params []string
	for _, p := range fn.Params {
		line := p.Name
		if p.Doc != "" {
			line += ": " + cInline(p.Doc)
		}
		if len(p.Legal) > 0 {
			names := make([]string, len(p.Legal))
			for i, v := range p.Legal {
				names[i] = v.Name
			}
			line += " (one of " + strings.Join(names, ", ") + ")"
		}
		if line != p.Name {
			params = append(params, line)
		}
	}
	if len(params) > 0 {
		if len(doc) > 0 {
			doc = append(doc, "")
		}
		doc = append(doc, params...)
	}
	if fn.ReturnDoc != "" {
		if len(doc) > 0 {
			doc = append(doc, "")
		}
		doc = append(doc, "Returns "+cInline(fn.ReturnDoc))
	}
	return doc
}

func cDoc(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(strings.ReplaceAll(l, "*/", "* /"), " \t")
	}
	return lines
}

func cInline(text string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(text, "*/", "* /")), " ")
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

func cInt(v int64, d *decl.TypeDescriptor) string {
	switch {
	case d.Scalar == decl.ScalarUnsigned && d.Size == 8:
		return fmt.Sprintf("%dULL", uint64(v))
	case d.Scalar == decl.ScalarUnsigned:
		return fmt.Sprintf("%dU", uint64(v)&(1<<(8*d.Size)-1))
	case d.Size == 8:
		return fmt.Sprintf("%dLL", v)
	}
	return fmt.Sprintf("%d", v)
}

// cQuote renders s as a C string literal.
func cQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\%03o`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// foreignModules lists, sorted, the other modules declaring types that mod
// refers to.
func foreignModules(mod *decl.ValidatedModule) ([]string, error) {
	seen := map[string]bool{}
	var visit func(d *decl.TypeDescriptor)
	visit = func(d *decl.TypeDescriptor) {
		for d.IsPointer() {
			d = d.Elem
		}
		if d.Module != "" && d.Module != mod.Name {
			seen[d.Module] = true
		}
	}
	for _, d := range mod.Types {
		if d.Kind != decl.KindStruct {
			if d.Underlying != "" {
				if u, err := mod.Registry.Resolve(d.Underlying); err == nil {
					visit(u)
				}
			}
			continue
		}
		fields, err := mod.Registry.Layout(d)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			visit(f.Desc)
		}
	}
	for _, c := range mod.Constants {
		if c.Kind == decl.ConstString {
			continue
		}
		d, err := mod.Registry.Resolve(c.Type)
		if err != nil {
			return nil, err
		}
		visit(d)
	}
	for _, fn := range mod.Functions {
		visit(fn.Ret)
		for _, p := range fn.Params {
			visit(p.Desc)
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}
