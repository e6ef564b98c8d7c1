package declyaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go-bindgen/cmd/bindgen/decl"

	"gopkg.in/yaml.v3"
)

// ---- Internal YAML parsing structs ----------------------------------------
//
// These mirror decl's raw records but carry YAML tags and handle the
// polymorphic spots: enum values keep their declaration order through
// yaml.Node, and a parameter may be written as a "type name" scalar.

type yamlModule struct {
	Module     string         `yaml:"module"`
	API        string         `yaml:"api,omitempty"`
	Prefix     string         `yaml:"prefix,omitempty"`
	Binding    string         `yaml:"binding,omitempty"`
	CallConv   string         `yaml:"calling_convention,omitempty"`
	Library    string         `yaml:"library,omitempty"`
	Doc        string         `yaml:"doc,omitempty"`
	Types      []yamlType     `yaml:"types,omitempty"`
	Enums      []yamlEnum     `yaml:"enums,omitempty"`
	Constants  []yamlConstant `yaml:"constants,omitempty"`
	Functions  []yamlFunction `yaml:"functions,omitempty"`
	TableOrder []string       `yaml:"table_order,omitempty"`
}

type yamlType struct {
	Name       string      `yaml:"name"`
	Kind       string      `yaml:"kind"`
	Underlying string      `yaml:"underlying,omitempty"`
	Size       int         `yaml:"size,omitempty"`
	Align      int         `yaml:"align,omitempty"`
	Doc        string      `yaml:"doc,omitempty"`
	Fields     []yamlField `yaml:"fields,omitempty"`
}

type yamlField struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Offset *int   `yaml:"offset,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

type yamlEnum struct {
	Name       string `yaml:"name"`
	Underlying string `yaml:"underlying,omitempty"`
	Result     bool   `yaml:"result,omitempty"`
	Doc        string `yaml:"doc,omitempty"`
	// Values is either a mapping (name: value, in order) or a sequence of
	// {name, value, doc} records. A non-pointer yaml.Node decodes reliably;
	// an absent key leaves Kind == 0.
	Values yaml.Node `yaml:"values,omitempty"`
}

type yamlEnumValue struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Doc   string `yaml:"doc,omitempty"`
}

type yamlConstant struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Value   string `yaml:"value"`
	Extends string `yaml:"extends,omitempty"`
	Doc     string `yaml:"doc,omitempty"`
}

type yamlFunction struct {
	Name          string      `yaml:"name"`
	Doc           string      `yaml:"doc,omitempty"`
	ReturnDoc     string      `yaml:"return_doc,omitempty"`
	Returns       string      `yaml:"returns,omitempty"`
	Optional      bool        `yaml:"optional,omitempty"`
	Discriminator string      `yaml:"discriminator,omitempty"`
	Params        []yaml.Node `yaml:"params,omitempty"`
}

type yamlParam struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Dir        string `yaml:"dir,omitempty"`
	Nullable   bool   `yaml:"nullable,omitempty"`
	Unsafe     bool   `yaml:"unsafe,omitempty"`
	AutoSize   string `yaml:"autosize,omitempty"`
	LengthOf   string `yaml:"length_of,omitempty"`
	Check      *int   `yaml:"check,omitempty"`
	Expression string `yaml:"expression,omitempty"`
	Status     bool   `yaml:"status,omitempty"`
	Convention string `yaml:"convention,omitempty"`
	Values     string `yaml:"values,omitempty"`
	Doc        string `yaml:"doc,omitempty"`
}

// ---- Parse -----------------------------------------------------------------

// Parse decodes every YAML document in `in` into a raw module. source names
// the input in diagnostics. Syntax errors are reported as malformed
// declarations.
func Parse(in []byte, source string) ([]decl.RawModule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(in))
	dec.KnownFields(true)

	var out []decl.RawModule
	for i := 0; ; i++ {
		var ym yamlModule
		err := dec.Decode(&ym)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("phase=parse path=%s: %w: document %d: %v", source, decl.ErrMalformedDeclaration, i, err)
		}
		raw, err := convertModule(ym, source)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("phase=parse path=%s: %w: empty YAML", source, decl.ErrMalformedDeclaration)
	}
	return out, nil
}

// ParseFile reads and parses one template file.
func ParseFile(path string) ([]decl.RawModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// ParseFiles parses every file in order and concatenates the modules.
func ParseFiles(paths []string) ([]decl.RawModule, error) {
	var out []decl.RawModule
	for _, p := range paths {
		mods, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, mods...)
	}
	return out, nil
}

// ---- Convert: yaml types → decl types -------------------------------------

func convertModule(ym yamlModule, source string) (decl.RawModule, error) {
	raw := decl.RawModule{
		Name:       ym.Module,
		API:        ym.API,
		Prefix:     ym.Prefix,
		Binding:    ym.Binding,
		CallConv:   ym.CallConv,
		Library:    ym.Library,
		Doc:        strings.TrimSpace(ym.Doc),
		Source:     source,
		TableOrder: ym.TableOrder,
	}
	path := source + ":" + ym.Module

	for _, t := range ym.Types {
		rt := decl.RawType{
			Name: t.Name, Kind: t.Kind, Underlying: t.Underlying,
			Size: t.Size, Align: t.Align, Doc: strings.TrimSpace(t.Doc),
		}
		for _, f := range t.Fields {
			rt.Fields = append(rt.Fields, decl.RawField{Name: f.Name, Type: f.Type, Offset: f.Offset, Count: f.Count})
		}
		raw.Types = append(raw.Types, rt)
	}

	for _, e := range ym.Enums {
		values, err := convertEnumValues(e.Values)
		if err != nil {
			return decl.RawModule{}, fmt.Errorf("phase=parse path=%s.%s: %w: %v", path, e.Name, decl.ErrMalformedDeclaration, err)
		}
		raw.Enums = append(raw.Enums, decl.RawEnum{
			Name: e.Name, Underlying: e.Underlying, Result: e.Result,
			Values: values, Doc: strings.TrimSpace(e.Doc),
		})
	}

	for _, c := range ym.Constants {
		raw.Constants = append(raw.Constants, decl.RawConstant{
			Name: c.Name, Type: c.Type, Value: c.Value, Extends: c.Extends, Doc: strings.TrimSpace(c.Doc),
		})
	}

	for _, f := range ym.Functions {
		rf := decl.RawFunction{
			Name:          f.Name,
			Doc:           strings.TrimSpace(f.Doc),
			ReturnDoc:     strings.TrimSpace(f.ReturnDoc),
			Returns:       f.Returns,
			Optional:      f.Optional,
			Discriminator: f.Discriminator,
		}
		for i := range f.Params {
			p, err := convertParam(&f.Params[i])
			if err != nil {
				return decl.RawModule{}, fmt.Errorf("phase=parse path=%s.%s: %w: parameter %d: %v", path, f.Name, decl.ErrMalformedDeclaration, i, err)
			}
			rf.Params = append(rf.Params, p)
		}
		raw.Functions = append(raw.Functions, rf)
	}
	return raw, nil
}

// convertEnumValues accepts both the ordered mapping form
//
//	values:
//	  EVROverlayError_VROverlayError_None: 0
//
// and the record form with per-value docs.
func convertEnumValues(node yaml.Node) ([]decl.RawEnumValue, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		out := make([]decl.RawEnumValue, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("value of %q must be a scalar (line %d)", k.Value, v.Line)
			}
			out = append(out, decl.RawEnumValue{Name: k.Value, Value: v.Value})
		}
		return out, nil
	case yaml.SequenceNode:
		var vals []yamlEnumValue
		if err := decodeStrict(&node, &vals); err != nil {
			return nil, err
		}
		out := make([]decl.RawEnumValue, len(vals))
		for i, v := range vals {
			out[i] = decl.RawEnumValue{Name: v.Name, Value: v.Value, Doc: strings.TrimSpace(v.Doc)}
		}
		return out, nil
	}
	return nil, fmt.Errorf("values must be a mapping or a sequence (line %d)", node.Line)
}

// convertParam accepts "const char* pchOverlayKey" shorthand or a mapping.
func convertParam(node *yaml.Node) (decl.RawParam, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		s := strings.TrimSpace(node.Value)
		i := strings.LastIndexAny(s, " *")
		if i < 0 || i == len(s)-1 {
			return decl.RawParam{}, fmt.Errorf("%q is not of the form \"<type> <name>\" (line %d)", s, node.Line)
		}
		return decl.RawParam{Type: strings.TrimSpace(s[:i+1]), Name: s[i+1:]}, nil
	case yaml.MappingNode:
		var yp yamlParam
		if err := decodeStrict(node, &yp); err != nil {
			return decl.RawParam{}, err
		}
		return decl.RawParam{
			Name: yp.Name, Type: yp.Type, Dir: yp.Dir, Nullable: yp.Nullable, Unsafe: yp.Unsafe,
			AutoSize: yp.AutoSize, LengthOf: yp.LengthOf, Check: yp.Check, Expression: yp.Expression,
			Status: yp.Status, Convention: yp.Convention, Values: yp.Values, Doc: strings.TrimSpace(yp.Doc),
		}, nil
	}
	return decl.RawParam{}, fmt.Errorf("parameter must be a string or a mapping (line %d)", node.Line)
}

// decodeStrict decodes node into v, rejecting keys v has no field for.
// yaml.Node.Decode does not inherit the document decoder's KnownFields.
func decodeStrict(node *yaml.Node, v any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("line %d: %v", node.Line, err)
	}
	return nil
}
