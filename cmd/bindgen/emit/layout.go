package emit

import (
	"fmt"

	"go-bindgen/cmd/bindgen/decl"
)

// MirrorField is one member of a host-side struct mirror. Padding members
// have an empty Name.
type MirrorField struct {
	Name   string
	Type   string // C type expression; empty for padding
	Desc   *decl.TypeDescriptor
	Count  int
	Offset int
	Size   int
	Align  int
}

// IsPadding reports whether f only fills a gap.
func (f MirrorField) IsPadding() bool { return f.Name == "" }

// MirrorFields lays out the host mirror of a struct descriptor. Gaps between
// declared offsets become explicit byte padding, so a host that places fields
// at their natural alignment reproduces the declared offsets exactly.
func MirrorFields(reg *decl.Registry, d *decl.TypeDescriptor) ([]MirrorField, error) {
	if d.Kind != decl.KindStruct {
		return nil, fmt.Errorf("%s is a %s, not a struct", d.Name, d.Kind)
	}
	layout, err := reg.Layout(d)
	if err != nil {
		return nil, err
	}
	var out []MirrorField
	off, widest := 0, 1
	for _, f := range layout {
		if gap := f.Offset - off; gap > 0 {
			out = append(out, padding(off, gap))
		}
		out = append(out, MirrorField{
			Name: f.Name, Type: f.Type, Desc: f.Desc, Count: f.Count,
			Offset: f.Offset, Size: f.Size, Align: f.Align,
		})
		off = f.Offset + f.Size
		widest = max(widest, f.Align)
	}
	if alignUp(off, widest) != d.Size {
		out = append(out, padding(off, d.Size-off))
	}
	return out, nil
}

func padding(off, n int) MirrorField {
	return MirrorField{Offset: off, Size: n, Align: 1, Count: n}
}

// ReadBackLayout recovers the declared fields from a mirror by placing each
// member at the next multiple of its alignment, the way a host compiler does.
func ReadBackLayout(mirror []MirrorField) []decl.Field {
	var out []decl.Field
	off := 0
	for _, f := range mirror {
		off = alignUp(off, f.Align)
		if !f.IsPadding() {
			out = append(out, decl.Field{Name: f.Name, Type: f.Type, Offset: off, Count: f.Count})
		}
		off += f.Size
	}
	return out
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}
