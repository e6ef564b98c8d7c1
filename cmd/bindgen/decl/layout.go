package decl

import "fmt"

// FieldLayout is the resolved placement of one struct field.
type FieldLayout struct {
	Field
	Desc  *TypeDescriptor
	Size  int // Desc.Size * Count
	Align int
}

// ComputeLayout assigns offsets with C natural alignment: every field starts at
// the next multiple of its alignment and the struct is padded to a multiple of
// its widest member. Fields must have Offset unset (negative).
func ComputeLayout(reg *Registry, fields []Field) (laid []Field, size, align int, err error) {
	align = 1
	off := 0
	laid = make([]Field, len(fields))
	for i, f := range fields {
		fd, err := reg.ResolveExpr(f.Type)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if fd.Size == 0 {
			return nil, 0, 0, fmt.Errorf("field %s: %w: %s has no size", f.Name, ErrInvalidLayout, fd.Name)
		}
		off = alignUp(off, fd.Align)
		laid[i] = f
		laid[i].Offset = off
		laid[i].Count = max(f.Count, 1)
		off += fd.Size * laid[i].Count
		align = max(align, fd.Align)
	}
	return laid, alignUp(off, align), align, nil
}

// Layout resolves the fields of a registered struct descriptor.
func (r *Registry) Layout(d *TypeDescriptor) ([]FieldLayout, error) {
	out := make([]FieldLayout, 0, len(d.Fields))
	for _, f := range d.Fields {
		fd, err := r.ResolveExpr(f.Type)
		if err != nil {
			return nil, err
		}
		n := max(f.Count, 1)
		out = append(out, FieldLayout{Field: f, Desc: fd, Size: fd.Size * n, Align: fd.Align})
	}
	return out, nil
}

// checkLayout rejects misaligned, overlapping and out-of-bounds fields.
func (r *Registry) checkLayout(d *TypeDescriptor) error {
	path := d.Name
	if len(d.Fields) == 0 {
		return fmt.Errorf("phase=registry path=%s: %w: struct has no fields", path, ErrInvalidLayout)
	}
	fields, err := r.Layout(d)
	if err != nil {
		return fmt.Errorf("phase=registry path=%s: %w", path, err)
	}
	end := 0
	widest := 1
	for _, f := range fields {
		fp := path + "." + f.Name
		switch {
		case f.Desc.Size == 0:
			return fmt.Errorf("phase=registry path=%s: %w: %s has no size", fp, ErrInvalidLayout, f.Desc.Name)
		case f.Offset < 0:
			return fmt.Errorf("phase=registry path=%s: %w: negative offset %d", fp, ErrInvalidLayout, f.Offset)
		case f.Offset%f.Align != 0:
			return fmt.Errorf("phase=registry path=%s: %w: offset %d is not a multiple of alignment %d", fp, ErrInvalidLayout, f.Offset, f.Align)
		case f.Offset < end:
			return fmt.Errorf("phase=registry path=%s: %w: offset %d overlaps the previous field ending at %d", fp, ErrInvalidLayout, f.Offset, end)
		case f.Offset+f.Size > d.Size:
			return fmt.Errorf("phase=registry path=%s: %w: field ends at %d beyond struct size %d", fp, ErrInvalidLayout, f.Offset+f.Size, d.Size)
		}
		end = f.Offset + f.Size
		widest = max(widest, f.Align)
	}
	if d.Align < widest {
		return fmt.Errorf("phase=registry path=%s: %w: alignment %d is below the widest member alignment %d", path, ErrInvalidLayout, d.Align, widest)
	}
	if d.Size%d.Align != 0 {
		return fmt.Errorf("phase=registry path=%s: %w: size %d is not a multiple of alignment %d", path, ErrInvalidLayout, d.Size, d.Align)
	}
	return nil
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}
