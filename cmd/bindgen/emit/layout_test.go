package emit

import (
	"slices"
	"testing"

	"go-bindgen/cmd/bindgen/decl"
)

func TestMirrorFields(t *testing.T) {
	reg := decl.NewRegistry()
	off := func(n int) *int { return &n }
	cases := []struct {
		name    string
		raw     decl.RawType
		padding []int // sizes of padding members in order
	}{
		{
			name: "natural",
			raw: decl.RawType{Name: "Padded_t", Kind: "struct", Fields: []decl.RawField{
				{Name: "a", Type: "uint8_t"}, {Name: "b", Type: "double"}, {Name: "c", Type: "uint16_t"},
			}},
			padding: []int{7},
		},
		{
			name: "explicit gap and tail",
			raw: decl.RawType{Name: "Gappy_t", Kind: "struct", Size: 16, Fields: []decl.RawField{
				{Name: "x", Type: "float", Offset: off(0)}, {Name: "y", Type: "float", Offset: off(8)},
			}},
			padding: []int{4, 4},
		},
		{
			name: "array",
			raw: decl.RawType{Name: "HmdMatrix34_t", Kind: "struct", Fields: []decl.RawField{
				{Name: "m", Type: "float", Count: 12},
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := decl.RawModule{Name: "Layout", Types: []decl.RawType{tc.raw}}
			if err := decl.Declare(raw, reg); err != nil {
				t.Fatalf("unexpected declare error: %v", err)
			}
			d, err := reg.Resolve(tc.raw.Name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			mirror, err := MirrorFields(reg, d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var pads []int
			total := 0
			for _, f := range mirror {
				if f.IsPadding() {
					pads = append(pads, f.Size)
				}
				total = alignUp(total, f.Align) + f.Size
			}
			if !slices.Equal(pads, tc.padding) {
				t.Fatalf("padding = %v, want %v", pads, tc.padding)
			}
			if alignUp(total, d.Align) != d.Size {
				t.Fatalf("mirror spans %d bytes, want %d", total, d.Size)
			}

			// Reading the mirror back must reproduce the registered layout.
			back := *d
			back.Fields = ReadBackLayout(mirror)
			if !slices.Equal(back.Fields, d.Fields) {
				t.Fatalf("read back %+v, want %+v", back.Fields, d.Fields)
			}
			if err := reg.Register(back); err != nil {
				t.Fatalf("re-registering the read-back layout must be a no-op: %v", err)
			}
		})
	}
}

func TestMirrorFields_NotStruct(t *testing.T) {
	reg := decl.NewRegistry()
	d, _ := reg.Resolve("uint32_t")
	if _, err := MirrorFields(reg, d); err == nil {
		t.Fatal("expected error for a non-struct")
	}
}
