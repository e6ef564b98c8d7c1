package decl

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func mustContain(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			t.Fatalf("expected %q to contain %q", got, sub)
		}
	}
}

func requireErrIs(t *testing.T, err error, targets ...error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error matching %v, got nil", targets)
	}
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Fatalf("expected errors.Is(%v, %v)", err, target)
		}
	}
}

func requireNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// vec2 is a two-float struct with explicit offsets.
func vec2(module string) TypeDescriptor {
	return TypeDescriptor{
		Name:   "Vec2",
		Kind:   KindStruct,
		Size:   8,
		Align:  4,
		Module: module,
		Fields: []Field{
			{Name: "x", Type: "float", Offset: 0, Count: 1},
			{Name: "y", Type: "float", Offset: 4, Count: 1},
		},
	}
}

// fooModule declares Foo(in uint32 a, out buffer b autosized by c, out uint32 c).
func fooModule() RawModule {
	return RawModule{
		Name:   "Demo",
		Prefix: "Demo_",
		Functions: []RawFunction{{
			Name:    "Foo",
			Returns: "void",
			Params: []RawParam{
				{Name: "a", Type: "uint32_t"},
				{Name: "b", Type: "uint8_t*", Dir: "out", AutoSize: "c", Nullable: true, Convention: "query"},
				{Name: "c", Type: "uint32_t*", Dir: "inout"},
			},
		}},
	}
}
