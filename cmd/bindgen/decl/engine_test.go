package decl

import (
	"context"
	"testing"
)

func TestEngine_Build(t *testing.T) {
	types := RawModule{
		Name:  "Types",
		Types: []RawType{{Name: "Vec2", Kind: "struct", Fields: []RawField{{Name: "x", Type: "float"}, {Name: "y", Type: "float"}}}},
	}
	user := RawModule{
		Name: "User",
		// Same Vec2 again: identical layouts are accepted.
		Types: types.Types,
		Functions: []RawFunction{{Name: "Length", Returns: "float", Params: []RawParam{
			{Name: "v", Type: "const Vec2*", Check: intPtr(1)},
		}}},
	}
	foo := fooModule()

	mods, err := NewEngine(NewRegistry()).WithJobs(3).Build(context.Background(), []RawModule{types, user, foo})
	requireNoErr(t, err)
	if len(mods) != 3 || mods[1].Name != "User" || mods[2].Name != "Demo" {
		t.Fatalf("modules out of order: %v", mods)
	}
	if len(mods[1].Functions) != 1 || mods[1].Functions[0].Ret.Name != "float" {
		t.Fatalf("User functions = %+v", mods[1].Functions)
	}
	// The repeated Vec2 is emitted once, by the module that registered it.
	if len(mods[0].Types) != 1 || mods[0].Types[0].Name != "Vec2" {
		t.Fatalf("Types module types = %v", mods[0].Types)
	}
	if len(mods[1].Types) != 0 {
		t.Fatalf("User should not own the repeated Vec2, got %v", mods[1].Types)
	}
}

func TestEngine_RepeatedEnumOwnedOnce(t *testing.T) {
	kind := RawEnum{Name: "Kind", Values: []RawEnumValue{{Name: "Kind_A", Value: "0"}}}
	mods, err := NewEngine(NewRegistry()).Build(context.Background(), []RawModule{
		{Name: "A", Enums: []RawEnum{kind}},
		{Name: "B", Enums: []RawEnum{kind}},
	})
	requireNoErr(t, err)
	if len(mods[0].Enums) != 1 || len(mods[1].Enums) != 0 {
		t.Fatalf("enums A=%v B=%v", mods[0].Enums, mods[1].Enums)
	}
}

func TestEngine_Failures(t *testing.T) {
	t.Run("conflicting Vec2", func(t *testing.T) {
		a := RawModule{Name: "A", Types: []RawType{{Name: "Vec2", Kind: "struct", Fields: []RawField{{Name: "x", Type: "float"}, {Name: "y", Type: "float"}}}}}
		b := RawModule{Name: "B", Types: []RawType{{Name: "Vec2", Kind: "struct", Fields: []RawField{{Name: "x", Type: "double"}, {Name: "y", Type: "double"}}}}}
		_, err := NewEngine(NewRegistry()).Build(context.Background(), []RawModule{a, b})
		requireErrIs(t, err, ErrTypeAlreadyRegistered)
	})

	t.Run("duplicate module", func(t *testing.T) {
		_, err := NewEngine(NewRegistry()).Build(context.Background(), []RawModule{{Name: "A"}, {Name: "A"}})
		requireErrIs(t, err, ErrDuplicateDeclaration)
	})

	t.Run("validation failure names module", func(t *testing.T) {
		bad := fooModule()
		bad.Functions[0].Params[2].Dir = "in"
		bad.Functions[0].Params[2].Type = "uint32_t"
		_, err := NewEngine(NewRegistry()).Build(context.Background(), []RawModule{bad})
		requireErrIs(t, err, ErrValidation, ErrBadAutoSize)
		mustContain(t, err.Error(), "module Demo", "Demo_Foo.b")
	})
}
