package native

import (
	"errors"
	"testing"
	"unsafe"
)

var overlaySlots = []Slot{
	{Name: "FindOverlay", Required: true},
	{Name: "CreateOverlay", Required: true},
	{Name: "", Required: false},
	{Name: "GetOverlayKey", Required: true},
	{Name: "SetOverlayNeighbor", Required: false},
}

func TestBind(t *testing.T) {
	t.Run("complete table", func(t *testing.T) {
		tbl, err := Bind(Addrs{0x10, 0x20, 0, 0x40, 0}, overlaySlots)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tbl.Len() != 5 || tbl.Addr(3) != 0x40 {
			t.Fatalf("table = %+v", tbl)
		}
		if addr, ok := tbl.Lookup("CreateOverlay"); !ok || addr != 0x20 {
			t.Fatalf("CreateOverlay = %#x, %v", addr, ok)
		}
	})

	t.Run("missing required slot", func(t *testing.T) {
		tbl, err := Bind(Addrs{0x10, 0x20, 0, 0, 0x50}, overlaySlots)
		if tbl != nil {
			t.Fatal("a failed bind must not return a table")
		}
		if !errors.Is(err, ErrBind) {
			t.Fatalf("expected ErrBind, got %v", err)
		}
		var be *BindError
		if !errors.As(err, &be) || be.Slot != "GetOverlayKey" || be.Index != 3 {
			t.Fatalf("error = %#v", err)
		}
	})

	t.Run("short source", func(t *testing.T) {
		_, err := Bind(Addrs{0x10}, overlaySlots)
		var be *BindError
		if !errors.As(err, &be) || be.Slot != "CreateOverlay" {
			t.Fatalf("error = %v", err)
		}
	})
}

// tableMem lives outside the Go stack so its address stays put.
var tableMem = [3]uintptr{0x100, 0x200, 0x300}

func TestTableAt(t *testing.T) {
	mem := tableMem[:]
	src := TableAt(uintptr(unsafe.Pointer(&mem[0])), len(mem))
	if src.Len() != 3 || src.Addr(2) != 0x300 {
		t.Fatalf("TableAt read %d entries, slot 2 = %#x", src.Len(), src.Addr(2))
	}
}

func TestFunctionTable_LoadOptional(t *testing.T) {
	tbl, err := Bind(Addrs{0x10, 0x20, 0, 0x40, 0}, overlaySlots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fns struct {
		SetOverlayNeighbor func(int32, uint64, uint64) int32 `ffi:"SetOverlayNeighbor"`
	}
	if err := tbl.Load(&fns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fns.SetOverlayNeighbor != nil {
		t.Fatal("unbound optional slot must stay nil")
	}

	var unknown struct {
		Nope func() `ffi:"Nope"`
	}
	if err := tbl.Load(&unknown); !errors.Is(err, ErrBind) {
		t.Fatalf("expected ErrBind, got %v", err)
	}
	if err := tbl.Load(fns); !errors.Is(err, ErrBind) {
		t.Fatalf("non-pointer argument: expected ErrBind, got %v", err)
	}
}
