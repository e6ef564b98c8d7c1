package native

import (
	"errors"
	"testing"
	"unsafe"
)

// fakeFoo stands in for a native Foo(a, b, c) that reports the size of its
// output through c and writes a fixed payload into b.
type fakeFoo struct {
	payload []byte
	writes  int
}

func (f *fakeFoo) call(b *byte, c *uint32) {
	if b == nil {
		*c = uint32(len(f.payload))
		return
	}
	if *c < uint32(len(f.payload)) {
		return
	}
	f.writes++
	copy(unsafe.Slice(b, *c), f.payload)
	*c = uint32(len(f.payload))
}

func (f *fakeFoo) wrapper(buf []byte) (uint32, error) {
	return QueryOrWrite("b", buf, func(ptr *byte, capacity uint32) uint32 {
		n := capacity
		f.call(ptr, &n)
		return n
	})
}

func TestQueryOrWrite_Foo(t *testing.T) {
	foo := &fakeFoo{payload: []byte("overlay.key")}
	n := uint32(len(foo.payload))

	t.Run("null buffer reports size", func(t *testing.T) {
		got, err := foo.wrapper(nil)
		if err != nil || got != n {
			t.Fatalf("got %d, %v; want %d", got, err, n)
		}
	})

	t.Run("capacity N-1 fails and writes nothing", func(t *testing.T) {
		buf := make([]byte, n-1)
		got, err := foo.wrapper(buf)
		if !errors.Is(err, ErrBufferTooSmall) {
			t.Fatalf("expected ErrBufferTooSmall, got %v", err)
		}
		var bts *BufferTooSmallError
		if !errors.As(err, &bts) || bts.Required != n || bts.Capacity != n-1 || bts.Param != "b" {
			t.Fatalf("error = %#v", err)
		}
		if got != n {
			t.Fatalf("required size = %d, want %d", got, n)
		}
		for _, c := range buf {
			if c != 0 {
				t.Fatalf("buffer was written: %q", buf)
			}
		}
		if foo.writes != 0 {
			t.Fatalf("native write ran %d times", foo.writes)
		}
	})

	t.Run("capacity N succeeds", func(t *testing.T) {
		buf := make([]byte, n)
		got, err := foo.wrapper(buf)
		if err != nil || got != n {
			t.Fatalf("got %d, %v; want %d", got, err, n)
		}
		if string(buf) != "overlay.key" {
			t.Fatalf("buffer = %q", buf)
		}
	})

	t.Run("larger capacity returns same size", func(t *testing.T) {
		got, err := foo.wrapper(make([]byte, n+16))
		if err != nil || got != n {
			t.Fatalf("got %d, %v; want %d", got, err, n)
		}
	})
}

func TestWrite(t *testing.T) {
	var gotPtr *uint32
	var gotCap uint32
	call := func(p *uint32, c uint32) uint32 { gotPtr, gotCap = p, c; return c }

	if Write(nil, call) != 0 || gotPtr != nil {
		t.Fatal("empty buffer must be passed as null with zero capacity")
	}
	buf := make([]uint32, 3)
	if Write(buf, call) != 3 || gotPtr != &buf[0] || gotCap != 3 {
		t.Fatal("buffer not passed through")
	}
}

func TestChecks(t *testing.T) {
	if err := CheckLen("pfRed", 0, 1); !errors.Is(err, ErrCheck) {
		t.Fatalf("expected ErrCheck, got %v", err)
	}
	if err := CheckLen("pfRed", 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p *float32
	if err := CheckPtr("pfAlpha", p); !errors.Is(err, ErrCheck) {
		t.Fatalf("expected ErrCheck, got %v", err)
	}

	type direction int32
	if err := OneOf("eDirection", direction(4), 0, 1, 2, 3); !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("expected ErrInvalidEnum, got %v", err)
	}
	if err := OneOf("eDirection", direction(2), 0, 1, 2, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResult(t *testing.T) {
	type overlayError int32
	names := map[overlayError]string{10: "VROverlayError_UnknownOverlay"}
	if err := Result("FindOverlay", overlayError(0), 0, names); err != nil {
		t.Fatalf("success code produced %v", err)
	}
	err := Result("FindOverlay", overlayError(10), 0, names)
	var re *ResultError
	if !errors.As(err, &re) || re.Code != 10 || re.Name != "VROverlayError_UnknownOverlay" {
		t.Fatalf("error = %#v", err)
	}
}
