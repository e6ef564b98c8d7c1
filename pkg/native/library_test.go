package native

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeLoader struct {
	symbols map[string]uintptr
	opened  int
	closed  int
	openErr error
}

func (f *fakeLoader) Open(string) (uintptr, error) {
	if f.openErr != nil {
		return 0, f.openErr
	}
	f.opened++
	return 0xdead, nil
}

func (f *fakeLoader) Lookup(_ uintptr, name string) (uintptr, error) {
	if addr, ok := f.symbols[name]; ok {
		return addr, nil
	}
	return 0, errors.New("undefined symbol: " + name)
}

func (f *fakeLoader) Close(uintptr) error {
	f.closed++
	return nil
}

func TestWithLibrary_ReleasesHandle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ld := &fakeLoader{symbols: map[string]uintptr{"vkCmdDrawIndirectCountKHR": 0x1000}}
		err := WithLibrary(ld, "libvulkan.so", func(lib *Library) error {
			addr, err := lib.Symbol("vkCmdDrawIndirectCountKHR")
			if err != nil || addr != 0x1000 {
				t.Fatalf("symbol = %#x, %v", addr, err)
			}
			return nil
		})
		if err != nil || ld.opened != 1 || ld.closed != 1 {
			t.Fatalf("err=%v opened=%d closed=%d", err, ld.opened, ld.closed)
		}
	})

	t.Run("callback error", func(t *testing.T) {
		ld := &fakeLoader{}
		err := WithLibrary(ld, "libvulkan.so", func(lib *Library) error {
			_, err := lib.Symbol("vkMissing")
			return err
		})
		if !errors.Is(err, ErrBind) || ld.closed != 1 {
			t.Fatalf("err=%v closed=%d", err, ld.closed)
		}
	})

	t.Run("panic", func(t *testing.T) {
		ld := &fakeLoader{}
		func() {
			defer func() { _ = recover() }()
			_ = WithLibrary(ld, "libvulkan.so", func(*Library) error { panic("boom") })
		}()
		if ld.closed != 1 {
			t.Fatalf("closed=%d after panic", ld.closed)
		}
		// The lock must have been released as well.
		if err := WithLibrary(ld, "libvulkan.so", func(*Library) error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("open failure", func(t *testing.T) {
		ld := &fakeLoader{openErr: errors.New("no such file")}
		called := false
		err := WithLibrary(ld, "libnope.so", func(*Library) error { called = true; return nil })
		if !errors.Is(err, ErrLoad) || called || ld.closed != 0 {
			t.Fatalf("err=%v called=%v closed=%d", err, called, ld.closed)
		}
	})
}

func TestWithLibrary_CallbackReenters(t *testing.T) {
	ld := &fakeLoader{symbols: map[string]uintptr{"vkGetInstanceProcAddr": 0x2000}}
	done := make(chan error, 1)
	go func() {
		done <- WithLibrary(ld, "libvulkan.so", func(lib *Library) error {
			other, err := Open(ld, "libopenvr_api.so")
			if err != nil {
				return err
			}
			if err := other.Close(); err != nil {
				return err
			}
			if err := lib.Close(); err != nil {
				return err
			}
			if _, err := lib.Symbol("vkGetInstanceProcAddr"); !errors.Is(err, ErrBind) {
				return fmt.Errorf("symbol after close: %v", err)
			}
			return nil
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WithLibrary did not return; the callback deadlocked")
	}
	if ld.opened != 2 || ld.closed != 2 {
		t.Fatalf("opened=%d closed=%d, want 2 and 2", ld.opened, ld.closed)
	}
}

func TestLibrary_LoadMissingSymbol(t *testing.T) {
	ld := &fakeLoader{symbols: map[string]uintptr{}}
	lib, err := Open(ld, "libopenvr_api.so")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lib.Close()

	var fns struct {
		Init func() int32 `ffi:"VR_InitInternal"`
	}
	err = lib.Load(&fns)
	var be *BindError
	if !errors.As(err, &be) || be.Slot != "VR_InitInternal" {
		t.Fatalf("error = %v", err)
	}
	if fns.Init != nil {
		t.Fatal("no field may be assigned when a symbol is missing")
	}

	if err := lib.Close(); err != nil || ld.closed != 1 {
		t.Fatalf("close: %v closed=%d", err, ld.closed)
	}
	if err := lib.Close(); err != nil || ld.closed != 1 {
		t.Fatal("second close must be a no-op")
	}
}

func TestLibrary_LoadOptionalSymbol(t *testing.T) {
	ld := &fakeLoader{symbols: map[string]uintptr{}}
	lib, err := Open(ld, "libvulkan.so")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lib.Close()

	var fns struct {
		DrawCount func(uintptr) `ffi:"vkCmdDrawIndirectCountKHR,optional"`
	}
	if err := lib.Load(&fns); err != nil {
		t.Fatalf("optional symbol must not fail the load: %v", err)
	}
	if fns.DrawCount != nil {
		t.Fatal("missing optional symbol must stay nil")
	}
}
