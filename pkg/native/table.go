package native

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Slot is one entry of a native function table, in ABI order.
type Slot struct {
	Name     string
	Required bool
}

// SlotSource yields the entry-point addresses of a native function table.
type SlotSource interface {
	Len() int
	Addr(i int) uintptr
}

// Addrs is an in-memory SlotSource.
type Addrs []uintptr

func (a Addrs) Len() int           { return len(a) }
func (a Addrs) Addr(i int) uintptr { return a[i] }

// TableMemory reads a table of n function pointers laid out contiguously at
// base, as returned by interface getters such as VR_GetGenericInterface.
type TableMemory struct {
	base unsafe.Pointer
	n    int
}

// TableAt wraps the native table at addr.
func TableAt(addr uintptr, n int) *TableMemory {
	// addr points at memory owned by the native library, not the Go heap.
	// Reading the word as a pointer avoids a uintptr conversion.
	base := *(*unsafe.Pointer)(unsafe.Pointer(&addr))
	return &TableMemory{base: base, n: n}
}

func (m *TableMemory) Len() int { return m.n }

func (m *TableMemory) Addr(i int) uintptr {
	return *(*uintptr)(unsafe.Add(m.base, i*int(unsafe.Sizeof(uintptr(0)))))
}

// FunctionTable is a fully bound function table. Every required slot has a
// non-zero address; optional slots may be zero.
type FunctionTable struct {
	slots []Slot
	addrs []uintptr
	index map[string]int
}

// Bind resolves every slot from src. The first missing required slot fails
// the whole bind with a *BindError; no partially bound table is returned.
func Bind(src SlotSource, slots []Slot) (*FunctionTable, error) {
	addrs := make([]uintptr, len(slots))
	index := make(map[string]int, len(slots))
	for i, s := range slots {
		if i < src.Len() {
			addrs[i] = src.Addr(i)
		}
		if addrs[i] == 0 && s.Required {
			return nil, &BindError{Slot: s.Name, Index: i}
		}
		if s.Name != "" {
			index[s.Name] = i
		}
	}
	return &FunctionTable{slots: append([]Slot(nil), slots...), addrs: addrs, index: index}, nil
}

// Len returns the number of slots.
func (t *FunctionTable) Len() int { return len(t.slots) }

// Addr returns the address bound to slot i.
func (t *FunctionTable) Addr(i int) uintptr { return t.addrs[i] }

// Lookup returns the address of the named slot.
func (t *FunctionTable) Lookup(name string) (uintptr, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.addrs[i], true
}

// Load fills the func fields of the struct fns points to. Each field's `ffi`
// tag names its slot; fields whose slot is unbound stay nil.
func (t *FunctionTable) Load(fns any) error {
	return loadFuncs(fns, func(name string) (uintptr, error) {
		addr, ok := t.Lookup(name)
		if !ok {
			return 0, &BindError{Slot: name, Index: -1, Err: fmt.Errorf("no such slot")}
		}
		return addr, nil
	})
}

// loadFuncs registers every tagged func field of *fns against the address
// returned by resolve. A zero address leaves the field nil, as does a failed
// lookup for a field tagged ffi:"name,optional".
func loadFuncs(fns any, resolve func(name string) (uintptr, error)) error {
	v := reflect.ValueOf(fns)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: want pointer to struct, got %T", ErrBind, fns)
	}
	v = v.Elem()
	t := v.Type()
	// Resolve everything before registering anything.
	addrs := make([]uintptr, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		name, opt, _ := strings.Cut(field.Tag.Get("ffi"), ",")
		if name == "" {
			continue
		}
		addr, err := resolve(name)
		if err != nil {
			if opt == "optional" {
				continue
			}
			return err
		}
		addrs[i] = addr
	}
	for i, addr := range addrs {
		if addr == 0 {
			continue
		}
		purego.RegisterFunc(v.Field(i).Addr().Interface(), addr)
	}
	return nil
}
