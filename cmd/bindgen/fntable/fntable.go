// Package fntable plans the slot layout of modules bound through a native
// function table.
package fntable

import (
	"errors"
	"fmt"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/pkg/native"
)

var (
	ErrNoTableOrder      = errors.New("function-table module has no table_order")
	ErrUnorderedFunction = errors.New("function missing from table_order")
	ErrDuplicateSlot     = errors.New("slot listed twice in table_order")
)

// Slot is one entry of the planned table.
type Slot struct {
	Index int
	Name  string
	// Function is nil for reserved slots: entries the native table carries
	// but no template declares.
	Function *decl.ValidatedFunction
	Required bool
}

// Reserved reports whether no declared function occupies the slot.
func (s Slot) Reserved() bool { return s.Function == nil }

// Table is the ABI-ordered slot plan of one module.
type Table struct {
	Module string
	Slots  []Slot
}

// Plan orders the functions of mod by its table_order. The order is taken as
// given: the native ABI defines it and it is never inferred from declaration
// order.
func Plan(mod *decl.ValidatedModule) (*Table, error) {
	if len(mod.TableOrder) == 0 {
		return nil, fmt.Errorf("phase=fntable path=%s: %w", mod.Name, ErrNoTableOrder)
	}
	t := &Table{Module: mod.Name, Slots: make([]Slot, len(mod.TableOrder))}
	placed := map[string]int{}
	for i, name := range mod.TableOrder {
		if prev, ok := placed[name]; ok {
			return nil, fmt.Errorf("phase=fntable path=%s.%s: %w (slots %d and %d)", mod.Name, name, ErrDuplicateSlot, prev, i)
		}
		placed[name] = i
		t.Slots[i] = Slot{Index: i, Name: name}
		if fn, ok := mod.Function(name); ok {
			t.Slots[i].Function = fn
			t.Slots[i].Required = !fn.Optional
		}
	}
	for _, fn := range mod.Functions {
		if _, ok := placed[fn.Name]; !ok {
			return nil, fmt.Errorf("phase=fntable path=%s.%s: %w", mod.Name, fn.Name, ErrUnorderedFunction)
		}
	}
	return t, nil
}

// Slot returns the slot of the named function.
func (t *Table) Slot(name string) (Slot, bool) {
	for _, s := range t.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// Runtime converts the plan into the slot list native.Bind consumes.
func (t *Table) Runtime() []native.Slot {
	out := make([]native.Slot, len(t.Slots))
	for i, s := range t.Slots {
		out[i] = native.Slot{Name: s.Name, Required: s.Required}
	}
	return out
}
