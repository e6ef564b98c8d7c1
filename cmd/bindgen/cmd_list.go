package main

import (
	"fmt"
	"io"
	"os"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/emit"
	"go-bindgen/cmd/bindgen/fntable"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [module ...]",
	Short: "List all declared functions",
	ValidArgsFunction: moduleCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		mods, err := selectModules(all, args)
		if err != nil {
			return err
		}
		printEntries(os.Stdout, collectEntries(mods))
		return nil
	},
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the available emit targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range emit.All() {
			t, err := emit.Get(name)
			if err != nil {
				return err
			}
			enums := "raw integer enums"
			if t.ClosedEnums() {
				enums = "closed enum types"
			}
			fmt.Printf("%-4s %s\n", name, enums)
		}
		return nil
	},
}

// listEntry is one function with how it is bound.
type listEntry struct {
	path string // Module.Function
	kind string // "direct" or "slot N"
}

func collectEntries(mods []*decl.ValidatedModule) []listEntry {
	var out []listEntry
	for _, m := range mods {
		var tbl *fntable.Table
		if m.Binding == decl.BindingFunctionTable {
			tbl, _ = fntable.Plan(m)
		}
		for _, fn := range m.Functions {
			kind := "direct"
			if tbl != nil {
				if s, ok := tbl.Slot(fn.Name); ok {
					kind = fmt.Sprintf("slot %d", s.Index)
				}
			}
			if fn.Optional {
				kind += ", optional"
			}
			out = append(out, listEntry{path: m.Name + "." + fn.Name, kind: kind})
		}
	}
	return out
}

// printEntries prints all entries aligned.
func printEntries(w io.Writer, entries []listEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no functions found")
		return
	}
	maxLen := 0
	for _, e := range entries {
		maxLen = max(maxLen, len(e.path))
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-*s  [%s]\n", maxLen, e.path, e.kind)
	}
}
