package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/emit"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [Module.Function]",
	Short: "Show the C prototype, parameter roles and Go wrapper of one function",
	Long: "Print how a function is declared and bound. Without an argument the\n" +
		"function is picked interactively with a fuzzy finder.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		var ref funcRef
		if len(args) == 0 {
			ref, err = pickFunction(mods)
		} else {
			ref.mod, ref.fn, err = findFunction(mods, args[0])
		}
		if err != nil {
			return err
		}
		return showFunction(os.Stdout, ref)
	},
}

type funcRef struct {
	mod *decl.ValidatedModule
	fn  *decl.ValidatedFunction
}

func (r funcRef) String() string { return r.mod.Name + "." + r.fn.Name }

func allFunctions(mods []*decl.ValidatedModule) []funcRef {
	var out []funcRef
	for _, m := range mods {
		for _, fn := range m.Functions {
			out = append(out, funcRef{mod: m, fn: fn})
		}
	}
	return out
}

// pickFunction lets the user select a function interactively in the terminal.
func pickFunction(mods []*decl.ValidatedModule) (funcRef, error) {
	refs := allFunctions(mods)
	if len(refs) == 0 {
		return funcRef{}, errors.New("no functions declared")
	}
	idx, err := fuzzyfinder.Find(
		refs,
		func(i int) string { return refs[i].String() },
		fuzzyfinder.WithPromptString("Function: "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			var b strings.Builder
			describeFunction(&b, refs[i])
			return b.String()
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return funcRef{}, errors.New("no function selected")
	}
	if err != nil {
		return funcRef{}, err
	}
	return refs[idx], nil
}

// describeFunction writes the prototype and the role of every parameter.
func describeFunction(w io.Writer, r funcRef) {
	fn := r.fn
	fmt.Fprintln(w, styleModule.Render(r.String()))
	if fn.Doc != "" {
		fmt.Fprintln(w, fn.Doc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, emit.CPrototype(fn))

	plan, err := emit.PlanCall(fn)
	if err != nil {
		fmt.Fprintln(w, styleFail.Render(err.Error()))
		return
	}
	if len(plan.Params) == 0 {
		return
	}
	fmt.Fprintln(w)
	width := 0
	for _, p := range plan.Params {
		width = max(width, len(p.Name))
	}
	for _, p := range plan.Params {
		var notes []string
		if p.AutoSizedBy != "" {
			notes = append(notes, "sized by "+p.AutoSizedBy)
		}
		if p.LengthOf != "" {
			notes = append(notes, "length of "+p.LengthOf)
		}
		if p.Expression != "" {
			notes = append(notes, "= "+p.Expression)
		}
		if p.HasCheck {
			notes = append(notes, fmt.Sprintf("at least %d", p.Check))
		}
		if p.Nullable {
			notes = append(notes, "nullable")
		}
		if len(p.Legal) > 0 {
			notes = append(notes, fmt.Sprintf("%d legal values", len(p.Legal)))
		}
		line := fmt.Sprintf("  %-*s  %-6s %-8s %s", width, p.Name, p.Direction, p.Role, p.Type)
		if len(notes) > 0 {
			line += styleDim.Render("  (" + strings.Join(notes, ", ") + ")")
		}
		fmt.Fprintln(w, line)
	}
}

// showFunction adds the generated Go wrapper to describeFunction.
func showFunction(w io.Writer, r funcRef) error {
	describeFunction(w, r)
	src, err := (&emit.GoTarget{}).EmitFunction(r.mod, r.fn)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, src)
	return nil
}
