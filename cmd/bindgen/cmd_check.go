package main

import (
	"errors"
	"fmt"
	"os"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/emit"
	"go-bindgen/cmd/bindgen/fntable"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleFail   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleModule = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate all templates without writing anything",
	Long: "Run the full declaration pipeline, then plan every function table and\n" +
		"every wrapper the way generate would. Prints one line per module.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			fmt.Fprintln(os.Stderr, styleFail.Render("✗"), err)
			return errCheckFailed
		}
		failed := 0
		for _, m := range mods {
			if err := checkModule(m); err != nil {
				fmt.Println(styleFail.Render("✗"), styleModule.Render(m.Name), err)
				failed++
				continue
			}
			fmt.Println(styleOK.Render("✓"), styleModule.Render(m.Name), styleDim.Render(moduleSummary(m)))
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d modules", errCheckFailed, failed, len(mods))
		}
		return nil
	},
}

// checkModule runs the planning steps of generate on m.
func checkModule(m *decl.ValidatedModule) error {
	if m.Binding == decl.BindingFunctionTable && len(m.Functions) > 0 {
		if _, err := fntable.Plan(m); err != nil {
			return err
		}
	}
	for _, fn := range m.Functions {
		if _, err := emit.PlanCall(fn); err != nil {
			return err
		}
	}
	return nil
}

func moduleSummary(m *decl.ValidatedModule) string {
	return fmt.Sprintf("%s, %d types, %d enums, %d constants, %d functions (%s)",
		orDash(m.API), len(m.Types), len(m.Enums), len(m.Constants), len(m.Functions), m.Binding)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
