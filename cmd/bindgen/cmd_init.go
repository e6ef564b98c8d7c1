package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter template in the config directory",
	Long: "Ask for the basics of a native API (module name, symbol prefix, binding\n" +
		"style, calling convention) and write a starter template to\n" +
		"<config>/templates/<api>/<module>.yml, plus config.yml when missing.\n\n" +
		"Pass --yes together with --module to skip the form.",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		yes, _ := cmd.Flags().GetBool("yes")
		a := starterAnswers{}
		a.Module, _ = cmd.Flags().GetString("module")
		a.API, _ = cmd.Flags().GetString("api")
		a.Prefix, _ = cmd.Flags().GetString("prefix")
		a.Binding, _ = cmd.Flags().GetString("binding")
		a.CallConv, _ = cmd.Flags().GetString("calling-convention")
		a.Library, _ = cmd.Flags().GetString("library")

		if !yes {
			if err := starterForm(&a).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return errors.New("aborted")
				}
				return err
			}
		}
		if err := validIdent(a.Module); err != nil {
			return fmt.Errorf("module: %w", err)
		}

		dir := filepath.Join(cfg.dir, "templates", a.API)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		data, err := yaml.Marshal(a.template())
		if err != nil {
			return err
		}
		path := filepath.Join(dir, a.Module+".yml")
		if err := writeInitFile(path, starterHeader, data, force); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "created %s\n", path)

		confPath := filepath.Join(cfg.dir, "config.yml")
		if _, err := os.Stat(confPath); errors.Is(err, os.ErrNotExist) {
			conf, err := yaml.Marshal(defaultConfig(cfg.dir))
			if err != nil {
				return err
			}
			if err := writeInitFile(confPath, configHeader, conf, false); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "created %s\n", confPath)
		}
		fmt.Fprintf(os.Stderr, "\nRun `%s check` to validate it.\n", appName)
		return nil
	},
}

const starterHeader = "# " + appName + " template\n" +
	"# Declare types, enums, constants and functions of one native module.\n" +
	"# Reference:  " + appName + " example\n\n"

const configHeader = "# " + appName + " configuration; every key is optional.\n" +
	"# Environment overrides: $BINDGEN_JOBS, $BINDGEN_OUTPUT, $BINDGEN_LOG_LEVEL, $BINDGEN_LOG_FORMAT\n\n"

type starterAnswers struct {
	Module   string
	API      string
	Prefix   string
	Binding  string
	CallConv string
	Library  string
}

// starterTemplate is the YAML written by init.
type starterTemplate struct {
	Module     string            `yaml:"module"`
	API        string            `yaml:"api,omitempty"`
	Prefix     string            `yaml:"prefix,omitempty"`
	Binding    string            `yaml:"binding"`
	CallConv   string            `yaml:"calling_convention"`
	Library    string            `yaml:"library,omitempty"`
	Doc        string            `yaml:"doc"`
	Functions  []starterFunction `yaml:"functions"`
	TableOrder []string          `yaml:"table_order,omitempty"`
}

type starterFunction struct {
	Name    string   `yaml:"name"`
	Returns string   `yaml:"returns"`
	Doc     string   `yaml:"doc"`
	Params  []string `yaml:"params"`
}

func (a starterAnswers) template() starterTemplate {
	t := starterTemplate{
		Module:   a.Module,
		API:      a.API,
		Prefix:   a.Prefix,
		Binding:  a.Binding,
		CallConv: a.CallConv,
		Library:  a.Library,
		Doc:      a.Module + " bindings.",
		Functions: []starterFunction{{
			Name:    "GetVersion",
			Returns: "uint32_t",
			Doc:     "Returns the version of the native library.",
			Params:  []string{},
		}},
	}
	if a.Binding == "function-table" {
		t.TableOrder = []string{"GetVersion"}
	}
	return t
}

func starterForm(a *starterAnswers) *huh.Form {
	if a.Binding == "" {
		a.Binding = "direct"
	}
	if a.CallConv == "" {
		a.CallConv = "c"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Module name").
				Description("Names the generated files and the Bind/Load function.").
				Value(&a.Module).
				Validate(validIdent),
			huh.NewInput().
				Title("API family").
				Description("Directory under templates/, e.g. openvr or vulkan.").
				Value(&a.API),
			huh.NewInput().
				Title("Symbol prefix").
				Description("Prepended to every function name to form the native symbol.").
				Value(&a.Prefix),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Binding").
				Options(
					huh.NewOption("direct: one exported symbol per function", "direct"),
					huh.NewOption("function-table: entry points read from a table", "function-table"),
				).
				Value(&a.Binding),
			huh.NewSelect[string]().
				Title("Calling convention").
				Options(
					huh.NewOption("c", "c"),
					huh.NewOption("system (stdcall on Windows)", "system"),
				).
				Value(&a.CallConv),
			huh.NewInput().
				Title("Library").
				Description("Base name of the shared library, e.g. openvr_api.").
				Value(&a.Library),
		),
	)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(s string) error {
	if !identRe.MatchString(s) {
		return fmt.Errorf("%q is not an identifier", s)
	}
	return nil
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if header != "" {
		fmt.Fprint(f, header)
	}
	_, err = f.Write(content)
	return err
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")
	initCmd.Flags().BoolP("yes", "y", false, "skip the form and use the flag values")
	initCmd.Flags().String("module", "", "module name")
	initCmd.Flags().String("api", "custom", "API family (template subdirectory)")
	initCmd.Flags().String("prefix", "", "native symbol prefix")
	initCmd.Flags().String("binding", "direct", "direct or function-table")
	initCmd.Flags().String("calling-convention", "c", "c or system")
	initCmd.Flags().String("library", "", "shared library base name")
}
