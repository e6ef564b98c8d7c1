package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	cfg       Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Generate native bindings from declarative API templates",
	Long: appName + " reads API templates (types, enums, constants and functions of a\n" +
		"native library), validates them and emits host bindings: Go wrappers that\n" +
		"call through purego, and C headers with layout assertions.\n\n" +
		"Templates are discovered under <config>/templates/ unless --file is given.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveConfig()
		if err != nil {
			return err
		}
		cfg = c
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		closer, err := logger.Init(logger.Config{Level: level, Format: cfg.Log.Format, LogFile: cfg.Log.File})
		if err != nil {
			return err
		}
		logCloser = closer
		slog.Debug("config resolved", "dir", cfg.dir, "jobs", cfg.Jobs, "targets", cfg.Targets)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// resolveConfig layers config.yml, environment and flags, in that order.
func resolveConfig() (Config, error) {
	dir := flagConfigDir
	if dir == "" {
		var err error
		if dir, err = resolveConfigDir(); err != nil {
			return Config{}, err
		}
	}
	c, err := loadConfig(dir)
	if err != nil {
		return Config{}, err
	}
	c.applyEnv()
	if flagJobs > 0 {
		c.Jobs = flagJobs
	}
	if flagLogLevel != "" {
		c.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		c.Log.Format = flagLogFormat
	}
	if flagLogFile != "" {
		c.Log.File = flagLogFile
	}
	return c, nil
}

// moduleCompletion completes module names for commands taking modules.
func moduleCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c, err := resolveConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	mods, err := loadModules(cmd.Context(), c, flagTemplateDirs, flagFiles)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, m := range mods {
		if strings.HasPrefix(m.Name, toComplete) {
			out = append(out, m.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// selectModules keeps the named modules, in the order given. No names keeps
// everything.
func selectModules(mods []*decl.ValidatedModule, names []string) ([]*decl.ValidatedModule, error) {
	if len(names) == 0 {
		return mods, nil
	}
	byName := map[string]*decl.ValidatedModule{}
	for _, m := range mods {
		byName[m.Name] = m
	}
	var out []*decl.ValidatedModule
	for _, n := range names {
		m, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("module %q not found\navailable: %s", n, moduleList(mods))
		}
		out = append(out, m)
	}
	return out, nil
}

// findFunction resolves "Module.Function" or a bare function name.
func findFunction(mods []*decl.ValidatedModule, ref string) (*decl.ValidatedModule, *decl.ValidatedFunction, error) {
	modName, fnName, qualified := strings.Cut(ref, ".")
	if !qualified {
		modName, fnName = "", ref
	}
	var matches []string
	var mod *decl.ValidatedModule
	var fn *decl.ValidatedFunction
	for _, m := range mods {
		if qualified && m.Name != modName {
			continue
		}
		for _, f := range m.Functions {
			if f.Name == fnName || f.NativeName() == fnName {
				mod, fn = m, f
				matches = append(matches, m.Name+"."+f.Name)
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil, fmt.Errorf("function %q not found", ref)
	case 1:
		return mod, fn, nil
	}
	sort.Strings(matches)
	return nil, nil, fmt.Errorf("function %q is ambiguous: %s", ref, strings.Join(matches, ", "))
}

func moduleList(mods []*decl.ValidatedModule) string {
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}
