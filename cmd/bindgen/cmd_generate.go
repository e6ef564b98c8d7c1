package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/emit"
	"go-bindgen/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var generateCmd = &cobra.Command{
	Use:   "generate [module ...]",
	Short: "Emit bindings for all template modules, or the named ones",
	Long: "Validate every template, then emit each selected module with each target.\n" +
		"With one target, files go straight into --output; with several, each\n" +
		"target gets its own subdirectory. Files whose content is unchanged are\n" +
		"not rewritten.",
	ValidArgsFunction: moduleCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		if len(targets) == 0 {
			targets = cfg.Targets
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = cfg.Output
		}
		pkg, _ := cmd.Flags().GetString("package")
		if pkg == "" {
			pkg = cfg.Package
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		all, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		mods, err := selectModules(all, args)
		if err != nil {
			return err
		}
		files, err := generate(cmd.Context(), mods, targets, emit.Options{Package: pkg, Runtime: cfg.Runtime}, cfg.Jobs)
		if err != nil {
			return err
		}
		if dryRun {
			dryRunFiles(files, output, len(targets) > 1)
			return nil
		}
		return writeFiles(files, output, len(targets) > 1)
	},
}

// generatedFile is one output of one target.
type generatedFile struct {
	target string
	*emit.OutputFile
}

// generate runs every target over every module, at most jobs at a time.
// Results are ordered by target, then module.
func generate(ctx context.Context, mods []*decl.ValidatedModule, targetNames []string, opts emit.Options, jobs int) ([]generatedFile, error) {
	targets := make([]emit.Target, len(targetNames))
	for i, name := range targetNames {
		t, err := emit.Get(name)
		if err != nil {
			return nil, err
		}
		targets[i] = t
	}

	logger.LogPhase("emit", "modules", len(mods), "targets", targetNames)
	results := make([][]*emit.OutputFile, len(targets)*len(mods))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for ti, t := range targets {
		for mi, m := range mods {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := t.Emit(m, opts)
				if err != nil {
					return fmt.Errorf("target %s: %w", t.Name(), err)
				}
				results[ti*len(mods)+mi] = out
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []generatedFile
	for i, out := range results {
		for _, f := range out {
			files = append(files, generatedFile{target: targets[i/len(mods)].Name(), OutputFile: f})
		}
	}
	logger.LogPhaseComplete("emit", "files", len(files))
	return files, nil
}

func outputPath(root string, f generatedFile, perTarget bool) string {
	if perTarget {
		return filepath.Join(root, f.target, f.Path)
	}
	return filepath.Join(root, f.Path)
}

// writeFiles writes files below root, skipping files whose content is
// unchanged.
func writeFiles(files []generatedFile, root string, perTarget bool) error {
	written := 0
	for _, f := range files {
		path := outputPath(root, f, perTarget)
		existing, err := os.ReadFile(path)
		if err == nil && bytes.Equal(existing, f.Content) {
			logger.LogEmit(f.target, f.Module, path+" (unchanged)", len(f.Content))
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		logger.LogEmit(f.target, f.Module, path, len(f.Content))
		written++
	}
	fmt.Fprintf(os.Stderr, "%d of %d files written to %s\n", written, len(files), root)
	return nil
}

// dryRunFiles prints what generate would write.
func dryRunFiles(files []generatedFile, root string, perTarget bool) {
	for _, f := range files {
		fmt.Printf("[dry-run] %-3s %-24s %s (%s)\n", f.target, f.Module, outputPath(root, f, perTarget), humanize.Bytes(uint64(len(f.Content))))
	}
}

func init() {
	generateCmd.Flags().StringSliceP("target", "t", nil, "targets to emit (default: config targets; see `"+appName+" targets`)")
	generateCmd.Flags().StringP("output", "o", "", "output directory (default: config output)")
	generateCmd.Flags().StringP("package", "p", "", "Go package name of generated files")
	generateCmd.Flags().Bool("dry-run", false, "print the files that would be written without writing them")
}
