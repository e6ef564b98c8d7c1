package main

import (
	"context"
	"fmt"
	"time"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/declyaml"
	"go-bindgen/pkg/logger"
)

// loadModules reads every template file and runs the declaration pipeline.
func loadModules(ctx context.Context, c Config, flagDirs, flagFiles []string) ([]*decl.ValidatedModule, error) {
	files, err := resolveTemplateFiles(c, flagDirs, flagFiles)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf(
			"no template files found: add *.yml files to %s/templates/, "+
				"set $%s, or use --file (run `%s init` to create one)",
			c.dir, envTemplates, appName,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	logger.LogPhase("parse", "files", len(files))
	raws, err := declyaml.ParseFiles(files)
	if err != nil {
		return nil, err
	}
	mods, err := decl.NewEngine(decl.NewRegistry()).WithJobs(c.Jobs).Build(ctx, raws)
	if err != nil {
		return nil, err
	}
	logger.LogPhaseComplete("validate", "modules", len(mods), "elapsed", time.Since(start))
	return mods, nil
}
