package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// appName is the single source of truth for the application name.
// All derived identifiers (env vars, config paths, error messages) are computed from it.
const appName = "bindgen"

var (
	envConfigDir    = strings.ToUpper(appName) + "_CONFIG_DIR"
	envTemplateDirs = strings.ToUpper(appName) + "_TEMPLATE_DIRS"
	envTemplates    = strings.ToUpper(appName) + "_TEMPLATES"
	envJobs         = strings.ToUpper(appName) + "_JOBS"
	envOutput       = strings.ToUpper(appName) + "_OUTPUT"
	envLogLevel     = strings.ToUpper(appName) + "_LOG_LEVEL"
	envLogFormat    = strings.ToUpper(appName) + "_LOG_FORMAT"
)

// Config is <config>/config.yml. Every field is optional.
type Config struct {
	TemplateDirs []string  `yaml:"template_dirs,omitempty"`
	Output       string    `yaml:"output,omitempty"`
	Package      string    `yaml:"package,omitempty"`
	Runtime      string    `yaml:"runtime,omitempty"`
	Targets      []string  `yaml:"targets,omitempty"`
	Jobs         int       `yaml:"jobs,omitempty"`
	Log          LogConfig `yaml:"log,omitempty"`

	dir string
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

func defaultConfig(dir string) Config {
	return Config{
		Output:  "bindings",
		Package: "bindings",
		Targets: []string{"go"},
		Jobs:    runtime.NumCPU(),
		Log:     LogConfig{Level: "warn", Format: "text"},
		dir:     dir,
	}
}

// env caches os.Environ on first use by default. Lookups here must see
// variables changed after that, so the cache stays off.
func init() {
	env.Unload()
}

// resolveConfigDir returns the base config directory for the application.
// Priority: $<APPNAME>_CONFIG_DIR > $XDG_CONFIG_HOME/<appName> > ~/.config/<appName>
func resolveConfigDir() (string, error) {
	if v := env.Str(envConfigDir); v != "" {
		return v, nil
	}
	if v := env.Str("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// loadConfig reads dir/config.yml over the defaults. A missing file is not an
// error; unknown keys are.
func loadConfig(dir string) (Config, error) {
	c := defaultConfig(dir)
	path := filepath.Join(dir, "config.yml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	c.dir = dir
	return c, nil
}

// applyEnv overrides file settings with $<APPNAME>_* variables.
func (c *Config) applyEnv() {
	c.Jobs = env.Int(envJobs, c.Jobs)
	c.Output = env.Str(envOutput, c.Output)
	c.Log.Level = env.Str(envLogLevel, c.Log.Level)
	c.Log.Format = env.Str(envLogFormat, c.Log.Format)
	if c.Jobs < 1 {
		c.Jobs = 1
	}
}

// resolveTemplateFiles returns all template files to load.
// Order: <config>/templates → config template_dirs → $<APPNAME>_TEMPLATE_DIRS →
// flagDirs → $<APPNAME>_TEMPLATES → flagFiles. Explicit files replace the
// directory scan of the config dir. Duplicates are dropped.
func resolveTemplateFiles(c Config, flagDirs, flagFiles []string) ([]string, error) {
	var dirs []string
	explicit := append(splitColon(env.Str(envTemplates)), flagFiles...)
	if len(explicit) == 0 {
		dirs = append(dirs, filepath.Join(c.dir, "templates"))
	}
	dirs = append(dirs, c.TemplateDirs...)
	dirs = append(dirs, splitColon(env.Str(envTemplateDirs))...)
	dirs = append(dirs, flagDirs...)

	seen := map[string]bool{}
	var files []string
	add := func(f string) {
		if abs, err := filepath.Abs(f); err == nil {
			if seen[abs] {
				return
			}
			seen[abs] = true
		}
		files = append(files, f)
	}
	for _, d := range dirs {
		found, err := globYAML(d)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	for _, f := range explicit {
		add(f)
	}
	return files, nil
}

// globYAML returns the *.yml / *.yaml files under dir, recursively. Within a
// directory, types.yml sorts first so shared types are declared before the
// modules using them. Returns nil without error if dir does not exist.
func globYAML(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext == ".yml" || ext == ".yaml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		di, dj := filepath.Dir(files[i]), filepath.Dir(files[j])
		if di != dj {
			return di < dj
		}
		ti, tj := isTypesFile(files[i]), isTypesFile(files[j])
		if ti != tj {
			return ti
		}
		return files[i] < files[j]
	})
	return files, nil
}

func isTypesFile(path string) bool {
	base := filepath.Base(path)
	return base == "types.yml" || base == "types.yaml"
}

// splitColon splits a colon-separated string, filtering empty parts.
func splitColon(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ":")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
