package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveConfigDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(envConfigDir, "/tmp/bindgen-conf")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		got, err := resolveConfigDir()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "/tmp/bindgen-conf" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("xdg", func(t *testing.T) {
		t.Setenv(envConfigDir, "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		got, err := resolveConfigDir()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join("/tmp/xdg", appName); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
	t.Run("home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv(envConfigDir, "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		got, err := resolveConfigDir()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(home, ".config", appName); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		c, err := loadConfig(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Output != "bindings" || !reflect.DeepEqual(c.Targets, []string{"go"}) || c.dir != dir {
			t.Errorf("unexpected defaults: %+v", c)
		}
	})
	t.Run("file overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.yml"), "output: gen\ntargets: [go, c]\njobs: 3\nlog:\n  level: debug\n")
		c, err := loadConfig(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Output != "gen" || c.Jobs != 3 || c.Log.Level != "debug" || len(c.Targets) != 2 {
			t.Errorf("unexpected config: %+v", c)
		}
		if c.Package != "bindings" {
			t.Errorf("unset keys should keep defaults, package = %q", c.Package)
		}
	})
	t.Run("unknown key", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.yml"), "outptu: gen\n")
		_, err := loadConfig(dir)
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
		if !strings.Contains(err.Error(), "outptu") {
			t.Errorf("error should name the key: %v", err)
		}
	})
	t.Run("empty file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.yml"), "")
		if _, err := loadConfig(dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(envJobs, "0")
	t.Setenv(envOutput, "out")
	t.Setenv(envLogLevel, "info")
	c := defaultConfig(t.TempDir())
	c.applyEnv()
	if c.Jobs != 1 {
		t.Errorf("jobs = %d, want at least 1", c.Jobs)
	}
	if c.Output != "out" || c.Log.Level != "info" {
		t.Errorf("unexpected config: %+v", c)
	}
}

func TestApplyEnv_SeesLaterChanges(t *testing.T) {
	t.Setenv(envOutput, "first")
	c := defaultConfig(t.TempDir())
	c.applyEnv()
	if c.Output != "first" {
		t.Fatalf("output = %q, want first", c.Output)
	}
	t.Setenv(envOutput, "second")
	t.Setenv(envConfigDir, filepath.Join(t.TempDir(), "conf"))
	c.applyEnv()
	if c.Output != "second" {
		t.Errorf("output = %q, want the updated value", c.Output)
	}
	dir, err := resolveConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(dir) != "conf" {
		t.Errorf("config dir = %q, want the updated value", dir)
	}
}

func TestGlobYAML(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"vulkan/KHR_b.yml",
		"vulkan/types.yml",
		"vulkan/KHR_a.yaml",
		"openvr/VROverlay.yml",
		"openvr/types.yml",
		"openvr/notes.txt",
	} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	files, err := globYAML(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{
		"openvr/types.yml",
		"openvr/VROverlay.yml",
		"vulkan/types.yml",
		"vulkan/KHR_a.yaml",
		"vulkan/KHR_b.yml",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	missing, err := globYAML(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing directory: got %v, %v", missing, err)
	}
}

func TestResolveTemplateFiles(t *testing.T) {
	t.Setenv(envTemplates, "")
	t.Setenv(envTemplateDirs, "")
	confDir := t.TempDir()
	extra := t.TempDir()
	writeFile(t, filepath.Join(confDir, "templates", "a.yml"), "")
	writeFile(t, filepath.Join(extra, "b.yml"), "")
	c := defaultConfig(confDir)

	t.Run("scan", func(t *testing.T) {
		files, err := resolveTemplateFiles(c, []string{extra}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 2 || filepath.Base(files[0]) != "a.yml" || filepath.Base(files[1]) != "b.yml" {
			t.Errorf("got %v", files)
		}
	})
	t.Run("explicit files skip the config templates", func(t *testing.T) {
		file := filepath.Join(extra, "b.yml")
		files, err := resolveTemplateFiles(c, []string{extra}, []string{file})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 1 || files[0] != file {
			t.Errorf("duplicates should collapse, got %v", files)
		}
	})
}

func TestSplitColon(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a::b:", []string{"a", "b"}},
	}
	for _, tc := range cases {
		got := splitColon(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitColon(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitColon(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
