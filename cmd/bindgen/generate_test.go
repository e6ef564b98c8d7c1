package main

import (
	"bytes"
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-bindgen/cmd/bindgen/decl"
	"go-bindgen/cmd/bindgen/declyaml"
	"go-bindgen/cmd/bindgen/emit"
)

const repoTemplates = "../../templates"

func loadRepoTemplates(t *testing.T) []*decl.ValidatedModule {
	t.Helper()
	t.Setenv(envTemplates, "")
	t.Setenv(envTemplateDirs, "")
	c := defaultConfig(t.TempDir())
	c.Jobs = 4
	mods, err := loadModules(context.Background(), c, []string{repoTemplates}, nil)
	if err != nil {
		t.Fatalf("unexpected error loading templates: %v", err)
	}
	return mods
}

func checkGenerated(t *testing.T, files []generatedFile) {
	t.Helper()
	for _, f := range files {
		if f.target != "go" {
			continue
		}
		if _, err := parser.ParseFile(token.NewFileSet(), f.Path, f.Content, parser.ParseComments); err != nil {
			t.Errorf("%s does not parse: %v", f.Path, err)
		}
	}
}

func TestRepoTemplates(t *testing.T) {
	mods := loadRepoTemplates(t)

	var names []string
	for _, m := range mods {
		names = append(names, m.Name)
		if err := checkModule(m); err != nil {
			t.Errorf("check %s: %v", m.Name, err)
		}
	}
	want := "VRTypes, VROverlay, KHR_draw_indirect_count, KHR_imageless_framebuffer, VKTypes"
	if got := moduleList(mods); !sameSet(got, want) {
		t.Errorf("modules = %s, want %s", got, want)
	}
	// Shared types must load before the modules using them.
	if names[0] != "VRTypes" {
		t.Errorf("openvr/types.yml should load first, got %v", names)
	}

	files, err := generate(context.Background(), mods, []string{"go", "c"}, emit.Options{Package: "bindings"}, 4)
	if err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}
	if len(files) != 2*len(mods) {
		t.Fatalf("got %d files for %d modules and 2 targets", len(files), len(mods))
	}
	for i, f := range files[:len(mods)] {
		if f.target != "go" || f.Module != mods[i].Name {
			t.Errorf("file %d: target %s module %s, want go %s", i, f.target, f.Module, mods[i].Name)
		}
	}
	checkGenerated(t, files)

	for _, f := range files {
		if f.target == "c" && f.Module == "VROverlay" {
			h := string(f.Content)
			for _, want := range []string{`#include "vrtypes.h"`, "typedef struct VROverlay_FnTable {", "BINDGEN_APIENTRY"} {
				if !strings.Contains(h, want) {
					t.Errorf("vroverlay.h does not contain %q", want)
				}
			}
		}
	}
}

func sameSet(a, b string) bool {
	as, bs := strings.Split(a, ", "), strings.Split(b, ", ")
	if len(as) != len(bs) {
		return false
	}
	seen := map[string]int{}
	for _, s := range as {
		seen[s]++
	}
	for _, s := range bs {
		seen[s]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

func TestExampleTemplate(t *testing.T) {
	raws, err := declyaml.Parse(exampleYAML, "example.yml")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	mods, err := decl.NewEngine(decl.NewRegistry()).Build(context.Background(), raws)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	for _, m := range mods {
		if err := checkModule(m); err != nil {
			t.Errorf("check %s: %v", m.Name, err)
		}
	}
	files, err := generate(context.Background(), mods, []string{"go", "c"}, emit.Options{Package: "example"}, 2)
	if err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}
	checkGenerated(t, files)
}

func TestSelectModules(t *testing.T) {
	mods := loadRepoTemplates(t)
	got, err := selectModules(mods, []string{"VROverlay", "VRTypes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "VROverlay" {
		t.Errorf("selection should keep the requested order, got %s", moduleList(got))
	}
	if _, err := selectModules(mods, []string{"Nope"}); err == nil || !strings.Contains(err.Error(), "available:") {
		t.Errorf("expected not-found error listing modules, got %v", err)
	}
}

func TestFindFunction(t *testing.T) {
	mods := loadRepoTemplates(t)
	cases := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{ref: "VROverlay.FindOverlay", want: "FindOverlay"},
		{ref: "FindOverlay", want: "FindOverlay"},
		{ref: "VROverlay_FindOverlay", want: "FindOverlay"},
		{ref: "vkCmdDrawIndirectCountKHR", want: "vkCmdDrawIndirectCountKHR"},
		{ref: "VRTypes.FindOverlay", wantErr: "not found"},
		{ref: "Missing", wantErr: "not found"},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			_, fn, err := findFunction(mods, tc.ref)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fn.Name != tc.want {
				t.Errorf("got %s, want %s", fn.Name, tc.want)
			}
		})
	}
}

func TestWriteFiles(t *testing.T) {
	root := t.TempDir()
	files := []generatedFile{
		{target: "go", OutputFile: &emit.OutputFile{Module: "A", Path: "a.go", Content: []byte("package a\n")}},
		{target: "c", OutputFile: &emit.OutputFile{Module: "A", Path: "a.h", Content: []byte("/* a */\n")}},
	}
	if err := writeFiles(files, root, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(root, "go", "a.go")
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, files[0].Content) {
		t.Errorf("got %q", got)
	}
	before, _ := os.Stat(path)
	if err := writeFiles(files, root, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("unchanged file was rewritten")
	}
	if outputPath(root, files[1], false) != filepath.Join(root, "a.h") {
		t.Error("single-target output should not use a subdirectory")
	}
}

func TestListEntries(t *testing.T) {
	mods := loadRepoTemplates(t)
	vr, err := selectModules(mods, []string{"VROverlay"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	printEntries(&buf, collectEntries(vr))
	out := buf.String()
	for _, want := range []string{"VROverlay.FindOverlay", "[slot 0]", "VROverlay.SetOverlayNeighbor", "optional]"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing does not contain %q:\n%s", want, out)
		}
	}
}

func TestShellExec(t *testing.T) {
	mods := loadRepoTemplates(t)
	var buf bytes.Buffer
	sh := &shell{mods: mods, out: &buf, reload: func() ([]*decl.ValidatedModule, error) { return mods, nil }}

	if sh.exec("show VROverlay.GetOverlayKey") {
		t.Fatal("show should not exit")
	}
	if !strings.Contains(buf.String(), "GetOverlayKey") {
		t.Errorf("show output:\n%s", buf.String())
	}
	buf.Reset()
	sh.exec("bogus")
	if !strings.Contains(buf.String(), `unknown command "bogus"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
	buf.Reset()
	sh.exec("reload")
	if !strings.Contains(buf.String(), "modules loaded") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if !sh.exec("exit") {
		t.Error("exit should end the shell")
	}
}
