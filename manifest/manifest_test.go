package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
[project]
name = "test-app"

[vm]
trace = true
print-code = true

[store]
path = "data/chunks.db"

[log]
verbosity = 2
file = "loxvm.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if !m.VM.Trace || !m.VM.PrintCode {
		t.Errorf("vm = %+v, want trace and print-code", m.VM)
	}
	if m.Store.Path != "data/chunks.db" {
		t.Errorf("store path = %q, want data/chunks.db", m.Store.Path)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
	if m.Path != filepath.Join(m.Dir, FileName) {
		t.Errorf("Path = %q", m.Path)
	}
	if got, want := m.StorePath(), filepath.Join(m.Dir, "data", "chunks.db"); got != want {
		t.Errorf("StorePath() = %q, want %q", got, want)
	}
	if got, want := m.LogFile(), filepath.Join(m.Dir, "loxvm.log"); got != want {
		t.Errorf("LogFile() = %q, want %q", got, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Store.Path != DefaultStorePath {
		t.Errorf("default store path = %q, want %q", m.Store.Path, DefaultStorePath)
	}
	if m.VM.Trace || m.VM.PrintCode {
		t.Errorf("vm = %+v, want zero", m.VM)
	}
	if m.Log.Verbosity != 0 || m.LogFile() != "" {
		t.Errorf("log = %+v, want defaults", m.Log)
	}
}

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YAMLFileName, `
project:
  name: yaml-app
vm:
  print-code: true
log:
  verbosity: 4
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Project.Name != "yaml-app" {
		t.Errorf("project name = %q, want yaml-app", m.Project.Name)
	}
	if !m.VM.PrintCode {
		t.Error("vm print-code = false, want true")
	}
	if m.Log.Verbosity != 4 {
		t.Errorf("log verbosity = %d, want 4", m.Log.Verbosity)
	}
	if filepath.Base(m.Path) != YAMLFileName {
		t.Errorf("Path = %q, want the yaml file", m.Path)
	}
}

func TestLoadPrefersTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "[project]\nname = \"from-toml\"\n")
	writeFile(t, dir, YAMLFileName, "project:\n  name: from-yaml\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Project.Name != "from-toml" {
		t.Errorf("project name = %q, want from-toml", m.Project.Name)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load succeeded in a directory without a manifest")
	}
}

func TestLoadParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "[project\nname = ")

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("Load error = %v, want parse error", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"verbosity too high", "[log]\nverbosity = 9\n"},
		{"negative verbosity", "[log]\nverbosity = -1\n"},
		{"bad project name", "[project]\nname = \"has spaces\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.content)

			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), "invalid") {
				t.Errorf("Load error = %v, want schema rejection", err)
			}
		})
	}
}

func TestValidateDefault(t *testing.T) {
	if err := Validate(Default("/tmp")); err != nil {
		t.Errorf("default manifest fails validation: %v", err)
	}

	m := Default("/tmp")
	m.Store.Path = ""
	if err := Validate(m); err == nil {
		t.Error("Validate accepted an empty store path")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, FileName, "[project]\nname = \"found-project\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no loxvm.toml exists")
	}
}

func TestStorePathAbsolute(t *testing.T) {
	m := &Manifest{Dir: "/app", Store: StoreConfig{Path: "/var/lib/chunks.db"}}
	if got := m.StorePath(); got != "/var/lib/chunks.db" {
		t.Errorf("StorePath() = %q, want /var/lib/chunks.db", got)
	}
}
