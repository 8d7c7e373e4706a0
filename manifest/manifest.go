// Package manifest handles loxvm.toml project configuration.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the primary manifest file.
	FileName = "loxvm.toml"
	// YAMLFileName is consulted when FileName is absent.
	YAMLFileName = "loxvm.yaml"

	// DefaultStorePath is the chunk database location relative to Dir.
	DefaultStorePath = ".loxvm/chunks.db"
)

// Manifest represents a loxvm.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project" yaml:"project" json:"project"`
	VM      VMConfig    `toml:"vm" yaml:"vm" json:"vm"`
	Store   StoreConfig `toml:"store" yaml:"store" json:"store"`
	Log     LogConfig   `toml:"log" yaml:"log" json:"log"`

	// Dir is the directory containing the manifest file (set at load time).
	Dir string `toml:"-" yaml:"-" json:"-"`
	// Path is the manifest file that was read, empty for defaults.
	Path string `toml:"-" yaml:"-" json:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name" yaml:"name" json:"name,omitempty"`
}

// VMConfig controls interpreter diagnostics.
type VMConfig struct {
	Trace     bool `toml:"trace" yaml:"trace" json:"trace"`
	PrintCode bool `toml:"print-code" yaml:"print-code" json:"print-code"`
}

// StoreConfig locates the chunk database.
type StoreConfig struct {
	Path string `toml:"path" yaml:"path" json:"path"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity" json:"verbosity"`
	File      string `toml:"file" yaml:"file" json:"file,omitempty"`
}

// Default returns the configuration used when no manifest exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses the manifest in dir. loxvm.toml wins over loxvm.yaml.
func Load(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	var m Manifest
	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		path = filepath.Join(abs, YAMLFileName)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m.Dir = abs
	m.Path = path
	m.applyDefaults()

	if err := Validate(&m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a manifest,
// then loads and returns it. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if exists(filepath.Join(dir, FileName)) || exists(filepath.Join(dir, YAMLFileName)) {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (m *Manifest) applyDefaults() {
	if m.Store.Path == "" {
		m.Store.Path = DefaultStorePath
	}
}

// StorePath returns the absolute path of the chunk database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LogFile returns the absolute log file path, or "" for stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Log.File)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
