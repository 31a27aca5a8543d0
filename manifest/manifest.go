// Package manifest handles worse.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "worse.toml"

// Output flush policies.
const (
	FlushByte = "byte" // flush whenever emitted bytes are pending
	FlushEnd  = "end"  // flush only when the buffer fills and at the end
)

// Manifest represents a worse.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Runtime Runtime     `toml:"runtime"`
	Log     LogConfig   `toml:"log"`
	Image   ImageConfig `toml:"image"`

	// Dir is the directory containing the worse.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"` // source or image run when no file is given
}

// Runtime configures how a program is driven.
type Runtime struct {
	Flush       string `toml:"flush"`
	InputBuffer int    `toml:"input-buffer"` // bytes of stdin read-ahead, 0 = unbuffered
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// ImageConfig configures term image output.
type ImageConfig struct {
	Compress bool `toml:"compress"`
}

// Default returns the configuration used when no worse.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults(toml.MetaData{})
	return m
}

// Load parses a worse.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults(md)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults(md toml.MetaData) {
	if m.Runtime.Flush == "" {
		m.Runtime.Flush = FlushByte
	}
	if !md.IsDefined("image", "compress") {
		m.Image.Compress = true
	}
}

// Validate checks values the TOML schema cannot express.
func (m *Manifest) Validate() error {
	switch m.Runtime.Flush {
	case FlushByte, FlushEnd:
	default:
		return fmt.Errorf("runtime.flush = %q, want %q or %q", m.Runtime.Flush, FlushByte, FlushEnd)
	}
	if m.Runtime.InputBuffer < 0 {
		return fmt.Errorf("runtime.input-buffer = %d, must not be negative", m.Runtime.InputBuffer)
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity = %d, must not be negative", m.Log.Verbosity)
	}
	return nil
}

// FindAndLoad walks up from startDir to find a worse.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
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

// EntryPath returns the absolute path of the entry program, or "" when the
// manifest names none.
func (m *Manifest) EntryPath() string {
	if m.Project.Entry == "" {
		return ""
	}
	if filepath.IsAbs(m.Project.Entry) {
		return m.Project.Entry
	}
	return filepath.Join(m.Dir, m.Project.Entry)
}

// LogPath returns the log file path for commonlog.Configure, or nil to log
// to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
