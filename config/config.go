// Package config loads and saves mapper.Config as a whole struct: format
// auto-detected from the file extension, YAML by default, errors wrapped
// with fmt.Errorf("%w").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itohio/slam3d/mapper"
	"gopkg.in/yaml.v3"
)

// Loader reads a mapper.Config from disk.
type Loader struct {
	format string // overrides extension-based detection when non-empty
}

// NewLoader creates a Loader. format, if non-empty, overrides the
// extension-based auto-detection for every Load call.
func NewLoader(format string) *Loader {
	return &Loader{format: strings.ToLower(format)}
}

// Load reads and unmarshals the configuration at path.
func (l *Loader) Load(path string) (mapper.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapper.Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg mapper.Config
	switch l.detectFormat(path) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return mapper.Config{}, fmt.Errorf("config: failed to unmarshal %s: %w", path, err)
		}
	default:
		return mapper.Config{}, fmt.Errorf("config: unsupported format for %s (supported: yaml)", path)
	}
	return cfg, nil
}

func (l *Loader) detectFormat(path string) string {
	if l.format != "" {
		return l.format
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "yaml"
	}
	return ext
}

// Saver writes a mapper.Config to disk.
type Saver struct {
	format string
}

// NewSaver creates a Saver. format, if non-empty, overrides the
// extension-based auto-detection for every Save call.
func NewSaver(format string) *Saver {
	return &Saver{format: strings.ToLower(format)}
}

// Save marshals cfg and writes it to path.
func (s *Saver) Save(path string, cfg mapper.Config) error {
	var data []byte
	var err error
	switch s.detectFormat(path) {
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("config: unsupported format for %s (supported: yaml)", path)
	}
	if err != nil {
		return fmt.Errorf("config: failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

func (s *Saver) detectFormat(path string) string {
	if s.format != "" {
		return s.format
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "yaml"
	}
	return ext
}
