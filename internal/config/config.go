// Package config loads cachebundle.yaml and resolves it against a working directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cachebundle/internal/core"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "cachebundle.yaml"

// ServeConfig configures the output server's cache policy.
type ServeConfig struct {
	Addr         string   `yaml:"addr,omitempty"`
	CacheForever []string `yaml:"cacheForever,omitempty"`
	NoCache      []string `yaml:"noCache,omitempty"`
}

// Config is the full tool configuration.
//
// Relative paths are resolved against the working directory by Resolve.
type Config struct {
	OutputDir       string      `yaml:"outputDir"`
	SourceRoots     []string    `yaml:"sourceRoots,omitempty"`
	Packages        []string    `yaml:"packages,omitempty"`
	BaseURLExpr     string      `yaml:"baseURLExpr,omitempty"`
	Precompress     []string    `yaml:"precompress,omitempty"`
	CollisionPolicy string      `yaml:"collisionPolicy,omitempty"`
	Jobs            int         `yaml:"jobs,omitempty"`
	Trace           string      `yaml:"trace,omitempty"`
	Properties      Properties  `yaml:"properties,omitempty"`
	Serve           ServeConfig `yaml:"serve,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		OutputDir:   "out",
		SourceRoots: []string{"."},
		BaseURLExpr: core.DefaultBaseURLExpr,
		Jobs:        4,
		Properties:  Properties{},
		Serve: ServeConfig{
			Addr:         ":8080",
			CacheForever: []string{"*.cache.*"},
			NoCache:      []string{"*.nocache.*"},
		},
	}
}

// Load reads a configuration file on top of Default. Unknown fields are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, core.InvalidConfigf("opening %s: %v", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadOptional loads path if it exists and returns Default otherwise.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Decode parses YAML configuration on top of Default.
func Decode(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, core.InvalidConfigf("reading configuration: %v", err)
	}
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, core.InvalidConfigf("parsing configuration: %v", err)
	}
	if cfg.Properties == nil {
		cfg.Properties = Properties{}
	}
	return cfg, cfg.Validate()
}

// Validate checks values that do not depend on the working directory.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return core.InvalidConfigf("outputDir is required")
	}
	if c.Jobs < 0 {
		return core.InvalidConfigf("jobs must not be negative (got %d)", c.Jobs)
	}
	for _, r := range c.SourceRoots {
		if strings.TrimSpace(r) == "" {
			return core.InvalidConfigf("sourceRoots must not contain empty entries")
		}
	}
	return nil
}

// Resolve returns a copy with every relative path joined onto workDir.
// workDir must be absolute so the result never depends on the process cwd.
func (c Config) Resolve(workDir string) (Config, error) {
	if !filepath.IsAbs(workDir) {
		return Config{}, fmt.Errorf("working directory must be absolute (got %q)", workDir)
	}
	out := c
	out.OutputDir = resolveUnder(workDir, c.OutputDir)
	out.SourceRoots = resolveAll(workDir, c.SourceRoots)
	out.Packages = resolveAll(workDir, c.Packages)
	if c.Trace != "" {
		out.Trace = resolveUnder(workDir, c.Trace)
	}
	out.Properties = c.Properties.Clone()
	return out, nil
}

func resolveAll(workDir string, paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolveUnder(workDir, p)
	}
	return out
}

func resolveUnder(workDir, p string) string {
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Join(workDir, clean)
}
