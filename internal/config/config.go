// Package config holds the settings of a multi-scene preparation run.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
	"gopkg.in/yaml.v3"
)

// Source layouts understood by the builders.
const (
	VariantSample = "sample" // intrinsics.txt + pose/<id>.txt per frame
	VariantTest   = "test"   // single pose.txt table
)

// Config describes which scenes to prepare and where.
type Config struct {
	Source             string   `yaml:"source"`
	Output             string   `yaml:"output"`
	Variant            string   `yaml:"variant"`
	Scenes             []string `yaml:"scenes"`
	ScenePattern       string   `yaml:"scene_pattern"`
	Concurrency        int      `yaml:"concurrency"`
	Verbosity          int      `yaml:"verbosity"`
	PerFrameIntrinsics *bool    `yaml:"per_frame_intrinsics"`
	IndexPath          string   `yaml:"index"`
	ReportPath         string   `yaml:"report"`
}

// Default returns a config seeded from the environment. The root command loads
// .env before this is called, so values there apply as well.
func Default() Config {
	cfg := Config{
		Source:      os.Getenv("SCENEPREP_SOURCE"),
		Output:      os.Getenv("SCENEPREP_OUTPUT"),
		Variant:     VariantSample,
		Concurrency: 1,
		Verbosity:   2,
	}

	if v := os.Getenv("SCENEPREP_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			slog.Warn("Ignoring invalid SCENEPREP_CONCURRENCY", "value", v)
		} else {
			cfg.Concurrency = n
		}
	}

	return cfg
}

// Load reads a YAML config file on top of Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Output == "" {
		cfg.Output = cfg.Source
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks that the config can be run.
func (c *Config) Validate() error {
	var errs []error
	if c.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if c.Variant != VariantSample && c.Variant != VariantTest {
		errs = append(errs, fmt.Errorf("unknown variant %q (supported: %s, %s)", c.Variant, VariantSample, VariantTest))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if len(c.Scenes) == 0 && c.ScenePattern == "" {
		errs = append(errs, errors.New("either scenes or scene_pattern is required"))
	}
	return errors.Join(errs...)
}

// ResolveScenes returns the explicit scenes followed by the directories under
// Source matching ScenePattern, without duplicates.
func (c *Config) ResolveScenes() ([]string, error) {
	seen := make(map[string]bool)
	var scenes []string
	add := func(s string) {
		s = filepath.ToSlash(filepath.Clean(s))
		if !seen[s] {
			seen[s] = true
			scenes = append(scenes, s)
		}
	}

	for _, s := range c.Scenes {
		if s = strings.TrimSpace(s); s != "" {
			add(s)
		}
	}

	if c.ScenePattern != "" {
		matches, err := filepath.Glob(filepath.Join(c.Source, c.ScenePattern))
		if err != nil {
			return nil, fmt.Errorf("invalid scene pattern %q: %w", c.ScenePattern, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(c.Source, match)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve scene %s: %w", match, err)
			}
			add(rel)
		}
	}

	return scenes, nil
}

// SceneOptions returns builder options for this config.
func (c *Config) SceneOptions(progress io.Writer) scene.Options {
	opts := scene.DefaultOptions()
	opts.Verbosity = c.Verbosity
	opts.Progress = progress
	if c.PerFrameIntrinsics != nil {
		opts.PerFrameIntrinsics = *c.PerFrameIntrinsics
	}
	return opts
}
