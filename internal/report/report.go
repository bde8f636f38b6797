package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/sceneprep/internal/batch"
	"github.com/lehigh-university-libraries/sceneprep/internal/config"
)

// RunConfig represents the configuration section of the report YAML
type RunConfig struct {
	Source             string `yaml:"source"`
	Output             string `yaml:"output"`
	Variant            string `yaml:"variant"`
	Concurrency        int    `yaml:"concurrency"`
	PerFrameIntrinsics bool   `yaml:"perframeintrinsics"`
	Timestamp          string `yaml:"timestamp"`
}

// Totals summarizes the run
type Totals struct {
	Scenes        int     `yaml:"scenes"`
	Succeeded     int     `yaml:"succeeded"`
	Failed        int     `yaml:"failed"`
	FramesKept    int     `yaml:"frameskept"`
	FramesSkipped int     `yaml:"framesskipped"`
	Seconds       float64 `yaml:"seconds"`
}

// SceneResult represents the outcome of a single scene
type SceneResult struct {
	Scene         string `yaml:"scene"`
	Manifest      string `yaml:"manifest,omitempty"`
	FramesKept    int    `yaml:"frameskept"`
	FramesSkipped int    `yaml:"framesskipped"`
	DurationMS    int64  `yaml:"durationms"`
	Error         string `yaml:"error,omitempty"`
}

// Report is the complete YAML document
type Report struct {
	Config  RunConfig     `yaml:"config"`
	Totals  Totals        `yaml:"totals"`
	Results []SceneResult `yaml:"results"`
}

// New builds a report from a finished batch run
func New(cfg *config.Config, summary *batch.Summary, now time.Time) *Report {
	r := &Report{
		Config: RunConfig{
			Source:             cfg.Source,
			Output:             cfg.Output,
			Variant:            cfg.Variant,
			Concurrency:        cfg.Concurrency,
			PerFrameIntrinsics: cfg.SceneOptions(nil).PerFrameIntrinsics,
			Timestamp:          now.Format("2006-01-02_15-04-05"),
		},
		Totals: Totals{
			Scenes:        len(summary.Results),
			Succeeded:     summary.Succeeded,
			Failed:        summary.Failed,
			FramesKept:    summary.FramesKept,
			FramesSkipped: summary.FramesSkipped,
			Seconds:       summary.Duration.Seconds(),
		},
		Results: make([]SceneResult, 0, len(summary.Results)),
	}

	for _, res := range summary.Results {
		sr := SceneResult{
			Scene:         res.Scene,
			Manifest:      res.ManifestPath,
			FramesKept:    res.FramesKept,
			FramesSkipped: res.FramesSkipped,
			DurationMS:    res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		r.Results = append(r.Results, sr)
	}

	return r
}

// SaveYAML writes the report to path
func SaveYAML(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}
