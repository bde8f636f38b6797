// Package batch prepares many scenes with bounded concurrency.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/sceneprep/internal/config"
	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

// PrepareFunc builds one scene and writes its manifest.
type PrepareFunc func(ctx context.Context, sceneName, sourceRoot, outputRoot string, opts scene.Options) (*scene.Manifest, error)

// PrepareFuncFor returns the builder for a source layout variant.
func PrepareFuncFor(variant string) (PrepareFunc, error) {
	switch variant {
	case config.VariantSample:
		return scene.PrepareSampleScene, nil
	case config.VariantTest:
		return scene.PrepareTestScene, nil
	default:
		return nil, fmt.Errorf("unsupported variant: %s", variant)
	}
}

// SceneResult is the outcome of preparing one scene.
type SceneResult struct {
	Scene         string
	ManifestPath  string
	Manifest      *scene.Manifest
	FramesKept    int
	FramesSkipped int
	Duration      time.Duration
	Err           error
}

// Summary collects the results of a run in scene order.
type Summary struct {
	Results       []SceneResult
	Succeeded     int
	Failed        int
	FramesKept    int
	FramesSkipped int
	Duration      time.Duration
}

// Manifests returns the manifests of the scenes that succeeded, in order.
func (s *Summary) Manifests() []*scene.Manifest {
	var out []*scene.Manifest
	for _, r := range s.Results {
		if r.Err == nil && r.Manifest != nil {
			out = append(out, r.Manifest)
		}
	}
	return out
}

// lockedWriter serializes progress output from concurrent scenes.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Run prepares every scene of cfg. A scene that fails is recorded in the
// summary and does not stop the others. Scenes write to disjoint directories
// under cfg.Output, so they are safe to run in parallel. A nil progress
// writer means standard output.
func Run(ctx context.Context, cfg *config.Config, progress io.Writer) (*Summary, error) {
	prepare, err := PrepareFuncFor(cfg.Variant)
	if err != nil {
		return nil, err
	}

	scenes, err := cfg.ResolveScenes()
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes found under %s", cfg.Source)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	if progress == nil {
		progress = os.Stdout
	}
	opts := cfg.SceneOptions(&lockedWriter{w: progress})
	slog.Info("Starting batch", "scenes", len(scenes), "variant", cfg.Variant, "concurrency", concurrency)

	start := time.Now()
	results := make([]SceneResult, len(scenes))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, name := range scenes {
		wg.Add(1)
		go func(idx int, name string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}: // Acquire
			case <-ctx.Done():
				results[idx] = SceneResult{Scene: name, Err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }() // Release

			results[idx] = prepareScene(ctx, prepare, name, cfg, opts)
		}(i, name)
	}

	wg.Wait()

	summary := &Summary{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.FramesKept += r.FramesKept
		summary.FramesSkipped += r.FramesSkipped
	}

	slog.Info("Batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"frames_kept", summary.FramesKept,
		"frames_skipped", summary.FramesSkipped,
		"duration", summary.Duration)

	return summary, nil
}

func prepareScene(ctx context.Context, prepare PrepareFunc, name string, cfg *config.Config, opts scene.Options) SceneResult {
	result := SceneResult{Scene: name}
	start := time.Now()

	manifest, err := prepare(ctx, name, cfg.Source, cfg.Output, opts)
	result.Duration = time.Since(start)
	if err != nil {
		slog.Error("Failed to prepare scene", "scene", name, "err", err)
		result.Err = err
		return result
	}

	result.Manifest = manifest
	result.ManifestPath = scene.ManifestPath(cfg.Output, name)
	result.FramesKept = manifest.Stats.Kept
	result.FramesSkipped = manifest.Stats.Skipped
	if manifest.Stats.Skipped > 0 {
		slog.Warn("Dropped frames with invalid poses", "scene", name, "skipped", manifest.Stats.Skipped)
	}
	slog.Info("Prepared scene", "scene", name, "frames", manifest.Stats.Kept, "duration", result.Duration)

	return result
}
