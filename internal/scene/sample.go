package scene

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ListFrameIDs returns the integer frame identifiers of the files in colorDir,
// sorted ascending. Every file name (without extension) must be an integer.
func ListFrameIDs(colorDir string) ([]int, error) {
	entries, err := os.ReadDir(colorDir)
	if err != nil {
		return nil, openError(colorDir, err)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		id, err := strconv.Atoi(stem)
		if err != nil {
			return nil, &ParseError{
				Path: filepath.Join(colorDir, name),
				Msg:  "frame file name is not an integer",
				Err:  err,
			}
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids, nil
}

// BuildSampleManifest builds the manifest of a scene stored as one pose file
// per frame:
//
//	scene/intrinsics.txt
//	scene/color/<id>.jpg
//	scene/pose/<id>.txt
//
// Frames are ordered by ascending numeric id. Frames with a non-finite pose
// are dropped.
func BuildSampleManifest(ctx context.Context, scene, sourceRoot string, opts Options) (*Manifest, error) {
	opts.sceneStarted(scene)
	sceneDir := filepath.Join(sourceRoot, scene)

	intrinsics, err := LoadMatrix(filepath.Join(sceneDir, "intrinsics.txt"), 3, 3)
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to load intrinsics: %w", scene, err)
	}

	ids, err := ListFrameIDs(filepath.Join(sceneDir, "color"))
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to list frames: %w", scene, err)
	}
	slog.Debug("Listed frames", "scene", scene, "frames", len(ids))

	manifest := NewManifest(sourceRoot, scene)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.frameStarted(scene, i, len(ids))

		name := fmt.Sprintf("%08d", id)
		pose, err := LoadMatrix(filepath.Join(sceneDir, "pose", name+".txt"), 4, 4)
		if err != nil {
			return nil, fmt.Errorf("scene %s: failed to load pose of frame %d: %w", scene, id, err)
		}

		kept := manifest.addFrame(Frame{
			FileNameImage: filepath.Join(sceneDir, "color", name+".jpg"),
			Intrinsics:    intrinsics,
			Pose:          pose,
		})
		if !kept {
			slog.Debug("Skipping frame with invalid pose", "scene", scene, "frame", id)
		}
	}

	slog.Debug("Built manifest", "scene", scene, "kept", manifest.Stats.Kept, "skipped", manifest.Stats.Skipped)
	return manifest, nil
}

// PrepareSampleScene builds the manifest of a per-frame scene and writes it to
// outputRoot/scene/info.json. Nothing is written if building fails.
func PrepareSampleScene(ctx context.Context, scene, sourceRoot, outputRoot string, opts Options) (*Manifest, error) {
	manifest, err := BuildSampleManifest(ctx, scene, sourceRoot, opts)
	if err != nil {
		return nil, err
	}
	if _, err := manifest.Save(outputRoot); err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene, err)
	}
	return manifest, nil
}
