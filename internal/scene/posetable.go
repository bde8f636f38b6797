package scene

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// poseTableFields is the number of tokens on a pose.txt line: the frame token,
// 9 intrinsics, 9 rotation and 3 translation values.
const poseTableFields = 22

// PoseEntry is one parsed line of a pose table.
type PoseEntry struct {
	Token       string
	Line        int
	Intrinsics  *mat.Dense    // 3x3
	Rotation    *mat.Dense    // 3x3
	Translation *mat.VecDense // 3
}

// Pose assembles the homogeneous 4x4 pose [R | t; 0 0 0 1].
func (e PoseEntry) Pose() *mat.Dense {
	var top mat.Dense
	top.Augment(e.Rotation, e.Translation)

	var pose mat.Dense
	pose.Stack(&top, mat.NewDense(1, 4, []float64{0, 0, 0, 1}))
	return &pose
}

// ParsePoseTable reads pose table lines from r in file order. Every line,
// including a blank one, needs at least 22 fields; tokens after the 22nd are
// ignored. path is only used for errors.
func ParsePoseTable(r io.Reader, path string) ([]PoseEntry, error) {
	var entries []PoseEntry

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) < poseTableFields {
			return nil, &ParseError{
				Path: path,
				Line: lineNum,
				Msg:  fmt.Sprintf("expected %d fields, got %d", poseTableFields, len(fields)),
			}
		}

		values := make([]float64, poseTableFields-1)
		for i, tok := range fields[1:poseTableFields] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("field %d: invalid number %q", i+1, tok), Err: err}
			}
			values[i] = v
		}

		entries = append(entries, PoseEntry{
			Token:       fields[0],
			Line:        lineNum,
			Intrinsics:  mat.NewDense(3, 3, values[0:9:9]),
			Rotation:    mat.NewDense(3, 3, values[9:18:18]),
			Translation: mat.NewVecDense(3, values[18:21:21]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return entries, nil
}

// LoadPoseTable opens and parses a pose.txt file.
func LoadPoseTable(path string) ([]PoseEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	return ParsePoseTable(f, path)
}

// BuildTestManifest builds the manifest of a scene described by a single pose
// table:
//
//	scene/pose.txt
//	scene/color/<token>
//
// Frames keep the line order of pose.txt. When a token appears on more than one
// line, every occurrence resolves to the last line for that token. Frames with
// a non-finite pose are dropped.
func BuildTestManifest(ctx context.Context, scene, sourceRoot string, opts Options) (*Manifest, error) {
	opts.sceneStarted(scene)
	sceneDir := filepath.Join(sourceRoot, scene)

	entries, err := LoadPoseTable(filepath.Join(sceneDir, "pose.txt"))
	if err != nil {
		return nil, fmt.Errorf("scene %s: failed to load pose table: %w", scene, err)
	}
	slog.Debug("Parsed pose table", "scene", scene, "lines", len(entries))

	tokens := make([]string, 0, len(entries))
	byToken := make(map[string]int, len(entries))
	for i, e := range entries {
		tokens = append(tokens, e.Token)
		byToken[e.Token] = i
	}

	var shared *mat.Dense
	if len(entries) > 0 {
		shared = entries[len(entries)-1].Intrinsics
	}

	manifest := NewManifest(sourceRoot, scene)
	for i, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.frameStarted(scene, i, len(tokens))

		entry := entries[byToken[token]]
		intrinsics := shared
		if opts.PerFrameIntrinsics {
			intrinsics = entry.Intrinsics
		}

		kept := manifest.addFrame(Frame{
			FileNameImage: filepath.Join(sceneDir, "color", token),
			Intrinsics:    intrinsics,
			Pose:          entry.Pose(),
		})
		if !kept {
			slog.Debug("Skipping frame with invalid pose", "scene", scene, "token", token, "line", entry.Line)
		}
	}

	slog.Debug("Built manifest", "scene", scene, "kept", manifest.Stats.Kept, "skipped", manifest.Stats.Skipped)
	return manifest, nil
}

// PrepareTestScene builds the manifest of a pose-table scene and writes it to
// outputRoot/scene/info.json. Nothing is written if building fails.
func PrepareTestScene(ctx context.Context, scene, sourceRoot, outputRoot string, opts Options) (*Manifest, error) {
	manifest, err := BuildTestManifest(ctx, scene, sourceRoot, opts)
	if err != nil {
		return nil, err
	}
	if _, err := manifest.Save(outputRoot); err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene, err)
	}
	return manifest, nil
}
