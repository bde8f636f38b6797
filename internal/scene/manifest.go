package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

const (
	// DatasetName identifies the manifest format to downstream loaders.
	DatasetName = "sample"

	// ManifestFileName is the name of the file written under output_root/scene.
	ManifestFileName = "info.json"
)

// Frame is one image of a scene together with its camera parameters.
type Frame struct {
	FileNameImage string
	Intrinsics    *mat.Dense // 3x3
	Pose          *mat.Dense // 4x4
}

type frameJSON struct {
	FileNameImage string        `json:"file_name_image"`
	Intrinsics    [][]jsonFloat `json:"intrinsics"`
	Pose          [][]float64   `json:"pose"`
}

// jsonFloat writes NaN and Inf as null, since intrinsics are passed through
// unvalidated and JSON has no literal for them. null reads back as NaN.
type jsonFloat float64

func (v jsonFloat) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (v *jsonFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = jsonFloat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = jsonFloat(f)
	return nil
}

func toJSONRows(rows [][]float64) [][]jsonFloat {
	out := make([][]jsonFloat, len(rows))
	for i, row := range rows {
		out[i] = make([]jsonFloat, len(row))
		for j, v := range row {
			out[i][j] = jsonFloat(v)
		}
	}
	return out
}

func fromJSONRows(rows [][]jsonFloat) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

// MarshalJSON encodes the matrices as nested row-major arrays.
func (f Frame) MarshalJSON() ([]byte, error) {
	if f.Intrinsics == nil || f.Pose == nil {
		return nil, fmt.Errorf("frame %s: missing intrinsics or pose", f.FileNameImage)
	}
	return json.Marshal(frameJSON{
		FileNameImage: f.FileNameImage,
		Intrinsics:    toJSONRows(MatrixRows(f.Intrinsics)),
		Pose:          MatrixRows(f.Pose),
	})
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var raw frameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	intrinsics, err := matrixFromRows(fromJSONRows(raw.Intrinsics))
	if err != nil {
		return fmt.Errorf("frame %s: intrinsics: %w", raw.FileNameImage, err)
	}
	pose, err := matrixFromRows(raw.Pose)
	if err != nil {
		return fmt.Errorf("frame %s: pose: %w", raw.FileNameImage, err)
	}
	f.FileNameImage = raw.FileNameImage
	f.Intrinsics = intrinsics
	f.Pose = pose
	return nil
}

// Manifest describes one scene in the dataset-agnostic info.json format.
type Manifest struct {
	Dataset string  `json:"dataset"`
	Path    string  `json:"path"`
	Scene   string  `json:"scene"`
	Frames  []Frame `json:"frames"`

	// Stats is bookkeeping for the run that built the manifest and is not
	// written to disk.
	Stats Stats `json:"-"`
}

// Stats counts the frames a builder looked at.
type Stats struct {
	Seen    int
	Kept    int
	Skipped int
}

// NewManifest creates an empty manifest for scene under sourceRoot.
func NewManifest(sourceRoot, scene string) *Manifest {
	return &Manifest{
		Dataset: DatasetName,
		Path:    sourceRoot,
		Scene:   scene,
		Frames:  make([]Frame, 0),
	}
}

// addFrame appends the frame when its pose is finite and reports whether it
// was kept.
func (m *Manifest) addFrame(f Frame) bool {
	m.Stats.Seen++
	if !IsFinitePose(f.Pose) {
		m.Stats.Skipped++
		return false
	}
	m.Frames = append(m.Frames, f)
	m.Stats.Kept++
	return true
}

// ManifestPath returns where the manifest of scene is written under outputRoot.
func ManifestPath(outputRoot, scene string) string {
	return filepath.Join(outputRoot, scene, ManifestFileName)
}

// Save writes the manifest to outputRoot/scene/info.json, creating any missing
// directories. The file is written to a temporary name first and renamed into
// place, so a failure never leaves a partial manifest behind.
func (m *Manifest) Save(outputRoot string) (string, error) {
	dir := filepath.Join(outputRoot, m.Scene)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".info-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create manifest file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	path := ManifestPath(outputRoot, m.Scene)
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to move manifest into place: %w", err)
	}

	return path, nil
}

// LoadManifest reads an info.json file.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer file.Close()

	var m Manifest
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	if m.Dataset != DatasetName {
		return nil, fmt.Errorf("manifest %s: unexpected dataset %q", path, m.Dataset)
	}
	if m.Frames == nil {
		m.Frames = make([]Frame, 0)
	}
	m.Stats = Stats{Seen: len(m.Frames), Kept: len(m.Frames)}

	return &m, nil
}
