package scene

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func identityPose() *mat.Dense {
	return mat.NewDense(4, 4, []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1})
}

func TestManifestJSONSchema(t *testing.T) {
	m := NewManifest("/data/raw", "scans/scene0000_00")
	m.addFrame(Frame{
		FileNameImage: "/data/raw/scans/scene0000_00/color/00000000.jpg",
		Intrinsics:    mat.NewDense(3, 3, []float64{577.5, 0, 319.5, 0, 577.5, 239.5, 0, 0, 1}),
		Pose:          identityPose(),
	})

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if raw["dataset"] != "sample" {
		t.Errorf("Expected dataset sample, got %v", raw["dataset"])
	}
	if raw["path"] != "/data/raw" || raw["scene"] != "scans/scene0000_00" {
		t.Errorf("Unexpected path/scene: %v %v", raw["path"], raw["scene"])
	}
	if _, ok := raw["Stats"]; ok {
		t.Error("Stats should not be serialized")
	}

	frames := raw["frames"].([]any)
	frame := frames[0].(map[string]any)
	wantKeys := []string{"file_name_image", "intrinsics", "pose"}
	for _, k := range wantKeys {
		if _, ok := frame[k]; !ok {
			t.Errorf("Frame is missing key %s", k)
		}
	}
	if len(frame) != len(wantKeys) {
		t.Errorf("Expected %d frame keys, got %d", len(wantKeys), len(frame))
	}

	intrinsics := frame["intrinsics"].([]any)
	if len(intrinsics) != 3 || len(intrinsics[0].([]any)) != 3 {
		t.Errorf("Expected 3x3 intrinsics, got %v", intrinsics)
	}
	if intrinsics[0].([]any)[2] != 319.5 {
		t.Errorf("Expected row-major intrinsics, got %v", intrinsics)
	}
	pose := frame["pose"].([]any)
	if len(pose) != 4 || len(pose[3].([]any)) != 4 {
		t.Errorf("Expected 4x4 pose, got %v", pose)
	}
}

func TestEmptyManifestHasFrameList(t *testing.T) {
	data, err := json.Marshal(NewManifest("src", "scene"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"frames":[]`) {
		t.Errorf("Expected empty frame list, got %s", data)
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	out := t.TempDir()
	m := NewManifest("src", "scans/scene0002_00")
	m.addFrame(Frame{
		FileNameImage: "src/scans/scene0002_00/color/00000000.jpg",
		Intrinsics:    mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		Pose:          identityPose(),
	})

	path, err := m.Save(out)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != filepath.Join(out, "scans/scene0002_00", "info.json") {
		t.Errorf("Unexpected manifest path %s", path)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only info.json in output directory, got %d entries", len(entries))
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if loaded.Scene != m.Scene || len(loaded.Frames) != 1 {
		t.Fatalf("Unexpected manifest: %+v", loaded)
	}
	if diff := cmp.Diff(MatrixRows(m.Frames[0].Pose), MatrixRows(loaded.Frames[0].Pose)); diff != "" {
		t.Errorf("Pose mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveOverwritesExistingManifest(t *testing.T) {
	out := t.TempDir()
	writeFile(t, ManifestPath(out, "scene"), "stale")

	if _, err := NewManifest("src", "scene").Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(ManifestPath(out, "scene"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("Expected stale manifest to be replaced")
	}
}

func TestNonFiniteIntrinsicsEncodeAsNull(t *testing.T) {
	out := t.TempDir()
	m := NewManifest("src", "scene")
	m.addFrame(Frame{
		FileNameImage: "a.jpg",
		Intrinsics:    mat.NewDense(3, 3, []float64{math.NaN(), 0, math.Inf(1), 0, 1, 0, 0, 0, 1}),
		Pose:          identityPose(),
	})

	path, err := m.Save(out)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var raw struct {
		Frames []struct {
			Intrinsics [][]*float64 `json:"intrinsics"`
		} `json:"frames"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Manifest is not valid JSON: %v", err)
	}
	row := raw.Frames[0].Intrinsics[0]
	if row[0] != nil || row[1] == nil || *row[1] != 0 || row[2] != nil {
		t.Errorf("Expected [null, 0, null] in first intrinsics row, got %s", data)
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	k := loaded.Frames[0].Intrinsics
	if !math.IsNaN(k.At(0, 0)) || !math.IsNaN(k.At(0, 2)) || k.At(1, 1) != 1 {
		t.Errorf("Unexpected intrinsics after reload: %v", MatrixRows(k))
	}
}

func TestSaveFailureLeavesNoTempFile(t *testing.T) {
	out := t.TempDir()
	// A directory in the way of info.json makes the final rename fail.
	writeFile(t, filepath.Join(ManifestPath(out, "scene"), "keep"), "")

	if _, err := NewManifest("src", "scene").Save(out); err == nil {
		t.Fatal("Expected error, got nil")
	}
	entries, err := os.ReadDir(filepath.Join(out, "scene"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != ManifestFileName {
		t.Errorf("Expected only the blocking directory, got %d entries", len(entries))
	}
}

func TestLoadManifestRejectsOtherDatasets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.json")
	writeFile(t, path, `{"dataset":"scannet","path":"p","scene":"s","frames":[]}`)

	if _, err := LoadManifest(path); err == nil {
		t.Error("Expected error for foreign dataset, got nil")
	}
}
