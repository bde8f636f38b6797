package index

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

func testManifest(name string, frames int) *scene.Manifest {
	m := scene.NewManifest("/raw", name)
	for i := 0; i < frames; i++ {
		pose := mat.NewDense(4, 4, []float64{1, 0, 0, float64(i), 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1})
		m.Frames = append(m.Frames, scene.Frame{
			FileNameImage: filepath.Join("/raw", name, "color", "frame"+string(rune('a'+i))),
			Intrinsics:    mat.NewDense(3, 3, []float64{500, 0, 320, 0, 500, 240, 0, 0, 1}),
			Pose:          pose,
		})
	}
	return m
}

func TestRowsFromManifest(t *testing.T) {
	rows := RowsFromManifest(testManifest("scans/scene0000_00", 2))
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	want := FrameRow{
		Scene:         "scans/scene0000_00",
		FrameIndex:    1,
		FileNameImage: "/raw/scans/scene0000_00/color/frameb",
		Intrinsics:    []float64{500, 0, 320, 0, 500, 240, 0, 0, 1},
		Pose:          []float64{1, 0, 0, 1, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
	}
	if diff := cmp.Diff(want, rows[1]); diff != "" {
		t.Errorf("Row mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteAndReadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.parquet")
	manifests := []*scene.Manifest{
		testManifest("scans/scene0000_00", 3),
		testManifest("scans/scene0001_00", 0),
		testManifest("scans/scene0002_00", 2),
	}

	n, err := WriteFrames(path, manifests)
	if err != nil {
		t.Fatalf("WriteFrames failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 rows written, got %d", n)
	}

	rows, err := ReadFrames(path, 0)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}

	var want []FrameRow
	for _, m := range manifests {
		want = append(want, RowsFromManifest(m)...)
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}

	limited, err := ReadFrames(path, 2)
	if err != nil {
		t.Fatalf("ReadFrames with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[1].FrameIndex != 1 {
		t.Errorf("Unexpected limited rows: %+v", limited)
	}
}

func TestReadFramesMissingFile(t *testing.T) {
	if _, err := ReadFrames(filepath.Join(t.TempDir(), "nope.parquet"), 0); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
