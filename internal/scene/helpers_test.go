package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const identity3 = "1 0 0\n0 1 0\n0 0 1\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// poseText renders a 4x4 pose with translation x on the first row.
func poseText(x string) string {
	return fmt.Sprintf("1 0 0 %s\n0 1 0 0\n0 0 1 0\n0 0 0 1\n", x)
}

// sampleScene lays out a per-frame scene. poses maps frame id to the x
// translation written into its pose file.
func sampleScene(t *testing.T, root, scene string, poses map[int]string) {
	t.Helper()
	dir := filepath.Join(root, scene)
	writeFile(t, filepath.Join(dir, "intrinsics.txt"), identity3)
	for id, x := range poses {
		writeFile(t, filepath.Join(dir, "color", fmt.Sprintf("%08d.jpg", id)), "")
		writeFile(t, filepath.Join(dir, "pose", fmt.Sprintf("%08d.txt", id)), poseText(x))
	}
}

// poseLine renders a pose table line with intrinsics focal f, identity
// rotation and translation x.
func poseLine(token, f, x string) string {
	fields := []string{token,
		f, "0", "0", "0", f, "0", "0", "0", "1",
		"1", "0", "0", "0", "1", "0", "0", "0", "1",
		x, "0", "0",
	}
	return strings.Join(fields, " ")
}

func testScene(t *testing.T, root, scene string, lines ...string) {
	t.Helper()
	writeFile(t, filepath.Join(root, scene, "pose.txt"), strings.Join(lines, "\n")+"\n")
}

func quietOptions() Options {
	return Options{Verbosity: 0, PerFrameIntrinsics: true}
}
