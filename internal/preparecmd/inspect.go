package preparecmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/sceneprep/internal/index"
	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

func executeInspectManifest(w io.Writer, path string, limit int) error {
	m, err := scene.LoadManifest(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Scene:   %s\n", m.Scene)
	fmt.Fprintf(w, "Dataset: %s\n", m.Dataset)
	fmt.Fprintf(w, "Path:    %s\n", m.Path)
	fmt.Fprintf(w, "Frames:  %d\n", len(m.Frames))
	fmt.Fprintln(w, "========================================")

	for i, f := range m.Frames {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "... %d more\n", len(m.Frames)-limit)
			break
		}
		t := scene.MatrixRows(f.Pose)
		fmt.Fprintf(w, "[%d] %s  t=(%g, %g, %g)\n", i, f.FileNameImage, t[0][3], t[1][3], t[2][3])
	}

	return nil
}

func executeInspectIndex(w io.Writer, path string, limit int) error {
	rows, err := index.ReadFrames(path, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-32s %6s  %s\n", "SCENE", "FRAME", "IMAGE")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, r := range rows {
		fmt.Fprintf(w, "%-32s %6d  %s\n", r.Scene, r.FrameIndex, r.FileNameImage)
	}
	fmt.Fprintf(w, "\n%d rows shown\n", len(rows))

	return nil
}
