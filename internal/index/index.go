// Package index flattens scene manifests into a Parquet frame table so a
// whole dataset can be scanned without opening every info.json.
package index

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/sceneprep/internal/scene"
)

// FrameRow is one frame of one scene. Matrices are stored row-major.
type FrameRow struct {
	Scene         string    `parquet:"scene"`
	FrameIndex    int       `parquet:"frame_index"`
	FileNameImage string    `parquet:"file_name_image"`
	Intrinsics    []float64 `parquet:"intrinsics,list"` // 9 values
	Pose          []float64 `parquet:"pose,list"`       // 16 values
}

// RowsFromManifest converts the frames of a manifest, keeping their order.
func RowsFromManifest(m *scene.Manifest) []FrameRow {
	rows := make([]FrameRow, 0, len(m.Frames))
	for i, f := range m.Frames {
		rows = append(rows, FrameRow{
			Scene:         m.Scene,
			FrameIndex:    i,
			FileNameImage: f.FileNameImage,
			Intrinsics:    flatten(scene.MatrixRows(f.Intrinsics)),
			Pose:          flatten(scene.MatrixRows(f.Pose)),
		})
	}
	return rows
}

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// WriteFrames writes the frames of all manifests to a Parquet file at path and
// returns the number of rows written.
func WriteFrames(path string, manifests []*scene.Manifest) (int, error) {
	slog.Debug("Writing frame index", "path", path, "scenes", len(manifests))

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create index file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[FrameRow](file)

	total := 0
	for _, m := range manifests {
		rows := RowsFromManifest(m)
		if len(rows) == 0 {
			continue
		}
		n, err := writer.Write(rows)
		if err != nil {
			return total, fmt.Errorf("failed to write frames of %s: %w", m.Scene, err)
		}
		total += n
	}

	if err := writer.Close(); err != nil {
		return total, fmt.Errorf("failed to finish index: %w", err)
	}
	if err := file.Close(); err != nil {
		return total, fmt.Errorf("failed to close index file: %w", err)
	}

	slog.Debug("Finished writing frame index", "rows", total)
	return total, nil
}

// ReadFrames reads up to limit rows from a frame index. A limit of zero or less
// reads every row.
func ReadFrames(path string, limit int) ([]FrameRow, error) {
	slog.Debug("Opening frame index", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[FrameRow](pf)
	defer reader.Close()

	var rows []FrameRow
	batch := make([]FrameRow, 128)

	for limit <= 0 || len(rows) < limit {
		n, err := reader.Read(batch)
		if n > 0 {
			if limit > 0 && n > limit-len(rows) {
				n = limit - len(rows)
			}
			rows = append(rows, batch[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frames: %w", err)
		}
	}

	return rows, nil
}
