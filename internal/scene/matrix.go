package scene

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadMatrix reads a rows x cols matrix from a whitespace delimited text file
// with one matrix row per line. Blank lines and '#' comments are ignored.
func LoadMatrix(path string, rows, cols int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	return parseMatrix(f, path, rows, cols)
}

func parseMatrix(r io.Reader, path string, rows, cols int) (*mat.Dense, error) {
	want := rows * cols
	values := make([]float64, 0, want)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != cols {
			return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("expected %d values per row, got %d", cols, len(fields))}
		}
		for _, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &ParseError{Path: path, Line: lineNum, Msg: fmt.Sprintf("invalid number %q", tok), Err: err}
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(values) != want {
		return nil, &ParseError{
			Path: path,
			Msg:  fmt.Sprintf("expected %d values for a %dx%d matrix, got %d", want, rows, cols, len(values)),
		}
	}

	return mat.NewDense(rows, cols, values), nil
}

// IsFinitePose reports whether every element of the pose is finite. Frames
// whose pose fails this check are left out of a manifest.
func IsFinitePose(pose mat.Matrix) bool {
	r, c := pose.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := pose.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// MatrixRows returns the matrix as a row-major slice of rows.
func MatrixRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// matrixFromRows is the inverse of MatrixRows. Every row must have the
// same length.
func matrixFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix has no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("matrix has no columns")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
