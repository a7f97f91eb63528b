// Package datagen produces and checks the csv operands exchanged with the
// compiled matmul test binary
package datagen

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/notargets/AOTKernel/builder"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// File names written by GenerateMatmulData
const (
	AFile = "a.csv"
	BFile = "b.csv"
	CFile = "c.csv"
)

// MatmulData holds generated operands, already rounded to the operand
// dtype, and the csv paths for A, B and the expected output C
type MatmulData struct {
	A, B                *mat.Dense
	APath, BPath, CPath string
	DataType            builder.DataType
}

// GenerateMatmulData fills an MxK matrix A and a KxN matrix B with standard
// normal samples and writes their bit patterns to dir/a.csv and dir/b.csv,
// creating dir if needed. A nil src draws from the unseeded global source.
func GenerateMatmulData(dir string, m, n, k int, dt builder.DataType, src rand.Source) (*MatmulData, error) {
	if m <= 0 || n <= 0 || k <= 0 {
		return nil, fmt.Errorf("matrix dims must be positive, got M=%d N=%d K=%d", m, n, k)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := &MatmulData{
		APath:    filepath.Join(dir, AFile),
		BPath:    filepath.Join(dir, BFile),
		CPath:    filepath.Join(dir, CFile),
		DataType: dt,
	}

	var err error
	if data.A, err = writeRandom(data.APath, m, k, dt, dist); err != nil {
		return nil, err
	}
	if data.B, err = writeRandom(data.BPath, k, n, dt, dist); err != nil {
		return nil, err
	}
	return data, nil
}

func writeRandom(path string, rows, cols int, dt builder.DataType, dist distuv.Normal) (*mat.Dense, error) {
	values := make([]float64, rows*cols)
	tokens := make([]int64, rows*cols)
	for i := range values {
		bits, err := Encode(dt, dist.Rand())
		if err != nil {
			return nil, err
		}
		tokens[i] = bits
		if values[i], err = Decode(dt, bits); err != nil {
			return nil, err
		}
	}
	if err := WriteCSV(path, tokens); err != nil {
		return nil, err
	}
	return mat.NewDense(rows, cols, values), nil
}

// ReadMatrix loads a rows x cols operand written by GenerateMatmulData
func ReadMatrix(path string, rows, cols int, dt builder.DataType) (*mat.Dense, error) {
	tokens, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) != rows*cols {
		return nil, fmt.Errorf("%s holds %d values, want %dx%d", path, len(tokens), rows, cols)
	}
	values := make([]float64, len(tokens))
	for i, bits := range tokens {
		if values[i], err = Decode(dt, bits); err != nil {
			return nil, err
		}
	}
	return mat.NewDense(rows, cols, values), nil
}
