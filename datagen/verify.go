package datagen

import (
	"fmt"
	"math"

	"github.com/notargets/AOTKernel/builder"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReadResult loads the MxN output of the test binary. The binary writes the
// fp32 accumulator as int32 bit patterns.
func ReadResult(path string, m, n int) (*mat.Dense, error) {
	return ReadMatrix(path, m, n, builder.Float32)
}

// Reference computes what the kernel produces: the product A*B squared
// elementwise
func Reference(a, b *mat.Dense) *mat.Dense {
	var c, sq mat.Dense
	c.Mul(a, b)
	sq.MulElem(&c, &c)
	return &sq
}

// Compare checks got against want elementwise with a tolerance relative to
// max(1, |want|)
func Compare(got, want *mat.Dense, tol float64) error {
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wr || gc != wc {
		return fmt.Errorf("result is %dx%d, want %dx%d", gr, gc, wr, wc)
	}

	g := mat.DenseCopyOf(got).RawMatrix().Data
	w := mat.DenseCopyOf(want).RawMatrix().Data
	bad := 0
	for i := range w {
		if math.Abs(g[i]-w[i]) > tol*math.Max(1, math.Abs(w[i])) || math.IsNaN(g[i]) {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d values outside tolerance %g, max abs error %g",
			bad, len(w), tol, floats.Distance(g, w, math.Inf(1)))
	}
	return nil
}
