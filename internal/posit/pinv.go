package posit

import (
	"errors"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the fraction of the largest singular value below which a
// singular value is treated as zero.
const rankTolerance = 0.01

// pseudoInverse returns the Moore-Penrose pseudo-inverse of the matrix whose
// rows are vs.
func pseudoInverse(vs [numPoints]r3.Vector) ([3][numPoints]float64, error) {
	var out [3][numPoints]float64

	a := mat.NewDense(numPoints, 3, nil)
	for i, v := range vs {
		a.SetRow(i, []float64{v.X, v.Y, v.Z})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return out, errors.New("singular value decomposition failed")
	}

	w := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	wmax := 0.0
	for _, s := range w {
		if s > wmax {
			wmax = s
		}
	}
	cut := wmax * rankTolerance

	// A⁺ = V · diag(1/w) · Uᵀ over the retained singular values.
	for k, s := range w {
		if s < cut || s == 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			vik := v.At(i, k) / s
			for j := 0; j < numPoints; j++ {
				out[i][j] += vik * u.At(j, k)
			}
		}
	}
	return out, nil
}
